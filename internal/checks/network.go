package checks

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// TCP connects to host:port and reports the connect time.
// Arguments: host, port (or address), timeout, thresholds on the time metric.
func TCP(opts Options) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		address, err := tcpAddress(n)
		if err != nil {
			return err
		}
		ctx, cancel, _, err := withTimeout(ctx, n, opts.Timeout)
		if err != nil {
			return err
		}
		defer cancel()

		var dialer net.Dialer
		start := time.Now()
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			n.SetResult(status.Critical, fmt.Sprintf("connection to %s failed: %v", address, err))
			return nil
		}
		elapsed := time.Since(start)
		conn.Close()

		s, err := measure(n, "time", seconds(elapsed), "s")
		if err != nil {
			return err
		}
		n.SetResult(s, fmt.Sprintf("%s responded in %.3fs", address, seconds(elapsed)))
		return nil
	}
}

func tcpAddress(n *plugin.Node) (string, error) {
	a := n.Args()
	if address, ok := a.StringValue("address"); ok && address != "" {
		return address, nil
	}
	host, err := required(n, "tcp", "host")
	if err != nil {
		return "", err
	}
	port, ok, err := a.Int("port")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &MissingArgError{Check: "tcp", Arg: "port"}
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// HTTP fetches url and compares the response code with expect (default 200).
// Metrics: time (s, thresholds applied) and size (B).
func HTTP(opts Options) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		url, err := required(n, "http", "url")
		if err != nil {
			return err
		}
		expect, ok, err := n.Args().Int("expect")
		if err != nil {
			return err
		}
		if !ok {
			expect = http.StatusOK
		}
		ctx, cancel, _, err := withTimeout(ctx, n, opts.Timeout)
		if err != nil {
			return err
		}
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "plugtree")

		start := time.Now()
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			n.SetResult(status.Critical, fmt.Sprintf("request failed: %v", err))
			return nil
		}
		defer resp.Body.Close()
		size, err := io.Copy(io.Discard, resp.Body)
		if err != nil {
			n.SetResult(status.Critical, fmt.Sprintf("reading response failed: %v", err))
			return nil
		}
		elapsed := time.Since(start)

		s, err := measure(n, "time", seconds(elapsed), "s")
		if err != nil {
			return err
		}
		if err := n.Perfdata().Set("size", size, map[string]any{"uom": "B", "min": 0}); err != nil {
			return err
		}

		if resp.StatusCode != expect {
			n.SetResult(status.Critical, fmt.Sprintf("HTTP %d, expected %d", resp.StatusCode, expect))
			return nil
		}
		n.SetResult(s, fmt.Sprintf("HTTP %d, %d bytes in %.3fs", resp.StatusCode, size, seconds(elapsed)))
		return nil
	}
}
