package checks

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

const protocolICMP = 1

// Ping sends count (default 3) unprivileged ICMP echo requests to host.
// Metrics: rta (ms, thresholds applied) and pl (%). Total loss is CRITICAL.
func Ping(opts Options) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		host, err := required(n, "ping", "host")
		if err != nil {
			return err
		}
		count, ok, err := n.Args().Int("count")
		if err != nil {
			return err
		}
		if !ok || count <= 0 {
			count = 3
		}
		ctx, cancel, _, err := withTimeout(ctx, n, opts.Timeout)
		if err != nil {
			return err
		}
		defer cancel()

		addr, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil || len(addr) == 0 {
			n.SetResult(status.Critical, fmt.Sprintf("cannot resolve %s: %v", host, err))
			return nil
		}
		var target net.IP
		for _, a := range addr {
			if a.IP.To4() != nil {
				target = a.IP
				break
			}
		}
		if target == nil {
			return fmt.Errorf("ping check: %s has no IPv4 address", host)
		}

		conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
		if err != nil {
			return fmt.Errorf("ping check: opening ICMP socket: %w", err)
		}
		defer conn.Close()

		rtts, err := echo(ctx, conn, target, count)
		if err != nil {
			return err
		}

		loss := float64(count-len(rtts)) / float64(count) * 100
		if err := n.Perfdata().Set("pl", loss, map[string]any{"uom": "%", "min": 0, "max": 100}); err != nil {
			return err
		}
		if len(rtts) == 0 {
			n.SetResult(status.Critical, fmt.Sprintf("%s unreachable, 100%% packet loss", host))
			return nil
		}

		var total time.Duration
		for _, rtt := range rtts {
			total += rtt
		}
		rta := float64(total.Microseconds()) / float64(len(rtts)) / 1000
		s, err := measure(n, "rta", rta, "ms")
		if err != nil {
			return err
		}
		n.SetResult(s, fmt.Sprintf("%s rta %.3fms, %.0f%% packet loss", host, rta, loss))
		return nil
	}
}

// echo sends count echo requests one after another and returns the round
// trip time of every reply received before the deadline.
func echo(ctx context.Context, conn *icmp.PacketConn, target net.IP, count int) ([]time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	id := os.Getpid() & 0xffff
	dst := &net.UDPAddr{IP: target}
	reply := make([]byte, 1500)

	var rtts []time.Duration
	for seq := 1; seq <= count; seq++ {
		if ctx.Err() != nil {
			break
		}
		msg := icmp.Message{
			Type: ipv4.ICMPTypeEcho,
			Body: &icmp.Echo{ID: id, Seq: seq, Data: []byte("plugtree")},
		}
		wire, err := msg.Marshal(nil)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		if _, err := conn.WriteTo(wire, dst); err != nil {
			return nil, fmt.Errorf("ping check: sending echo: %w", err)
		}

		perPacket := start.Add(time.Until(deadline) / time.Duration(count-seq+1))
		if err := conn.SetReadDeadline(perPacket); err != nil {
			return nil, err
		}
		for {
			nread, _, err := conn.ReadFrom(reply)
			if err != nil {
				break // timed out, counted as lost
			}
			parsed, err := icmp.ParseMessage(protocolICMP, reply[:nread])
			if err != nil || parsed.Type != ipv4.ICMPTypeEchoReply {
				continue
			}
			// The kernel rewrites the ID of unprivileged sockets, so match on sequence only.
			if body, ok := parsed.Body.(*icmp.Echo); ok && body.Seq == seq {
				rtts = append(rtts, time.Since(start))
				break
			}
		}
	}
	return rtts, nil
}
