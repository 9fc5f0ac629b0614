// Package publish hands finished check results to a remote collector.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/report"
	"github.com/vinayprograms/plugtree/internal/status"
)

// Result is the message published for one run.
type Result struct {
	RunID    string        `json:"run_id"`
	Path     string        `json:"path"`
	Status   status.Status `json:"status"`
	Output   string        `json:"output"`
	LongText []string      `json:"long_text,omitempty"`
	Perfdata []string      `json:"perfdata,omitempty"`
	ExitCode int           `json:"exit_code"`
	Time     time.Time     `json:"time"`
}

// NewResult captures n's result.
func NewResult(runID string, n *plugin.Node, at time.Time) Result {
	r := Result{
		RunID:    runID,
		Path:     n.Path(),
		Status:   n.Status(),
		Output:   n.Output().Text(),
		LongText: n.Output().LongText(),
		ExitCode: report.ExitCode(n.Status()),
		Time:     at.UTC(),
	}
	for _, m := range n.DeepPerfdata() {
		r.Perfdata = append(r.Perfdata, m.String())
	}
	return r
}

// Encode returns the JSON wire form of r.
func (r Result) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Publisher sends results somewhere.
type Publisher interface {
	Publish(ctx context.Context, r Result) error
	Target() string
	Close() error
}

// Nop discards results. It is used when no collector is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, r Result) error { return nil }
func (Nop) Target() string                              { return "" }
func (Nop) Close() error                                { return nil }

// NATS publishes results as JSON on a subject.
type NATS struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// Dial connects to the NATS server at url.
func Dial(url, subject string, timeout time.Duration) (*NATS, error) {
	if subject == "" {
		return nil, fmt.Errorf("publish subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("plugtree"),
		nats.Timeout(timeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &NATS{conn: conn, subject: subject, timeout: timeout}, nil
}

// Publish sends r and waits for the server to acknowledge the flush.
func (p *NATS) Publish(ctx context.Context, r Result) error {
	data, err := r.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	if err := p.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// Target returns the subject results are published on.
func (p *NATS) Target() string { return p.subject }

// Close drains nothing and closes the connection.
func (p *NATS) Close() error {
	p.conn.Close()
	return nil
}

// New returns a NATS publisher when url is set, Nop otherwise.
func New(url, subject string, timeout time.Duration) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	return Dial(url, subject, timeout)
}
