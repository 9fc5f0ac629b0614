package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vinayprograms/plugtree/internal/executor"
	"github.com/vinayprograms/plugtree/internal/logging"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

func leaf(s status.Status, text string) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		n.SetResult(s, text)
		return nil
	}
}

func run(t *testing.T, spec plugin.Spec) *plugin.Node {
	t.Helper()
	root, err := plugin.Build(spec)
	if err != nil {
		t.Fatal(err)
	}
	e := executor.New()
	e.SetLogger(logging.Discard())
	e.Run(context.Background(), root)
	return root
}

func capture() (*Reporter, *strings.Builder, *int) {
	var out strings.Builder
	code := -1
	return &Reporter{Out: &out, Exit: func(c int) { code = c }}, &out, &code
}

func TestExitCode(t *testing.T) {
	tests := map[status.Status]int{
		status.OK:       0,
		status.Warning:  1,
		status.Critical: 2,
		status.Unknown:  3,
	}
	for s, want := range tests {
		if got := ExitCode(s); got != want {
			t.Errorf("ExitCode(%s) = %d, want %d", s, got, want)
		}
	}
}

func TestReport_Critical(t *testing.T) {
	root := run(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "leaf1", Body: leaf(status.OK, "fine")},
			{Tag: "leaf2", Body: leaf(status.Critical, "disk full")},
		},
	})

	r, out, code := capture()
	r.Report(root)

	if out.String() != "CRITICAL: [!leaf2 disk full]\n" {
		t.Errorf("unexpected line %q", out.String())
	}
	if *code != 2 {
		t.Errorf("expected exit 2, got %d", *code)
	}
}

func TestReport_AllOK(t *testing.T) {
	root := run(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "leafA", Body: leaf(status.OK, "a ok")},
			{Tag: "leafB", Body: leaf(status.OK, "b ok")},
		},
	})

	r, out, code := capture()
	r.Report(root)

	if out.String() != "OK: [+leafA a ok] [+leafB b ok]\n" {
		t.Errorf("unexpected line %q", out.String())
	}
	if *code != 0 {
		t.Errorf("expected exit 0, got %d", *code)
	}
}

func TestLine_WithPerfdata(t *testing.T) {
	root := run(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "disk", Body: func(ctx context.Context, n *plugin.Node) error {
				n.SetResult(status.Warning, "81% used")
				return n.Perfdata().Set("used", 81, map[string]any{"uom": "%", "warn": 80, "crit": 90})
			}},
			{Tag: "mem", Body: func(ctx context.Context, n *plugin.Node) error {
				n.SetResult(status.OK, "fine")
				return n.Perfdata().Set("free mem", 512, map[string]any{"uom": "MB"})
			}},
		},
	})

	want := "WARNING: [-disk 81% used] | used=81%;80;90;; 'free mem'=512MB;;;;"
	if got := Line(root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReport_LongText(t *testing.T) {
	root := run(t, plugin.Spec{Tag: "main", Body: func(ctx context.Context, n *plugin.Node) error {
		n.SetResult(status.OK, "3 volumes")
		n.Output().Push("/ 12%\n/var 40%", "/home 3%")
		return nil
	}})

	r, out, _ := capture()
	r.LongText = true
	r.Report(root)

	want := "OK: 3 volumes\n/ 12%\n/var 40%\n/home 3%\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestEject(t *testing.T) {
	r, out, code := capture()
	r.Eject("config", errors.New("no such file"))

	if out.String() != "UNKNOWN: config: no such file\n" {
		t.Errorf("unexpected line %q", out.String())
	}
	if *code != 3 {
		t.Errorf("expected exit 3, got %d", *code)
	}
}

func TestRecover(t *testing.T) {
	r, out, code := capture()
	func() {
		defer r.Recover()
		var m map[string]int
		m["x"] = 1
	}()

	if !strings.HasPrefix(out.String(), "UNKNOWN: internal: ") {
		t.Errorf("expected an UNKNOWN internal line, got %q", out.String())
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Errorf("expected exactly one line, got %q", out.String())
	}
	if *code != 3 {
		t.Errorf("expected exit 3, got %d", *code)
	}
}

func TestRecover_NoPanic(t *testing.T) {
	r, out, code := capture()
	func() {
		defer r.Recover()
	}()
	if out.String() != "" || *code != -1 {
		t.Errorf("expected nothing reported, got %q (exit %d)", out.String(), *code)
	}
}
