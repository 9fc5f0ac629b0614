package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/plugtree/internal/logging"
	"github.com/vinayprograms/plugtree/internal/output"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

func result(s status.Status, text string) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		n.SetResult(s, text)
		return nil
	}
}

func newExecutor() *Executor {
	e := New()
	e.SetLogger(logging.Discard())
	return e
}

func build(t *testing.T, spec plugin.Spec) *plugin.Node {
	t.Helper()
	root, err := plugin.Build(spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return root
}

func TestExecute_Leaf(t *testing.T) {
	root := build(t, plugin.Spec{Tag: "main", Body: result(status.Warning, "load high")})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.Warning || root.Output().Text() != "load high" {
		t.Errorf("unexpected result %s", root)
	}
}

func TestExecute_LeafWithoutResultStaysUnknown(t *testing.T) {
	root := build(t, plugin.Spec{Tag: "main", Body: func(ctx context.Context, n *plugin.Node) error { return nil }})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.Unknown {
		t.Errorf("a body that sets nothing must leave UNKNOWN, got %s", root.Status())
	}
	if root.Output().Text() != output.Uninitialized {
		t.Errorf("unexpected output %q", root.Output().Text())
	}
}

func TestExecute_ErrorContained(t *testing.T) {
	cause := errors.New("connection refused")
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "broken", Body: func(ctx context.Context, n *plugin.Node) error {
				n.SetResult(status.OK, "half done")
				return cause
			}},
			{Tag: "fine", Body: result(status.OK, "ok")},
		},
	})

	var errored []string
	e := newExecutor()
	e.OnNodeError = func(n *plugin.Node, err error) { errored = append(errored, n.Tag()) }
	e.Execute(context.Background(), root)

	broken, _ := root.Child("broken")
	if broken.Status() != status.Unknown {
		t.Errorf("expected UNKNOWN, got %s", broken.Status())
	}
	if !strings.Contains(broken.Output().Text(), "connection refused") {
		t.Errorf("diagnostic should carry the message, got %q", broken.Output().Text())
	}
	if !strings.Contains(broken.Output().Text(), "executor_test.go:") {
		t.Errorf("diagnostic should carry the origin, got %q", broken.Output().Text())
	}
	if !errors.Is(broken.Payload(), cause) {
		t.Errorf("payload should wrap the original error, got %v", broken.Payload())
	}
	var ee *ExecutionError
	if !errors.As(broken.Payload(), &ee) || ee.Path != "main.broken" {
		t.Errorf("expected ExecutionError for main.broken, got %v", broken.Payload())
	}

	fine, _ := root.Child("fine")
	if fine.Status() != status.OK {
		t.Error("sibling must still run after an error")
	}
	if root.Status() != status.Unknown || root.Output().Text() != "[*broken "+broken.Output().Text()+"]" {
		t.Errorf("unexpected root result %s", root)
	}
	if len(errored) != 1 || errored[0] != "broken" {
		t.Errorf("expected one error callback, got %v", errored)
	}
}

func TestExecute_PanicContained(t *testing.T) {
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "nilmap", Body: func(ctx context.Context, n *plugin.Node) error {
				var m map[string]int
				m["boom"] = 1
				return nil
			}},
			{Tag: "explicit", Body: func(ctx context.Context, n *plugin.Node) error {
				panic("unexpected state")
			}},
			{Tag: "after", Body: result(status.OK, "still here")},
		},
	})

	newExecutor().Execute(context.Background(), root)

	for _, tag := range []string{"nilmap", "explicit"} {
		n, _ := root.Child(tag)
		if n.Status() != status.Unknown || n.Output().Text() == "" {
			t.Errorf("%s: expected UNKNOWN with diagnostic, got %s", tag, n)
		}
		var pe *PanicError
		if !errors.As(n.Payload(), &pe) {
			t.Errorf("%s: expected PanicError payload, got %v", tag, n.Payload())
		}
		if !strings.Contains(n.Output().Text(), "executor_test.go:") {
			t.Errorf("%s: origin should point at the panicking line, got %q", tag, n.Output().Text())
		}
	}

	explicit, _ := root.Child("explicit")
	if !strings.Contains(explicit.Output().Text(), "unexpected state") {
		t.Errorf("unexpected diagnostic %q", explicit.Output().Text())
	}
	after, _ := root.Child("after")
	if after.Status() != status.OK {
		t.Error("siblings after a panic must run")
	}
}

func TestExecute_NoBody(t *testing.T) {
	root := build(t, plugin.Spec{Tag: "main"})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.Unknown || !errors.Is(root.Payload(), ErrNoBody) {
		t.Errorf("expected UNKNOWN with ErrNoBody, got %s %v", root, root.Payload())
	}
}

func TestExecute_MetaNeverRunsOwnBody(t *testing.T) {
	ran := false
	root := build(t, plugin.Spec{
		Tag: "main",
		Body: func(ctx context.Context, n *plugin.Node) error {
			ran = true
			return nil
		},
		Children: []plugin.Spec{{Tag: "leaf", Body: result(status.OK, "ok")}},
	})
	newExecutor().Execute(context.Background(), root)
	if ran {
		t.Error("a plugin with children must not run its own body")
	}
}

func TestExecute_ChildrenRunInOrderBeforeParent(t *testing.T) {
	var order []string
	e := newExecutor()
	e.OnNodeComplete = func(n *plugin.Node, elapsed time.Duration) { order = append(order, n.Path()) }

	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "a", Children: []plugin.Spec{
				{Tag: "a1", Body: result(status.OK, "a1")},
				{Tag: "a2", Body: result(status.OK, "a2")},
			}},
			{Tag: "b", Body: result(status.OK, "b")},
		},
	})
	e.Execute(context.Background(), root)

	want := []string{"main.a.a1", "main.a.a2", "main.a", "main.b", "main"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("expected order %v, got %v", want, order)
	}
}

func TestEvaluate_AllOK(t *testing.T) {
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "leafA", Body: result(status.OK, "a ok")},
			{Tag: "leafB", Body: result(status.OK, "b ok")},
		},
	})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.OK {
		t.Errorf("expected OK, got %s", root.Status())
	}
	if got := root.Output().Text(); got != "[+leafA a ok] [+leafB b ok]" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestEvaluate_OnlyNotOKSurfaced(t *testing.T) {
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "leaf1", Body: result(status.OK, "fine")},
			{Tag: "leaf2", Body: result(status.Critical, "disk full")},
		},
	})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.Critical {
		t.Errorf("expected CRITICAL, got %s", root.Status())
	}
	if got := root.Output().Text(); got != "[!leaf2 disk full]" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestEvaluate_StatusIsMaxOfSubset(t *testing.T) {
	tests := []struct {
		name     string
		statuses []status.Status
		want     status.Status
		output   string
	}{
		{"warning and critical", []status.Status{status.Warning, status.OK, status.Critical}, status.Critical, "[-c0 x] [!c2 x]"},
		{"unknown dominates", []status.Status{status.Critical, status.Unknown}, status.Unknown, "[!c0 x] [*c1 x]"},
		{"single warning", []status.Status{status.OK, status.Warning, status.OK}, status.Warning, "[-c1 x]"},
		{"all ok", []status.Status{status.OK, status.OK}, status.OK, "[+c0 x] [+c1 x]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := plugin.Spec{Tag: "main"}
			for i, s := range tt.statuses {
				spec.Children = append(spec.Children, plugin.Spec{
					Tag:  "c" + string(rune('0'+i)),
					Body: result(s, "x"),
				})
			}
			root := build(t, spec)
			newExecutor().Execute(context.Background(), root)
			if root.Status() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, root.Status())
			}
			if root.Output().Text() != tt.output {
				t.Errorf("expected output %q, got %q", tt.output, root.Output().Text())
			}
		})
	}
}

func TestEvaluate_NestedFailuresFoldUpward(t *testing.T) {
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "fs", Children: []plugin.Spec{
				{Tag: "root", Body: result(status.OK, "12% used")},
				{Tag: "var", Body: result(status.Warning, "81% used")},
			}},
			{Tag: "load", Body: result(status.OK, "0.3")},
		},
	})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.Warning {
		t.Errorf("expected WARNING, got %s", root.Status())
	}
	if got := root.Output().Text(); got != "[-fs [-var 81% used]]" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestEvaluate_DisabledChildrenIgnored(t *testing.T) {
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "on", Body: result(status.OK, "fine")},
			{Tag: "off", Body: result(status.Critical, "never runs"), Disabled: true},
		},
	})
	newExecutor().Execute(context.Background(), root)

	if root.Status() != status.OK || root.Output().Text() != "[+on fine]" {
		t.Errorf("disabled child should be skipped, got %s", root)
	}

	allOff := build(t, plugin.Spec{
		Tag:      "main",
		Children: []plugin.Spec{{Tag: "off", Body: result(status.OK, "x"), Disabled: true}},
	})
	newExecutor().Execute(context.Background(), allOff)
	if allOff.Status() != status.Unknown || allOff.Output().Text() != NoEnabledPlugins {
		t.Errorf("expected UNKNOWN %q, got %s", NoEnabledPlugins, allOff)
	}
}

func TestExecute_ResetsBetweenRuns(t *testing.T) {
	calls := 0
	root := build(t, plugin.Spec{Tag: "main", Body: func(ctx context.Context, n *plugin.Node) error {
		calls++
		if calls == 1 {
			n.SetResult(status.OK, "first")
			n.Perfdata().Set("a", 1, nil)
			return nil
		}
		return errors.New("second run fails")
	}})

	e := newExecutor()
	e.Execute(context.Background(), root)
	e.Execute(context.Background(), root)

	if root.Status() != status.Unknown || root.Perfdata().Len() != 0 {
		t.Errorf("second run should start from a clean result, got %s with %d metrics", root, root.Perfdata().Len())
	}
}

func TestExecute_Benchmark(t *testing.T) {
	root := build(t, plugin.Spec{Tag: "main", Benchmark: true, Body: result(status.OK, "fast")})
	newExecutor().Execute(context.Background(), root)

	m, ok := root.Perfdata().Get("main" + BenchmarkSuffix)
	if !ok {
		t.Fatal("expected timing metric")
	}
	if m.UOM != "s" {
		t.Errorf("expected seconds, got %q", m.UOM)
	}
}

func TestExecute_CallbackPanicIsContained(t *testing.T) {
	var buf strings.Builder
	logger := logging.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logging.LevelInfo)

	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "a", Body: func(ctx context.Context, n *plugin.Node) error { return errors.New("down") }},
			{Tag: "b", Body: result(status.OK, "fine")},
		},
	})
	e := New()
	e.SetLogger(logger)
	e.OnNodeStart = func(*plugin.Node) { panic("start") }
	e.OnNodeError = func(*plugin.Node, error) { panic("error") }
	e.OnNodeComplete = func(*plugin.Node, time.Duration) { panic("complete") }

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("callback panic escaped Execute: %v", r)
			}
		}()
		e.Execute(context.Background(), root)
	}()

	if root.Status() != status.Unknown {
		t.Errorf("expected UNKNOWN from the failing child, got %s", root.Status())
	}
	b, _ := root.Child("b")
	if b.Status() != status.OK || b.Output().Text() != "fine" {
		t.Errorf("sibling result lost: %s", b)
	}
	for _, want := range []string{"panic=start", "panic=error", "panic=complete"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in log, got %q", want, buf.String())
		}
	}
}

func TestExecute_DebugLogsArgs(t *testing.T) {
	var buf strings.Builder
	logger := logging.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logging.LevelInfo)

	e := New()
	e.SetLogger(logger)
	root := build(t, plugin.Spec{Tag: "main", Debug: true, Body: result(status.OK, "x")})
	root.SetArg("warn", 80)
	e.Execute(context.Background(), root)

	if !strings.Contains(buf.String(), "plugin_args args=warn:80 plugin=main") {
		t.Errorf("expected argument log, got %q", buf.String())
	}
}

func TestRunStandalone(t *testing.T) {
	otherRan := false
	root := build(t, plugin.Spec{
		Tag: "main",
		Children: []plugin.Spec{
			{Tag: "fs", Children: []plugin.Spec{{Tag: "root", Body: result(status.Critical, "full")}}},
			{Tag: "other", Body: func(ctx context.Context, n *plugin.Node) error {
				otherRan = true
				return nil
			}},
		},
	})

	e := newExecutor()
	n, err := e.RunStandalone(context.Background(), root, "fs.root")
	if err != nil {
		t.Fatal(err)
	}
	if n.Status() != status.Critical || otherRan {
		t.Errorf("expected only fs.root to run, got %s (other ran: %v)", n, otherRan)
	}

	abs, err := e.RunStandalone(context.Background(), root, "main.fs.root")
	if err != nil {
		t.Fatalf("absolute path: %v", err)
	}
	if abs != n {
		t.Errorf("main.fs.root resolved to %s, want %s", abs.Path(), n.Path())
	}
	if self, err := e.RunStandalone(context.Background(), root, "main"); err != nil || self != root {
		t.Errorf("root tag should resolve to the root, got %v, %v", self, err)
	}

	_, err = e.RunStandalone(context.Background(), root, "fs.nope")
	var unknown *plugin.UnknownTagError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownTagError, got %v", err)
	}
}

func TestRun_ReturnsRootStatus(t *testing.T) {
	root := build(t, plugin.Spec{
		Tag:      "main",
		Children: []plugin.Spec{{Tag: "a", Body: result(status.Warning, "meh")}},
	})
	if got := newExecutor().Run(context.Background(), root); got != status.Warning {
		t.Errorf("expected WARNING, got %s", got)
	}
}
