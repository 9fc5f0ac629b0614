package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// ErrNoBody is reported for a leaf plugin declared without check logic.
var ErrNoBody = errors.New("plugin has no body")

// ExecutionError represents a failure inside a plugin body
type ExecutionError struct {
	Path          string
	Origin        string // file:line where the failure surfaced
	OriginalError error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("plugin '%s' failed at %s: %v", e.Path, e.Origin, e.OriginalError)
}

// Unwrap returns the original error for error unwrapping
func (e *ExecutionError) Unwrap() error {
	return e.OriginalError
}

// Diagnostic is the short text shown as the plugin's output.
func (e *ExecutionError) Diagnostic() string {
	return fmt.Sprintf("%s: %v", e.Origin, e.OriginalError)
}

// PanicError represents a panic recovered from a plugin body
type PanicError struct {
	Value interface{}
	Stack []byte
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// runBody invokes n's body. Returned errors and panics come back as *ExecutionError.
func runBody(ctx context.Context, n *plugin.Node) (execErr error) {
	body := n.Body()
	if body == nil {
		return &ExecutionError{Path: n.Path(), Origin: n.Path(), OriginalError: ErrNoBody}
	}

	defer func() {
		if r := recover(); r != nil {
			execErr = &ExecutionError{
				Path:          n.Path(),
				Origin:        panicOrigin(),
				OriginalError: &PanicError{Value: r, Stack: debug.Stack()},
			}
		}
	}()

	if err := body(ctx, n); err != nil {
		return &ExecutionError{Path: n.Path(), Origin: bodyOrigin(body), OriginalError: err}
	}
	return nil
}

// contain folds a body failure into n's result.
func contain(n *plugin.Node, err error) {
	n.SetStatus(status.Unknown)
	var ee *ExecutionError
	if errors.As(err, &ee) {
		n.SetOutput(ee.Diagnostic())
	} else {
		n.SetOutput(err.Error())
	}
	n.SetPayload(err)
}

// bodyOrigin returns file:line of the body function's declaration.
func bodyOrigin(body plugin.Body) string {
	pc := reflect.ValueOf(body).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	file, line := fn.FileLine(fn.Entry())
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// panicOrigin returns file:line of the frame that panicked. It must be called
// from the deferred recover.
func panicOrigin() string {
	pcs := make([]uintptr, 64)
	count := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:count])

	sawPanic := false
	for {
		f, more := frames.Next()
		if strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Function, "internal/runtime/") {
			if f.Function == "runtime.gopanic" {
				sawPanic = true
			}
		} else if sawPanic {
			return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		}
		if !more {
			break
		}
	}
	return "unknown"
}
