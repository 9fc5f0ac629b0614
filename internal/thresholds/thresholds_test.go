package thresholds

import (
	"testing"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/status"
)

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("10:20:30:40")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if *b.OK != 10 || *b.Warning != 20 || *b.Critical != 30 || *b.Unknown != 40 {
		t.Errorf("unexpected bounds %s", b)
	}

	b, err = ParseBounds("::80:")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if b.OK != nil || b.Warning != nil || *b.Critical != 80 || b.Unknown != nil {
		t.Errorf("unexpected bounds %s", b)
	}
	if b.String() != "::80:" {
		t.Errorf("expected ::80:, got %s", b.String())
	}

	for _, bad := range []string{"1:2:3:4:5", "a:b", "1:x:3:4"} {
		if _, err := ParseBounds(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestIsThreshold(t *testing.T) {
	for _, s := range []string{"10:20:30:40", "::80:90", ":5", "1.5:2.5"} {
		if !IsThreshold(s) {
			t.Errorf("expected %q to be a threshold", s)
		}
	}
	for _, s := range []string{"80", "fine", "a:b:c:d", "1:2:3:4:5"} {
		if IsThreshold(s) {
			t.Errorf("expected %q not to be a threshold", s)
		}
	}
}

func TestBounds_Evaluate(t *testing.T) {
	b, _ := ParseBounds(":80:90:")
	tests := []struct {
		value float64
		want  status.Status
	}{
		{10, status.OK},
		{79.9, status.OK},
		{80, status.Warning},
		{89, status.Warning},
		{90, status.Critical},
		{1000, status.Critical},
	}
	for _, tt := range tests {
		if got := b.Evaluate(tt.value); got != tt.want {
			t.Errorf("Evaluate(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}

	withUnknown, _ := ParseBounds(":1:2:3")
	if withUnknown.Evaluate(3) != status.Unknown {
		t.Error("expected UNKNOWN at the unknown bound")
	}
	if (Bounds{}).Evaluate(1e9) != status.OK {
		t.Error("unset bounds never trigger")
	}
}

func TestBounds_Fields(t *testing.T) {
	b, _ := ParseBounds(":80::")
	f := b.Fields()
	if f["warn"] != 80.0 {
		t.Errorf("expected warn 80, got %v", f["warn"])
	}
	if _, ok := f["crit"]; ok {
		t.Error("unset critical should not produce a crit field")
	}
}

func TestFromValue(t *testing.T) {
	b, _ := ParseBounds("::1:")
	if got, ok := FromValue(b); !ok || *got.Critical != 1 {
		t.Error("expected Bounds value to pass through")
	}
	if got, ok := FromValue(&b); !ok || *got.Critical != 1 {
		t.Error("expected *Bounds value to pass through")
	}
	if got, ok := FromValue("::5:"); !ok || *got.Critical != 5 {
		t.Error("expected threshold string to parse")
	}
	if _, ok := FromValue(42); ok {
		t.Error("expected non-threshold value to be rejected")
	}
}

func TestParse_JSON(t *testing.T) {
	m, err := Parse(`{"disk": ":80:90:", "fs": {"root": ":70:85:", "note": "ignored"}, "thresholds": ":1:2:", "count": 3}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	disk, ok := args.AsMap(m["disk"])
	if !ok {
		t.Fatalf("expected disk scope, got %v", m["disk"])
	}
	if b := disk[Key].(Bounds); *b.Warning != 80 || *b.Critical != 90 {
		t.Errorf("unexpected disk bounds %s", b)
	}

	fs, _ := args.AsMap(m["fs"])
	root, _ := args.AsMap(fs["root"])
	if b := root[Key].(Bounds); *b.Warning != 70 {
		t.Errorf("unexpected fs.root bounds %s", b)
	}
	if _, ok := fs["note"]; ok {
		t.Error("non-threshold strings should be ignored")
	}

	if b := m[Key].(Bounds); *b.Critical != 2 {
		t.Errorf("unexpected top-level bounds %s", b)
	}
	if _, ok := m["count"]; ok {
		t.Error("numbers should be ignored")
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, doc := range []string{`{"disk": `, `["::1:2"]`, `"::1:2"`} {
		if _, err := Parse(doc); err == nil {
			t.Errorf("expected error for %s", doc)
		}
	}
}
