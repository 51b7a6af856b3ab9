package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentStorage, Output: &buf})
	l.Info("saved", FieldKey, "doc")

	out := buf.String()
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "key=doc") {
		t.Fatalf("unexpected output: %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentAuth).Warn("denied")
	if !strings.Contains(buf.String(), "component=auth") {
		t.Fatalf("component not replaced: %q", buf.String())
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentApp, Output: &buf})
	l.Debug("hidden")
	l.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"component":"app"`) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{"WARN", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard().WithComponent(ComponentCLI)
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("logger not carried by context")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpCreate).
		WithError(errors.New("boom")).
		WithPeriod(3, 0)
	if f[FieldOperation] != OpCreate || f[FieldError] != "boom" || f[FieldMonth] != 3 {
		t.Fatalf("unexpected fields: %v", f)
	}
	if _, ok := f[FieldYear]; ok {
		t.Fatalf("zero year should be skipped")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length mismatch")
	}
}
