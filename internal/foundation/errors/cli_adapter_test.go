package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"generator", GeneratorError("lxc exited 1").Build(), 8},
		{"structure", StructureError("no parent page").Build(), 11},
		{"filesystem", FileSystemError("disk full").Build(), 11},
		{"history", HistoryError("locked").Build(), 12},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", errors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	staged := StructureError("subdirectory has no parent page").
		WithStage("assemble").
		WithCause(errors.New("network.md not found")).
		Build()

	t.Run("names stage without cause", func(t *testing.T) {
		got := NewCLIErrorAdapter(false, slog.Default()).FormatError(staged)
		if got != "Error in stage assemble: subdirectory has no parent page" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("verbose includes cause", func(t *testing.T) {
		got := NewCLIErrorAdapter(true, slog.Default()).FormatError(staged)
		if !strings.Contains(got, "network.md not found") {
			t.Errorf("expected cause in %q", got)
		}
	})

	t.Run("unclassified", func(t *testing.T) {
		got := NewCLIErrorAdapter(false, slog.Default()).FormatError(errors.New("unknown error"))
		if got != "Error: unknown error" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if got := NewCLIErrorAdapter(false, nil).FormatError(nil); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	code := adapter.Report(GeneratorError("generator not found").WithStage("generate").Build())

	if code != 8 {
		t.Errorf("expected exit code 8, got %d", code)
	}
	if !strings.Contains(out.String(), "stage generate") {
		t.Errorf("expected stage in output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "category=generator") {
		t.Errorf("expected category in logs, got %q", logs.String())
	}
}
