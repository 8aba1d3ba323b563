package traceutil

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestLoggingSystem(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelDebug, &buf)

	logger.Info("in unit called: %s", "kbd")
	logger.Debug("function name: %s", "kbd.status")
	logger.Trace("already on chain (should not appear)")
	logger.Step("analyzed kbd", "3 functions", "1 seeds")
	logger.Warning("store without address operand")
	logger.Error("propagation stopped")

	output := buf.String()

	for _, want := range []string{
		"• in unit called: kbd",
		"→ function name: kbd.status",
		"✓ analyzed kbd: 3 functions, 1 seeds",
		"⚠ store without address operand",
		"✗ propagation stopped",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "already on chain") {
		t.Error("Trace message should not appear at debug level")
	}
}

func TestLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelSilent, &buf)

	logger.Info("info")
	logger.Error("error")
	logger.Step("step")

	if buf.Len() != 0 {
		t.Errorf("silent logger wrote %q", buf.String())
	}
}

func TestLoggerWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo, &buf).WithPrefix("ioread").WithPrefix("a")

	logger.Info("hello")

	if got := buf.String(); got != "• [ioread a] hello\n" {
		t.Errorf("got %q", got)
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.Level() != LogLevelSilent {
		t.Errorf("default logger level = %v, want silent", l.Level())
	}

	if l := FromContext(nil); l == nil {
		t.Error("FromContext(nil) returned nil")
	}

	logger := NewLogger(LogLevelTrace, &bytes.Buffer{})
	if l := FromContext(WithLogger(context.Background(), logger)); l != logger {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"", LogLevelInfo, false},
		{"info", LogLevelInfo, false},
		{"Debug", LogLevelDebug, false},
		{" trace ", LogLevelTrace, false},
		{"quiet", LogLevelSilent, false},
		{"loud", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if LogLevelDebug.String() != "debug" {
		t.Errorf("LogLevelDebug.String() = %q", LogLevelDebug.String())
	}
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo, &buf)
	ctx := WithLogger(context.Background(), logger)

	tracker := NewProgressTracker(ctx, "indexing users", 20)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Update(fmt.Sprintf("fn%d", i))
		}(i)
	}
	wg.Wait()
	tracker.Complete()

	output := buf.String()
	if !strings.Contains(output, "Starting indexing users (20 items)") {
		t.Errorf("start message not found:\n%s", output)
	}
	if strings.Count(output, "indexing users complete") != 1 {
		t.Errorf("want exactly one completion message:\n%s", output)
	}
}
