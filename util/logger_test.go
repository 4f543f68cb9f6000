package util

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3) // debug level
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Error("e")
	l.Warn("w")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), output)
	}

	wantPrefixes := []string{"[ERR]", "[WRN]", "[INF]", "[VRB]", "[DBG]"}
	for i, prefix := range wantPrefixes {
		if !strings.Contains(lines[i], prefix) {
			t.Errorf("line %d %q missing prefix %q", i, lines[i], prefix)
		}
	}
}

func TestLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(0) // quiet
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Info("should not appear")
	l.Verbose("should not appear")
	l.Debug("should not appear")
	l.Error("always appears")

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 line in quiet mode, got %d:\n%s", len(lines), output)
	}
}

func TestLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(true)

	l.Info("test")

	output := buf.String()
	// Timestamp format is "HH:MM:SS.mmm"
	if !strings.Contains(output, ":") || len(output) < 15 {
		t.Errorf("expected timestamp prefix, got %q", output)
	}
}

func TestLogger_WarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1) // normal
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Warn("warning message")

	if !strings.Contains(buf.String(), "[WRN]") {
		t.Errorf("expected [WRN] prefix, got %q", buf.String())
	}
}

func TestLogger_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3)
	l.SetOutput(&buf)
	l.SetTimestamps(false)
	l.Mask("s3cr3t-key")
	l.Mask("")

	l.Debug("GET /v1/outbound X-Key=%s", "s3cr3t-key")

	out := buf.String()
	if strings.Contains(out, "s3cr3t-key") {
		t.Errorf("secret leaked into log: %q", out)
	}
	if !strings.Contains(out, "********ey") {
		t.Errorf("expected redacted key in %q", out)
	}
}

// TestLogger_ShortSecretsNotMasked verifies a very short key does not
// mangle addresses and ports in the log.
func TestLogger_ShortSecretsNotMasked(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3)
	l.SetOutput(&buf)
	l.SetTimestamps(false)
	l.Mask("1")
	l.Mask("6171")

	l.Debug("→ GET http://127.0.0.1:6171/v1/outbound")
	if !strings.Contains(buf.String(), "127.0.0.1:6171") {
		t.Errorf("address was mangled: %q", buf.String())
	}
}

// TestLogger_SetOutputConcurrent verifies SetOutput is safe while other
// goroutines log.  Run with -race.
func TestLogger_SetOutputConcurrent(t *testing.T) {
	l := NewLogger(1)
	l.SetOutput(io.Discard)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			l.Info("line %d", i)
		}
	}()
	for i := 0; i < 100; i++ {
		l.SetOutput(io.Discard)
	}
	<-done
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	if l.Level() != LogQuiet {
		t.Errorf("Level() = %d, want %d", l.Level(), LogQuiet)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abcd", "****"},
		{"abcdef", "****ef"},
	}
	for _, tt := range tests {
		if got := Redact(tt.in); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
