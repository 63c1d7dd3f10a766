package shell

import (
	"context"
	"strings"
	"testing"
)

func TestCommandRunnerValidation(t *testing.T) {
	t.Parallel()

	runner := CommandRunner{}
	if _, err := runner.Run(context.Background(), "/tmp", ""); err == nil {
		t.Fatal("expected empty command name error")
	}
	if _, err := runner.Run(context.Background(), "", "true"); err == nil {
		t.Fatal("expected empty dir error")
	}
}

func TestLimitedBufferTruncation(t *testing.T) {
	t.Parallel()

	buf := newLimitedBuffer(32)
	if _, err := buf.Write([]byte(strings.Repeat("x", 64))); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if len(out) > 32 {
		t.Fatalf("output length = %d, want <= 32", len(out))
	}
	if !strings.HasSuffix(out, "...[output truncated]") {
		t.Fatalf("missing truncation marker in %q", out)
	}
}

func TestLimitedBufferExactFit(t *testing.T) {
	t.Parallel()

	buf := newLimitedBuffer(8)
	if _, err := buf.Write([]byte("12345678")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "12345678" {
		t.Fatalf("output = %q, want %q", got, "12345678")
	}
}
