package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Fatalf("empty config reported enabled")
	}
	if !(Config{Dir: "/tmp/x"}).Enabled() {
		t.Fatalf("dir config not enabled")
	}
	if !(Config{StderrPath: "e.log"}).Enabled() {
		t.Fatalf("stderr-only config not enabled")
	}
}

func TestWritersDefaultPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	c := Config{Dir: dir}
	outW, errW, err := c.Writers("web")
	if err != nil {
		t.Fatalf("writers: %v", err)
	}
	if outW == nil || errW == nil {
		t.Fatalf("expected both writers for dir config")
	}
	defer func() { _ = outW.Close(); _ = errW.Close() }()

	if _, err := outW.Write([]byte("hello stdout\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "web.stdout.log"))
	if err != nil {
		t.Fatalf("capture file missing: %v", err)
	}
	if !strings.Contains(string(b), "hello stdout") {
		t.Fatalf("capture content: %q", b)
	}
}

func TestWritersExplicitPathOverridesDir(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "custom.log")
	c := Config{Dir: dir, StdoutPath: explicit}
	outW, _, err := c.Writers("ignored")
	if err != nil {
		t.Fatalf("writers: %v", err)
	}
	defer func() { _ = outW.Close() }()
	if _, err := outW.Write([]byte("x\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(explicit); err != nil {
		t.Fatalf("explicit path not used: %v", err)
	}
}

func TestWritersPartialConfig(t *testing.T) {
	c := Config{StderrPath: filepath.Join(t.TempDir(), "err.log")}
	outW, errW, err := c.Writers("p")
	if err != nil {
		t.Fatalf("writers: %v", err)
	}
	if outW != nil {
		t.Fatalf("stdout writer without destination")
	}
	if errW == nil {
		t.Fatalf("stderr writer missing")
	}
	_ = errW.Close()
}

func TestRotationDefaults(t *testing.T) {
	if valOr(0, DefaultMaxSizeMB) != DefaultMaxSizeMB {
		t.Fatalf("zero should take default")
	}
	if valOr(-1, DefaultMaxBackups) != DefaultMaxBackups {
		t.Fatalf("negative should take default")
	}
	if valOr(42, DefaultMaxAgeDays) != 42 {
		t.Fatalf("explicit value overridden")
	}
}

func TestColorTextHandlerDecoratesLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := slog.New(h)
	l.Warn("disk almost full")
	out := buf.String()
	if !strings.Contains(out, "\033[33m") || !strings.Contains(out, ansiReset) {
		t.Fatalf("missing ANSI color codes: %q", out)
	}
	if !strings.Contains(out, "disk almost full") {
		t.Fatalf("message lost: %q", out)
	}
}

func TestColorTextHandlerUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.Level(-16)})
	r := slog.NewRecord(time.Now(), slog.Level(-16), "trace msg", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(buf.String(), "trace msg") {
		t.Fatalf("message lost: %q", buf.String())
	}
}
