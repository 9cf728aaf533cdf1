package process

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/cat/sleep on Unix-like systems")
	}
}

func TestSpawnAndWait(t *testing.T) {
	requireUnix(t)
	h, pipes, err := Spawn(Config{Command: "sleep", Args: []string{"0.05"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer pipes.Close()
	st, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !st.Success() {
		t.Fatalf("status: %v", st)
	}
}

func TestReadAllFacade(t *testing.T) {
	requireUnix(t)
	out, err := ReadAll(context.Background(), "cat", nil, []byte("round trip"))
	if err != nil {
		t.Fatalf("readall: %v", err)
	}
	if string(out) != "round trip" {
		t.Fatalf("output: %q", out)
	}
}

func TestWithFacade(t *testing.T) {
	requireUnix(t)
	err := With(Config{Command: "cat", Stdin: Pipe(), Stdout: Pipe()}, func(h *Handle, p *Pipes) error {
		if _, err := io.WriteString(p.Stdin, "ok"); err != nil {
			return err
		}
		if err := p.Stdin.Close(); err != nil {
			return err
		}
		b, err := io.ReadAll(p.Stdout)
		if err != nil {
			return err
		}
		if string(b) != "ok" {
			return errors.New("echo mismatch")
		}
		_, err = h.Wait(context.Background())
		return err
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}
}

func TestRunWithChannelFacade(t *testing.T) {
	requireUnix(t)
	build := func(childIn, childOut string) Config {
		return Config{
			Command: "sh",
			Args:    []string{"-c", "cat <&" + childIn + " >&" + childOut},
		}
	}
	st, out, err := RunWithChannel(context.Background(),
		build,
		func(w io.Writer) error {
			_, err := io.WriteString(w, "across the boundary")
			return err
		},
		func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !st.Success() {
		t.Fatalf("status: %v", st)
	}
	if string(out) != "across the boundary" {
		t.Fatalf("output: %q", out)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []HistoryEvent
}

func (s *recordingSink) Send(_ context.Context, e HistoryEvent) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func TestNotifyReportsExit(t *testing.T) {
	requireUnix(t)
	h, pipes, err := Spawn(Config{Command: "sh", Args: []string{"-c", "exit 4"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer pipes.Close()

	sink := &recordingSink{}
	done := Notify(h, "failing", "sh -c 'exit 4'", sink)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("notify: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("notify never completed")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	e := sink.events[0]
	if e.Name != "failing" || e.ExitCode != 4 {
		t.Fatalf("event: %+v", e)
	}
	if e.PID <= 0 {
		t.Fatalf("event pid not captured before reap: %+v", e)
	}
	if !strings.Contains(e.Error, "exit status 4") {
		t.Fatalf("event error: %q", e.Error)
	}
}

func TestLoadProfileFacade(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	path := dir + "/p.toml"
	content := []byte("command = \"cat\"\nstdin = \"null\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Command != "cat" {
		t.Fatalf("command: %q", fc.Command)
	}
}

func TestRegisterMetricsFacade(t *testing.T) {
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Second registration is a no-op.
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}
