package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/tomjaguarpaw/process/internal/proc"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/cat/tr on Unix-like systems")
	}
}

func shellChild(script string) BuildConfig {
	return func(childIn, childOut string) proc.Config {
		return proc.Config{
			Command: "sh",
			Args:    []string{"-c", fmt.Sprintf(script, childIn, childOut)},
		}
	}
}

func TestRunRoundTrip(t *testing.T) {
	requireUnix(t)
	build := shellChild(`cat <&%s | tr a-z A-Z >&%s`)
	st, out, err := Run(context.Background(),
		build,
		func(w io.Writer) error {
			_, err := io.WriteString(w, "hello channel\n")
			return err
		},
		func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !st.Success() {
		t.Fatalf("child failed: %v", st)
	}
	if got := strings.TrimSpace(string(out)); got != "HELLO CHANNEL" {
		t.Fatalf("round trip: got %q", got)
	}
}

func TestRunBinarySafe(t *testing.T) {
	requireUnix(t)
	payload := []byte("a\x00b\r\nc\xff")
	build := shellChild(`cat <&%s >&%s`)
	st, out, err := Run(context.Background(),
		build,
		func(w io.Writer) error {
			_, err := w.Write(payload)
			return err
		},
		func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !st.Success() {
		t.Fatalf("child failed: %v", st)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("payload corrupted: got %q want %q", out, payload)
	}
}

func TestRunLargeExchangeNoDeadlock(t *testing.T) {
	requireUnix(t)
	// Well past any pipe buffer in both directions; sequencing the writer
	// before the reader would wedge here.
	payload := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	build := shellChild(`cat <&%s >&%s`)
	st, out, err := Run(context.Background(),
		build,
		func(w io.Writer) error {
			_, err := w.Write(payload)
			return err
		},
		func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !st.Success() {
		t.Fatalf("child failed: %v", st)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("exchange mismatch: %d bytes in, %d out", len(payload), len(out))
	}
}

func TestRunChildIgnoresInput(t *testing.T) {
	requireUnix(t)
	// The child closes its read end without consuming anything; the writer
	// must hit a broken pipe instead of blocking forever.
	payload := bytes.Repeat([]byte("x"), 256*1024)
	build := shellChild(`exec %[1]s<&-; echo done >&%[2]s`)
	done := make(chan struct{})
	var st proc.Status
	var out []byte
	var err error
	go func() {
		defer close(done)
		st, out, err = Run(context.Background(),
			build,
			func(w io.Writer) error {
				_, werr := w.Write(payload)
				return werr
			},
			func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
		)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("exchange hung on unread input")
	}
	if !errors.Is(err, syscall.EPIPE) {
		t.Fatalf("expected broken-pipe from writer, got %v", err)
	}
	if !st.Success() {
		t.Fatalf("child failed: %v", st)
	}
	if got := strings.TrimSpace(string(out)); got != "done" {
		t.Fatalf("reader output: %q", got)
	}
}

func TestRunSpawnFailureClosesEndpoints(t *testing.T) {
	build := func(childIn, childOut string) proc.Config {
		return proc.Config{Command: "definitely-not-a-real-binary-5a9c"}
	}
	_, _, err := Run(context.Background(),
		build,
		func(w io.Writer) error { return nil },
		func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
	)
	var se *proc.SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestRunChildNonZeroExit(t *testing.T) {
	requireUnix(t)
	build := shellChild(`cat <&%s >/dev/null; echo partial >&%s; exit 9`)
	st, out, err := Run(context.Background(),
		build,
		func(w io.Writer) error {
			_, err := io.WriteString(w, "in\n")
			return err
		},
		func(r io.Reader) ([]byte, error) { return io.ReadAll(r) },
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Success() || st.Code != 9 {
		t.Fatalf("exit status: got %v want code 9", st)
	}
	if got := strings.TrimSpace(string(out)); got != "partial" {
		t.Fatalf("reader output: %q", got)
	}
}
