// Package process spawns child processes and tracks their termination with
// race-free, exactly-once reaping semantics: a handle may be waited on from
// any number of goroutines, every observer sees the same exit status, and
// cancelled waiters never leave a zombie behind. It also supports delegated
// interrupt handling and passing bidirectional communication channels into
// a child across the exec boundary.
package process

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomjaguarpaw/process/internal/channel"
	"github.com/tomjaguarpaw/process/internal/config"
	"github.com/tomjaguarpaw/process/internal/history"
	"github.com/tomjaguarpaw/process/internal/metrics"
	"github.com/tomjaguarpaw/process/internal/proc"
)

// Re-export core types for external consumers. These are aliases so
// conversions are zero-cost.

type Config = proc.Config

type Stdio = proc.Stdio

type Handle = proc.Handle

type Pipes = proc.Pipes

type Status = proc.Status

type SpawnError = proc.SpawnError

type ExitError = proc.ExitError

// Stdio directive constructors.

func Inherit() Stdio { return proc.Inherit() }
func Pipe() Stdio    { return proc.Pipe() }
func Null() Stdio    { return proc.Null() }

// UseFile connects a stream to a caller-supplied open file.
func UseFile(f *os.File) Stdio { return proc.UseFile(f) }

// Spawn creates the child process described by cfg. See proc.Spawn.
func Spawn(cfg Config) (*Handle, *Pipes, error) { return proc.Spawn(cfg) }

// With spawns cfg, runs fn, and guarantees cleanup on every exit path.
func With(cfg Config, fn func(*Handle, *Pipes) error) error { return proc.With(cfg, fn) }

// ReadAll spawns command with piped stdin/stdout, feeds it input, and
// returns its full stdout. A non-zero exit surfaces as *ExitError.
func ReadAll(ctx context.Context, command string, args []string, input []byte) ([]byte, error) {
	return proc.ReadAll(ctx, command, args, input)
}

// Channel-based communication facade.

type BuildConfig = channel.BuildConfig

// RunWithChannel passes a bidirectional channel into a child identified by
// textual endpoint tokens in its argument vector. See channel.Run.
func RunWithChannel(ctx context.Context, build BuildConfig, writer func(io.Writer) error, reader func(io.Reader) ([]byte, error)) (Status, []byte, error) {
	return channel.Run(ctx, build, writer, reader)
}

// History facade.

type HistorySink = history.Sink

type HistoryEvent = history.Event

// Notify reports the handle's terminal status to sink once the process has
// been reaped. The returned channel receives exactly one value: the sink
// error, or nil. The wait runs on a background goroutine and never blocks
// the caller.
func Notify(h *Handle, name, command string, sink HistorySink) <-chan error {
	result := make(chan error, 1)
	pid, _ := h.Pid() // capture before the reap invalidates it
	go func() {
		st, err := h.Wait(context.Background())
		if err != nil {
			result <- err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		result <- sink.Send(ctx, history.Event{
			Type:        history.EventExit,
			OccurredAt:  time.Now().UTC(),
			Name:        name,
			PID:         pid,
			Command:     command,
			ExitCode:    st.Code,
			Interrupted: st.Interrupted,
			Error:       errString(st),
		})
	}()
	return result
}

func errString(st Status) string {
	if st.Success() {
		return ""
	}
	return st.String()
}

// RunProfile is a CLI run profile loaded from a TOML or YAML file.
type RunProfile = config.FileConfig

// LoadProfile reads a run profile from path.
func LoadProfile(path string) (*RunProfile, error) { return config.Load(path) }

// Metrics helpers (public facade).

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
