package proc

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomjaguarpaw/process/internal/metrics"
)

type waitState int

const (
	stateRunning waitState = iota
	statePolling // transient claim for a non-blocking probe
	stateReaping // durable claim, a blocking reap is in flight
	stateExited
)

// Handle is the shareable record of one running or exited child process. It
// is safe for concurrent use from any number of goroutines. The exit-status
// cell is guarded by a single mutex; exactly one goroutine ever performs the
// underlying OS wait, and every other caller observes the published result.
//
// A running Handle must not be abandoned without calling Wait, Poll to
// completion, or Detach; otherwise the OS-level process record leaks until
// the parent exits.
type Handle struct {
	pid   int
	proc  *os.Process
	group bool  // child leads its own process group
	born  int64 // process start time stamp, guards against PID reuse

	mu     sync.Mutex
	state  waitState
	status Status
	done   chan struct{} // closed once status is published

	// reapWanted records a waiter that arrived while a non-blocking probe
	// held the claim; the probe's release path starts the blocking reaper on
	// their behalf so the claim is never dropped with a waiter parked.
	reapWanted bool

	spawnedAt time.Time

	delegator   *delegator
	interrupted atomic.Bool

	// reaps counts OS-level wait attempts issued for this process.
	// Structurally it can never exceed one.
	reaps atomic.Int32
}

func newHandle(p *os.Process, cfg Config) *Handle {
	return &Handle{
		pid:       p.Pid,
		proc:      p,
		group:     cfg.NewProcessGroup || cfg.NewSession,
		born:      processStartTime(p.Pid),
		spawnedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Pid returns the child's OS process identifier. ok is false once the
// process has been fully reaped, after which the identifier may already
// belong to an unrelated process.
func (h *Handle) Pid() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateExited {
		return 0, false
	}
	return h.pid, true
}

// Wait blocks until the process has terminated and returns its status. It
// is idempotent and safe to call from any number of goroutines; every call
// observes the identical Status. Cancelling ctx abandons only this caller:
// the reap, once claimed, completes on a background goroutine so the OS
// resource is always reclaimed and later Wait calls still succeed.
func (h *Handle) Wait(ctx context.Context) (Status, error) {
	h.ensureReaper()
	select {
	case <-h.done:
		h.mu.Lock()
		st := h.status
		h.mu.Unlock()
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Poll reports the terminal status without blocking. ok is false while the
// process is still running or while another goroutine's blocking wait is in
// flight; Poll never issues an OS wait that could race it.
func (h *Handle) Poll() (Status, bool) {
	if !h.claimPoll() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.state == stateExited {
			return h.status, true
		}
		return Status{}, false
	}

	st, exited := osPoll(h)
	if !exited {
		h.finishPoll()
		return Status{}, false
	}
	h.reaps.Add(1)
	return h.publish(st), true
}

// claimPoll takes the transient claim for one non-blocking probe. It fails
// when the status is already published or any claim is held.
func (h *Handle) claimPoll() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateRunning {
		return false
	}
	h.state = statePolling
	return true
}

// finishPoll releases the transient claim after a probe that found the
// process still running. A waiter that parked during the probe is owed a
// reaper; hand the claim straight over instead of dropping it.
func (h *Handle) finishPoll() {
	h.mu.Lock()
	wanted := h.reapWanted
	h.reapWanted = false
	if wanted {
		h.state = stateReaping
	} else {
		h.state = stateRunning
	}
	h.mu.Unlock()
	if wanted {
		go func() {
			h.reaps.Add(1)
			h.publish(osWait(h))
		}()
	}
}

// Detach abandons interest in the result while guaranteeing the process is
// still reaped: if nobody has claimed the reap yet, a background goroutine
// takes it. Wait and Poll remain valid after Detach.
func (h *Handle) Detach() {
	h.ensureReaper()
}

// Alive reports whether the child process is still running. It never reaps;
// a terminated-but-unreaped child reports false. The start-time stamp
// recorded at spawn guards against the PID having been reused.
func (h *Handle) Alive() bool {
	h.mu.Lock()
	if h.state == stateExited {
		h.mu.Unlock()
		return false
	}
	pid := h.pid
	born := h.born
	h.mu.Unlock()
	if !processAlive(pid) {
		return false
	}
	if born != 0 {
		if now := processStartTime(pid); now != 0 && now != born {
			return false
		}
	}
	return true
}

// Terminate asks the process (or its group) to exit and escalates to an
// unconditional kill when it has not terminated within grace. The reap is
// driven in the background; Terminate returns once the status is published
// or the post-kill grace elapses.
func (h *Handle) Terminate(grace time.Duration) error {
	if _, done := h.Poll(); done {
		return nil
	}
	h.ensureReaper()
	if err := terminateProcess(h.pid, h.group); err != nil {
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(grace):
	}
	return h.Kill()
}

// Kill forcibly terminates the process (or its group) and waits briefly for
// the reap to complete.
func (h *Handle) Kill() error {
	if _, done := h.Poll(); done {
		return nil
	}
	h.ensureReaper()
	if err := killProcess(h.pid, h.group); err != nil {
		return err
	}
	select {
	case <-h.done:
	case <-time.After(200 * time.Millisecond):
		// best-effort; the background reaper finishes on its own
	}
	return nil
}

// ensureReaper claims the reap role if it is unclaimed and starts the
// blocking OS wait on its own goroutine. The goroutine outlives any caller,
// so a cancelled Wait never leaves the process un-reaped.
func (h *Handle) ensureReaper() {
	h.mu.Lock()
	switch h.state {
	case statePolling:
		// A probe holds the claim right now; it must not be raced with a
		// second OS wait. finishPoll starts the reaper for us instead.
		h.reapWanted = true
		h.mu.Unlock()
		return
	case stateReaping, stateExited:
		h.mu.Unlock()
		return
	}
	h.state = stateReaping
	h.mu.Unlock()
	go func() {
		h.reaps.Add(1)
		h.publish(osWait(h))
	}()
}

// publish stores the terminal status exactly once, wakes all waiters and
// releases the interrupt delegator. It is only ever reached by the single
// goroutine holding the reap role.
func (h *Handle) publish(st Status) Status {
	if h.interrupted.Load() {
		st.Interrupted = true
	}
	h.mu.Lock()
	h.status = st
	h.state = stateExited
	d := h.delegator
	h.delegator = nil
	close(h.done)
	h.mu.Unlock()
	if d != nil {
		d.release()
	}
	metrics.IncReap(outcomeLabel(st))
	metrics.ObserveWaitDuration(time.Since(h.spawnedAt).Seconds())
	metrics.DecRunning()
	return st
}

func outcomeLabel(st Status) string {
	switch {
	case st.Interrupted:
		return "interrupted"
	case st.Success():
		return "success"
	default:
		return "failure"
	}
}
