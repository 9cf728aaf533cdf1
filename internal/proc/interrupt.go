package proc

import (
	"os"
	"os/signal"

	"github.com/tomjaguarpaw/process/internal/metrics"
)

// delegator brackets one delegation-enabled child. While held it diverts
// the parent's interactive interrupt handling: interrupts are swallowed in
// the parent and forwarded to the child's process group, which is expected
// to be their sole recipient. Acquisition happens before the child starts
// and release is guaranteed on every exit path, because publish runs it
// exactly once when the terminal status lands.
type delegator struct {
	ch   chan os.Signal
	quit chan struct{}
	h    *Handle
}

// acquireInterrupt installs the diversion. Registering the channel disables
// the runtime's default terminate-on-interrupt behavior until release.
func acquireInterrupt() *delegator {
	d := &delegator{
		ch:   make(chan os.Signal, 1),
		quit: make(chan struct{}),
	}
	signal.Notify(d.ch, os.Interrupt)
	return d
}

// bind attaches the delegator to the spawned child and starts forwarding.
func (d *delegator) bind(h *Handle) {
	d.h = h
	h.delegator = d
	go d.forward()
}

func (d *delegator) forward() {
	for {
		select {
		case <-d.ch:
			// Mark first: the child may die from the forwarded interrupt
			// before this goroutine runs again, and the reaper must already
			// see the delegation outcome when it publishes.
			d.h.interrupted.Store(true)
			_ = forwardInterrupt(d.h.pid, d.h.group)
			metrics.IncDelegatedInterrupt()
		case <-d.quit:
			return
		}
	}
}

// release restores the parent's previous interrupt disposition and stops
// the forwarder. Safe to call when bind never happened (spawn failure).
func (d *delegator) release() {
	signal.Stop(d.ch)
	close(d.quit)
}
