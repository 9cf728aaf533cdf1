package proc

import "time"

// cleanupGrace bounds how long With waits for a terminated child before
// escalating to an unconditional kill.
const cleanupGrace = 2 * time.Second

// With spawns cfg, hands the handle and pipes to fn, and guarantees cleanup
// on every exit path including panics: parent-owned descriptors are closed,
// a still-running child is terminated, and the reap always completes (in
// the background when necessary), so no zombie or descriptor outlives the
// call.
func With(cfg Config, fn func(*Handle, *Pipes) error) error {
	h, pipes, err := Spawn(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = pipes.Close()
		if _, done := h.Poll(); !done {
			_ = h.Terminate(cleanupGrace)
		}
		h.Detach()
	}()
	return fn(h, pipes)
}
