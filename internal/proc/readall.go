package proc

import (
	"context"
	"errors"
	"io"
	"syscall"
)

// ReadAll spawns command with stdin and stdout piped, feeds it input, and
// returns everything it wrote to stdout. Writing and reading run
// concurrently so a full pipe buffer can never deadlock the exchange. A
// non-zero exit surfaces as *ExitError with the output collected so far.
func ReadAll(ctx context.Context, command string, args []string, input []byte) ([]byte, error) {
	h, pipes, err := Spawn(Config{
		Command: command,
		Args:    args,
		Stdin:   Pipe(),
		Stdout:  Pipe(),
		Stderr:  Inherit(),
	})
	if err != nil {
		return nil, err
	}

	// Cancellation kills the child; its closing stdout then unblocks the
	// read below, so the exchange never outlives ctx.
	stop := context.AfterFunc(ctx, func() { _ = h.Kill() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() {
		_, werr := pipes.Stdin.Write(input)
		if cerr := pipes.Stdin.Close(); werr == nil {
			werr = cerr
		}
		// A child that exits without draining stdin is not a failure of
		// the exchange; its exit status decides that.
		if errors.Is(werr, syscall.EPIPE) {
			werr = nil
		}
		writeErr <- werr
	}()

	out, readErr := io.ReadAll(pipes.Stdout)
	_ = pipes.Stdout.Close()

	st, waitErr := h.Wait(ctx)
	if waitErr != nil {
		return out, waitErr
	}
	// Wait can beat the cancellation callback to the exit status; cancelled
	// means cancelled either way.
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if err := <-writeErr; err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return out, readErr
	}
	if !st.Success() {
		return out, &ExitError{Status: st}
	}
	return out, nil
}
