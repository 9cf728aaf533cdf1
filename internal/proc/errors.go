package proc

import (
	"errors"
	"io/fs"
	"os/exec"
)

// SpawnError wraps any failure to create a child process. All descriptors
// allocated during the attempt are released before it is returned.
type SpawnError struct {
	Path string // the command that failed to spawn
	Err  error  // underlying OS error
}

func (e *SpawnError) Error() string { return "spawn " + e.Path + ": " + e.Err.Error() }

func (e *SpawnError) Unwrap() error { return e.Err }

// NotFound reports whether the failure was caused by the target executable
// being missing or not executable, as opposed to any other OS-level failure.
func (e *SpawnError) NotFound() bool {
	return errors.Is(e.Err, exec.ErrNotFound) || errors.Is(e.Err, fs.ErrNotExist)
}

func spawnError(path string, err error) *SpawnError {
	return &SpawnError{Path: path, Err: err}
}
