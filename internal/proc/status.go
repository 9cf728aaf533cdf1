package proc

import "strconv"

// Status describes how a child process terminated. The zero value is not a
// valid terminal status; it is only returned alongside ok=false from Poll.
type Status struct {
	// Code is the process exit code. For signal-terminated processes it is
	// 128 plus the signal number, following the shell convention.
	Code int
	// Signal holds the name of the terminating signal when the process was
	// killed rather than exiting on its own. Empty for normal exits.
	Signal string
	// Interrupted is set when the process ran with interrupt delegation
	// enabled and an interactive interrupt was forwarded to it before it
	// terminated. It reflects the delegation contract, not the raw signal
	// the OS reported.
	Interrupted bool
}

// Success reports whether the process exited normally with code zero.
func (s Status) Success() bool { return s.Code == 0 && !s.Interrupted }

func (s Status) String() string {
	if s.Interrupted {
		return "interrupted"
	}
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	if s.Code == 0 {
		return "exit status 0"
	}
	return "exit status " + strconv.Itoa(s.Code)
}

// ExitError carries a non-success Status through error returns, for callers
// like ReadAll that treat a non-zero exit as a failure.
type ExitError struct {
	Status Status
}

func (e *ExitError) Error() string { return "process failed: " + e.Status.String() }
