package proc

import (
	"errors"
	"os"
)

// StdioMode selects how one standard stream of the child is connected.
type StdioMode int

const (
	// ModeInherit shares the parent's own stream with the child.
	ModeInherit StdioMode = iota
	// ModePipe allocates a pipe; the parent keeps one end, the child
	// inherits the other.
	ModePipe
	// ModeFile connects the stream to a caller-supplied open file.
	ModeFile
	// ModeNull connects the stream to the null device.
	ModeNull
)

// Stdio is the directive for a single standard stream.
type Stdio struct {
	Mode StdioMode
	// File is the caller-supplied descriptor for ModeFile. Ownership stays
	// with the caller; Spawn never closes it.
	File *os.File
}

func Inherit() Stdio { return Stdio{Mode: ModeInherit} }

func Pipe() Stdio { return Stdio{Mode: ModePipe} }

func UseFile(f *os.File) Stdio { return Stdio{Mode: ModeFile, File: f} }

func Null() Stdio { return Stdio{Mode: ModeNull} }

// Config describes everything needed to spawn one child process. It is
// passed to Spawn by value and never mutated afterwards.
type Config struct {
	Command string
	Args    []string

	// Dir is the working directory; empty inherits the parent's.
	Dir string
	// Env is the complete child environment as KEY=VALUE pairs. nil
	// inherits the parent's environment.
	Env []string

	Stdin  Stdio
	Stdout Stdio
	Stderr Stdio

	// NewProcessGroup places the child in its own process group so signals
	// sent to the parent's group do not automatically reach it.
	NewProcessGroup bool
	// NewSession starts the child in a new session (setsid). Implies a new
	// process group. No-op on Windows.
	NewSession bool
	// NewConsole gives the child its own console on Windows. No-op on
	// POSIX. At most one of NewConsole and DetachConsole may be set.
	NewConsole bool
	// DetachConsole detaches the child from the parent's console on
	// Windows. No-op on POSIX.
	DetachConsole bool

	// DelegateInterrupt suppresses the parent's interactive interrupt
	// handling while the child runs and forwards interrupts to the child,
	// which is expected to be their sole recipient. Requires
	// NewProcessGroup or NewSession.
	DelegateInterrupt bool

	// ExtraFiles are additional descriptors inherited by the child beyond
	// stdio, occupying fd 3 and up on POSIX. Descriptors not listed here
	// are closed across exec. Ownership stays with the caller.
	ExtraFiles []*os.File
	// ExtraHandles are additional inheritable handle values for the child
	// on Windows, where descriptor-table inheritance is per-handle rather
	// than positional. Ignored on POSIX.
	ExtraHandles []uintptr
}

// Validate checks the platform-independent invariants of the configuration.
func (c *Config) Validate() error {
	if c.Command == "" {
		return errors.New("empty command")
	}
	if c.NewConsole && c.DetachConsole {
		return errors.New("NewConsole and DetachConsole are mutually exclusive")
	}
	if c.DelegateInterrupt && !c.NewProcessGroup && !c.NewSession {
		return errors.New("DelegateInterrupt requires NewProcessGroup or NewSession")
	}
	for _, s := range []Stdio{c.Stdin, c.Stdout, c.Stderr} {
		if s.Mode == ModeFile && s.File == nil {
			return errors.New("ModeFile directive without a file")
		}
	}
	return nil
}

// Pipes holds the parent-side endpoints of pipes created by Spawn for
// streams configured with ModePipe. Fields for other modes are nil. Each
// endpoint is exclusively owned by the caller and must be closed exactly
// once; Close is idempotent per endpoint.
type Pipes struct {
	Stdin  *os.File // write end of the child's stdin
	Stdout *os.File // read end of the child's stdout
	Stderr *os.File // read end of the child's stderr
}

// Close closes all remaining parent-side endpoints. A leaked open write end
// keeps the opposite read end from ever observing end-of-stream.
func (p *Pipes) Close() error {
	var first error
	for _, f := range []**os.File{&p.Stdin, &p.Stdout, &p.Stderr} {
		if *f != nil {
			if err := (*f).Close(); err != nil && first == nil {
				first = err
			}
			*f = nil
		}
	}
	return first
}
