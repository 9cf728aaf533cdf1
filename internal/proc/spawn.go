package proc

import (
	"errors"
	"os"
	"os/exec"

	"github.com/tomjaguarpaw/process/internal/metrics"
)

var errInvalidStdioMode = errors.New("invalid stdio mode")

// Spawn creates the child process described by cfg and returns its Handle
// together with the parent-side endpoints of any pipes it allocated. On any
// failure every descriptor allocated during the attempt is closed before the
// error is returned; the returned error is always a *SpawnError (wrapping a
// validation error when the configuration itself is invalid).
func Spawn(cfg Config) (*Handle, *Pipes, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, spawnError(cfg.Command, err)
	}

	// ok: intentional execution of a caller-supplied command
	// #nosec G204
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env
	configureSysProcAttr(cmd, cfg)

	pipes := &Pipes{}
	var childEnds []*os.File // our copies of the child's pipe ends and null devices
	closeAll := func() {
		for _, f := range childEnds {
			_ = f.Close()
		}
		childEnds = nil
		_ = pipes.Close()
	}

	var err error
	cmd.Stdin, err = resolveStdio(cfg.Stdin, os.Stdin, true, &pipes.Stdin, &childEnds)
	if err == nil {
		cmd.Stdout, err = resolveStdio(cfg.Stdout, os.Stdout, false, &pipes.Stdout, &childEnds)
	}
	if err == nil {
		cmd.Stderr, err = resolveStdio(cfg.Stderr, os.Stderr, false, &pipes.Stderr, &childEnds)
	}
	if err != nil {
		closeAll()
		metrics.IncSpawnFailure("stdio")
		return nil, nil, spawnError(cfg.Command, err)
	}

	cmd.ExtraFiles = cfg.ExtraFiles

	var d *delegator
	if cfg.DelegateInterrupt {
		d = acquireInterrupt()
	}

	if err := cmd.Start(); err != nil {
		if d != nil {
			d.release()
		}
		closeAll()
		serr := spawnError(cfg.Command, err)
		if serr.NotFound() {
			metrics.IncSpawnFailure("not_found")
		} else {
			metrics.IncSpawnFailure("os")
		}
		return nil, nil, serr
	}

	// The child owns its inherited copies now; drop ours exactly once so
	// pipe EOF propagates and nothing leaks into future children.
	for _, f := range childEnds {
		_ = f.Close()
	}
	childEnds = nil

	h := newHandle(cmd.Process, cfg)
	if d != nil {
		d.bind(h)
	}
	metrics.IncSpawn()
	metrics.IncRunning()
	return h, pipes, nil
}

// resolveStdio maps one directive to the concrete *os.File wired into the
// child. Files created here for the child's side (pipe ends, null devices)
// are recorded in childEnds for closing once the OS process exists; the
// parent-retained pipe end, if any, is stored through parentEnd.
func resolveStdio(s Stdio, inherited *os.File, isInput bool, parentEnd **os.File, childEnds *[]*os.File) (*os.File, error) {
	switch s.Mode {
	case ModeInherit:
		return inherited, nil
	case ModeFile:
		return s.File, nil
	case ModeNull:
		null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		*childEnds = append(*childEnds, null)
		return null, nil
	case ModePipe:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		if isInput {
			*childEnds = append(*childEnds, r)
			*parentEnd = w
			return r, nil
		}
		*childEnds = append(*childEnds, w)
		*parentEnd = r
		return w, nil
	}
	return nil, errInvalidStdioMode
}
