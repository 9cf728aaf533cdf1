//go:build !windows

package proc

import "syscall"

// signalProcess delivers sig to the process, or to its whole group when the
// child was spawned as a group leader.
func signalProcess(pid int, group bool, sig syscall.Signal) error {
	if group {
		return syscall.Kill(-pid, sig)
	}
	return syscall.Kill(pid, sig)
}

// terminateProcess requests a graceful exit.
func terminateProcess(pid int, group bool) error {
	return signalProcess(pid, group, syscall.SIGTERM)
}

// killProcess terminates unconditionally.
func killProcess(pid int, group bool) error {
	return signalProcess(pid, group, syscall.SIGKILL)
}

// forwardInterrupt delivers the interactive interrupt to the child on
// behalf of the delegating parent.
func forwardInterrupt(pid int, group bool) error {
	return signalProcess(pid, group, syscall.SIGINT)
}

// processAlive checks for the process without delivering a signal. A child
// that already exited but has not been reaped is a zombie on Linux; kill(0)
// still succeeds for it, so that state is checked explicitly.
func processAlive(pid int) bool {
	if syscall.Kill(pid, 0) != nil {
		return false
	}
	return !isZombie(pid)
}
