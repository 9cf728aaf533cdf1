//go:build !windows

package proc

import "syscall"

// osWait performs the single blocking reap for the process. It is only ever
// reached by the one goroutine holding the handle's reap role.
func osWait(h *Handle) Status {
	var ws syscall.WaitStatus
	for {
		_, err := syscall.Wait4(h.pid, &ws, 0, nil)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			// ECHILD here would mean something outside this package reaped
			// our child; report an opaque failure rather than hanging.
			return Status{Code: -1}
		}
		if ws.Exited() || ws.Signaled() {
			return statusFromWait(ws)
		}
		// Stopped/continued notifications are not terminal; keep waiting.
	}
}

// osPoll probes for termination without blocking, reaping the zombie when
// the process has already exited.
func osPoll(h *Handle) (Status, bool) {
	var ws syscall.WaitStatus
	for {
		pid, err := syscall.Wait4(h.pid, &ws, syscall.WNOHANG, nil)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return Status{Code: -1}, true
		}
		if pid == 0 {
			return Status{}, false
		}
		if ws.Exited() || ws.Signaled() {
			return statusFromWait(ws), true
		}
	}
}

func statusFromWait(ws syscall.WaitStatus) Status {
	if ws.Signaled() {
		sig := ws.Signal()
		return Status{Code: 128 + int(sig), Signal: sig.String()}
	}
	return Status{Code: ws.ExitStatus()}
}
