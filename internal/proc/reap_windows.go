//go:build windows

package proc

import "syscall"

const (
	SYNCHRONIZE  = 0x00100000
	WAIT_TIMEOUT = 0x00000102
)

// osWait performs the single blocking reap for the process. os.Process.Wait
// releases the kernel process object; it is only ever reached by the one
// goroutine holding the handle's reap role.
func osWait(h *Handle) Status {
	state, err := h.proc.Wait()
	if err != nil {
		return Status{Code: -1}
	}
	return Status{Code: state.ExitCode()}
}

// osPoll probes for termination without blocking. It opens its own
// SYNCHRONIZE handle for the probe so the actual reap still happens exactly
// once, through osWait.
func osPoll(h *Handle) (Status, bool) {
	hnd, err := openProcess(SYNCHRONIZE, false, uint32(h.pid))
	if err != nil {
		// Process object already gone; the blocking wait returns promptly.
		return osWait(h), true
	}
	defer func() { _ = closeHandle(hnd) }()
	ret, _, _ := procWaitForSingleObject.Call(uintptr(hnd), 0)
	if ret == WAIT_TIMEOUT {
		return Status{}, false
	}
	return osWait(h), true
}
