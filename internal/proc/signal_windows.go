//go:build windows

package proc

import "syscall"

var (
	kernel32                     = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess              = kernel32.NewProc("OpenProcess")
	procTerminateProcess         = kernel32.NewProc("TerminateProcess")
	procCloseHandle              = kernel32.NewProc("CloseHandle")
	procWaitForSingleObject      = kernel32.NewProc("WaitForSingleObject")
	procGenerateConsoleCtrlEvent = kernel32.NewProc("GenerateConsoleCtrlEvent")
)

const (
	PROCESS_TERMINATE         = 0x0001
	PROCESS_QUERY_INFORMATION = 0x0400

	CTRL_BREAK_EVENT = 1
)

// terminateProcess has no graceful flavor on Windows; both terminate and
// kill resolve to TerminateProcess.
func terminateProcess(pid int, group bool) error {
	return killProcess(pid, group)
}

func killProcess(pid int, _ bool) error {
	if pid <= 0 {
		return nil
	}
	handle, err := openProcess(PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		// Typically the process is already gone.
		return nil
	}
	defer func() { _ = closeHandle(handle) }()
	ret, _, callErr := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	if ret == 0 {
		return callErr
	}
	return nil
}

// forwardInterrupt sends Ctrl-Break to the child's process group. The child
// must have been created with CREATE_NEW_PROCESS_GROUP, which interrupt
// delegation requires.
func forwardInterrupt(pid int, _ bool) error {
	ret, _, callErr := procGenerateConsoleCtrlEvent.Call(uintptr(CTRL_BREAK_EVENT), uintptr(uint32(pid)))
	if ret == 0 {
		return callErr
	}
	return nil
}

// processAlive probes the process object with a zero-timeout wait. A
// terminated process whose handle is still open would pass a bare
// OpenProcess check, so the probe distinguishes signaled from running.
func processAlive(pid int) bool {
	handle, err := openProcess(SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return false
	}
	defer func() { _ = closeHandle(handle) }()
	ret, _, _ := procWaitForSingleObject.Call(uintptr(handle), 0)
	return ret == WAIT_TIMEOUT
}

func openProcess(access uint32, inheritHandle bool, processID uint32) (syscall.Handle, error) {
	inherit := 0
	if inheritHandle {
		inherit = 1
	}
	ret, _, err := procOpenProcess.Call(
		uintptr(access),
		uintptr(inherit),
		uintptr(processID),
	)
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(handle syscall.Handle) error {
	ret, _, err := procCloseHandle.Call(uintptr(handle))
	if ret == 0 {
		return err
	}
	return nil
}
