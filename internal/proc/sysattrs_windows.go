//go:build windows

package proc

import (
	"os/exec"
	"syscall"
)

// Windows creation flags
const (
	CREATE_NEW_PROCESS_GROUP = 0x00000200
	CREATE_NEW_CONSOLE       = 0x00000010
	DETACHED_PROCESS         = 0x00000008
)

// configureSysProcAttr applies the Windows creation flags. Only one
// console-affecting flag is honored; Validate rejects combinations up
// front. NewSession has no Windows equivalent and maps to a new process
// group, which is also what interrupt delegation needs for Ctrl-Break
// routing.
func configureSysProcAttr(cmd *exec.Cmd, cfg Config) {
	attrs := &syscall.SysProcAttr{}
	var flags uint32
	if cfg.NewProcessGroup || cfg.NewSession {
		flags |= CREATE_NEW_PROCESS_GROUP
	}
	if cfg.NewConsole {
		flags |= CREATE_NEW_CONSOLE
	} else if cfg.DetachConsole {
		flags |= DETACHED_PROCESS
	}
	attrs.CreationFlags = flags
	for _, hv := range cfg.ExtraHandles {
		attrs.AdditionalInheritedHandles = append(attrs.AdditionalInheritedHandles, syscall.Handle(hv))
	}
	cmd.SysProcAttr = attrs
}
