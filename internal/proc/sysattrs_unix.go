//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr applies the group/session placement for Unix-like
// systems. NewSession implies its own group via setsid. The console flags
// are meaningless on POSIX and ignored.
func configureSysProcAttr(cmd *exec.Cmd, cfg Config) {
	attrs := &syscall.SysProcAttr{}
	if cfg.NewSession {
		attrs.Setsid = true
	} else if cfg.NewProcessGroup {
		attrs.Setpgid = true
	}
	cmd.SysProcAttr = attrs
}
