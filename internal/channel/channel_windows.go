//go:build windows

package channel

import (
	"os"
	"strconv"
	"syscall"

	"github.com/tomjaguarpaw/process/internal/proc"
)

// endpointIDs marks the child's endpoints inheritable and serializes their
// raw handle values, which stay numerically identical in the child since
// handle inheritance on Windows duplicates at the same value.
func endpointIDs(childIn, childOut *os.File) (string, string, error) {
	for _, f := range []*os.File{childIn, childOut} {
		h := syscall.Handle(f.Fd())
		if err := syscall.SetHandleInformation(h, syscall.HANDLE_FLAG_INHERIT, syscall.HANDLE_FLAG_INHERIT); err != nil {
			return "", "", err
		}
	}
	in := strconv.FormatUint(uint64(childIn.Fd()), 10)
	out := strconv.FormatUint(uint64(childOut.Fd()), 10)
	return in, out, nil
}

func attachEndpoints(cfg *proc.Config, childIn, childOut *os.File) {
	cfg.ExtraHandles = append(cfg.ExtraHandles, childIn.Fd(), childOut.Fd())
}
