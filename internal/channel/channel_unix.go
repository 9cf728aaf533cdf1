//go:build !windows

package channel

import (
	"os"
	"strconv"

	"github.com/tomjaguarpaw/process/internal/proc"
)

// firstExtraFd is where os/exec places ExtraFiles in the child's descriptor
// table, directly after stderr.
const firstExtraFd = 3

// endpointIDs serializes the child's endpoints as the descriptor numbers
// they will occupy after exec. The channel endpoints claim the first two
// extra-file slots; attachEndpoints keeps that promise.
func endpointIDs(_, _ *os.File) (string, string, error) {
	return strconv.Itoa(firstExtraFd), strconv.Itoa(firstExtraFd + 1), nil
}

func attachEndpoints(cfg *proc.Config, childIn, childOut *os.File) {
	cfg.ExtraFiles = append([]*os.File{childIn, childOut}, cfg.ExtraFiles...)
}
