// Package channel passes bidirectional communication endpoints into a child
// process across the exec boundary. Because descriptor-table inheritance
// differs by platform, the child's endpoints are identified by a textual
// token embedded in its argument vector: a file descriptor number on POSIX,
// an inheritable handle value on Windows.
package channel

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/tomjaguarpaw/process/internal/proc"
)

// BuildConfig produces the spawn configuration for the child, given the
// textual identifiers of the two endpoints it inherits: childIn is where it
// reads what the parent writes, childOut is where it writes back.
type BuildConfig func(childIn, childOut string) proc.Config

// Writer drives the parent's write endpoint. The stream is closed when it
// returns, signalling end-of-input to the child.
type Writer func(w io.Writer) error

// Reader drains the parent's read endpoint, usually until end-of-stream.
type Reader func(r io.Reader) ([]byte, error)

// Run creates an inheritable channel pair, spawns the child with the
// endpoint identifiers embedded in its configuration, and concurrently
// drives writer and reader against the parent-side endpoints. The two are
// never sequenced, so a full pipe buffer cannot deadlock the exchange, and
// a child that exits without consuming input surfaces a broken-pipe error
// to the writer rather than a hang. It returns the child's exit status and
// whatever the reader accumulated.
func Run(ctx context.Context, build BuildConfig, writer Writer, reader Reader) (proc.Status, []byte, error) {
	// Parent writes parentW -> child reads childIn.
	childIn, parentW, err := os.Pipe()
	if err != nil {
		return proc.Status{}, nil, err
	}
	// Child writes childOut -> parent reads parentR.
	parentR, childOut, err := os.Pipe()
	if err != nil {
		_ = childIn.Close()
		_ = parentW.Close()
		return proc.Status{}, nil, err
	}

	inID, outID, err := endpointIDs(childIn, childOut)
	if err != nil {
		closeAll(childIn, childOut, parentW, parentR)
		return proc.Status{}, nil, err
	}

	cfg := build(inID, outID)
	attachEndpoints(&cfg, childIn, childOut)

	h, _, err := proc.Spawn(cfg)
	// Ownership of the child's halves transferred at exec; our copies must
	// go immediately on both paths so EOF can ever reach either side and
	// nothing leaks into future children.
	_ = childIn.Close()
	_ = childOut.Close()
	if err != nil {
		_ = parentW.Close()
		_ = parentR.Close()
		return proc.Status{}, nil, err
	}

	writeRes := make(chan error, 1)
	go func() {
		werr := writer(parentW)
		if cerr := parentW.Close(); werr == nil {
			werr = cerr
		}
		writeRes <- werr
	}()

	readRes := make(chan readResult, 1)
	go func() {
		out, rerr := reader(parentR)
		_ = parentR.Close()
		readRes <- readResult{out, rerr}
	}()

	st, waitErr := h.Wait(ctx)
	if waitErr != nil {
		// Abandon the exchange but not the process: the background reap
		// finishes on its own, and closing our endpoints unblocks the
		// writer and reader goroutines.
		h.Detach()
		_ = parentW.Close()
		_ = parentR.Close()
		return proc.Status{}, nil, waitErr
	}

	rr := <-readRes
	werr := <-writeRes
	return st, rr.out, errors.Join(rr.err, werr)
}

type readResult struct {
	out []byte
	err error
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
