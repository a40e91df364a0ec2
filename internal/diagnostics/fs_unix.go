//go:build linux || darwin

package diagnostics

import (
	"fmt"

	"golang.org/x/sys/unix"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

func checkWritable(path string) error {
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %v", lfnerrors.ErrNotWritable, err)
	}
	return nil
}

func diskUsage(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, err
	}
	bsize := uint64(st.Bsize)
	return DiskUsage{
		Total: uint64(st.Blocks) * bsize,
		Free:  uint64(st.Bavail) * bsize,
	}, nil
}
