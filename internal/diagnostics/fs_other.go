//go:build !linux && !darwin

package diagnostics

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/disk"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

func checkWritable(path string) error {
	f, err := os.CreateTemp(path, ".lfn-write-test-*")
	if err != nil {
		return fmt.Errorf("%w: %v", lfnerrors.ErrNotWritable, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func diskUsage(path string) (DiskUsage, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return DiskUsage{}, err
	}
	return DiskUsage{Total: usage.Total, Free: usage.Free}, nil
}
