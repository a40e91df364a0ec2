package diagnostics

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CheckFilesystem verifies that the project directories exist and are
// writable, creating missing ones, and compares free disk space with the
// configured thresholds.
func (c *Checker) CheckFilesystem(_ context.Context) Section {
	s := Section{Check: CheckFilesystem, Title: sectionTitle(CheckFilesystem)}

	root := c.ProjectRoot
	if root == "" {
		root = "."
	}

	title := cases.Title(language.Und)
	for _, dir := range c.Config.Directories {
		name := title.String(dir)
		path := filepath.Join(root, dir)

		info, err := c.FS.Stat(path)
		switch {
		case err == nil && !info.IsDir():
			s.fail(name, path+" is not a directory")
		case err == nil:
			if werr := c.Writable(path); werr != nil {
				c.Logger.Warning("directory not writable", "path", path, "error", werr)
				s.fail(name, "exists but NOT writable")
			} else {
				s.ok(name, "exists & writable")
			}
		default:
			if merr := c.FS.MkdirAll(path, 0755); merr != nil {
				c.Logger.Error("failed to create directory", "path", path, "error", merr)
				s.fail(name, fmt.Sprintf("missing and could not be created: %v", merr))
			} else {
				s.warn(name, "did not exist, created "+path)
			}
		}
	}

	usage, err := c.Usage(root)
	if err != nil {
		c.Logger.Warning("disk usage unavailable", "path", root, "error", err)
		s.fail("Disk space", fmt.Sprintf("failed to check: %v", err))
		return s
	}
	s.add(c.diskStatus(usage.Free), "Disk space", formatUsage(usage))
	return s
}

// diskStatus grades free space against the critical and warning thresholds.
func (c *Checker) diskStatus(free uint64) Status {
	switch {
	case free < uint64(c.Config.DiskCritical):
		return StatusError
	case free < uint64(c.Config.DiskWarn):
		return StatusWarn
	default:
		return StatusOK
	}
}

func formatUsage(u DiskUsage) string {
	if u.Total == 0 {
		return humanize.IBytes(u.Free) + " free"
	}
	pct := float64(u.Free) / float64(u.Total) * 100
	return fmt.Sprintf("%s free of %s (%.1f%% available)", humanize.IBytes(u.Free), humanize.IBytes(u.Total), pct)
}
