package diagnostics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"

	"github.com/lfn-audio/lfn-toolkit/internal/config"
	"github.com/lfn-audio/lfn-toolkit/internal/logging"
)

// CheckKind names a diagnostic check.
type CheckKind string

const (
	CheckRuntime    CheckKind = "runtime"
	CheckDeps       CheckKind = "deps"
	CheckGPU        CheckKind = "gpu"
	CheckFFmpeg     CheckKind = "ffmpeg"
	CheckFilesystem CheckKind = "filesystem"
	CheckLogs       CheckKind = "logs"
	CheckAudio      CheckKind = "audio"
)

// AllChecks returns every check in display order.
func AllChecks() []CheckKind {
	return []CheckKind{CheckRuntime, CheckDeps, CheckGPU, CheckFFmpeg, CheckFilesystem, CheckAudio, CheckLogs}
}

// ParseCheckKind returns the check named s.
func ParseCheckKind(s string) (CheckKind, bool) {
	for _, k := range AllChecks() {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, true
		}
	}
	return "", false
}

// DiskUsage is the capacity of the filesystem holding a path.
type DiskUsage struct {
	Total uint64
	Free  uint64
}

// Checker runs diagnostic checks against one toolkit checkout.
type Checker struct {
	Config      config.DiagnosticsConfig
	Logger      *logging.Logger
	Runner      Runner
	FS          afero.Fs
	ProjectRoot string
	LogDir      string
	Now         func() time.Time
	// GOOS selects the platform specific checks. Empty means runtime.GOOS.
	GOOS string

	// Writable reports whether a directory can be written to.
	Writable func(path string) error
	// Usage reports the disk capacity of the filesystem holding path.
	Usage func(path string) (DiskUsage, error)
}

// NewChecker creates a Checker backed by the real OS.
func NewChecker(cfg config.DiagnosticsConfig, logger *logging.Logger, projectRoot, logDir string) *Checker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Checker{
		Config:      cfg,
		Logger:      logger,
		Runner:      ExecRunner{Timeout: cfg.CommandTimeout},
		FS:          afero.NewOsFs(),
		ProjectRoot: projectRoot,
		LogDir:      logDir,
		Now:         time.Now,
		Writable:    checkWritable,
		Usage:       diskUsage,
	}
}

// Run executes the requested checks concurrently and returns their sections
// in the order requested. A check that panics yields an error section
// instead of crashing the caller.
func (c *Checker) Run(ctx context.Context, kinds []CheckKind) []Section {
	return iter.Map(kinds, func(kind *CheckKind) Section {
		return c.runOne(ctx, *kind)
	})
}

func (c *Checker) runOne(ctx context.Context, kind CheckKind) (section Section) {
	start := time.Now()
	c.Logger.Debug("running check", "check", string(kind))

	defer func() {
		if v := recover(); v != nil {
			c.Logger.Error(fmt.Sprintf("check %s panicked: %v", kind, v))
			section = Section{Check: kind, Title: sectionTitle(kind)}
			section.fail("internal error", fmt.Sprint(v))
		}
		c.Logger.Debug("check finished", "check", string(kind),
			"status", section.Worst().String(), "duration", time.Since(start))
	}()

	switch kind {
	case CheckRuntime:
		return c.CheckRuntime(ctx)
	case CheckDeps:
		return c.CheckDependencies(ctx)
	case CheckGPU:
		return c.CheckGPU(ctx)
	case CheckFFmpeg:
		return c.CheckFFmpeg(ctx)
	case CheckFilesystem:
		return c.CheckFilesystem(ctx)
	case CheckAudio:
		return c.CheckAudio(ctx)
	case CheckLogs:
		return c.CheckLogs(ctx)
	default:
		section = Section{Check: kind, Title: string(kind)}
		section.fail("unknown check", string(kind))
		return section
	}
}

func sectionTitle(kind CheckKind) string {
	switch kind {
	case CheckRuntime:
		return "Runtime Environment"
	case CheckDeps:
		return "Dependency Check"
	case CheckGPU:
		return "GPU Acceleration"
	case CheckFFmpeg:
		return "FFmpeg"
	case CheckFilesystem:
		return "Filesystem & Permissions"
	case CheckAudio:
		return "Audio Devices"
	case CheckLogs:
		return "Log Analysis"
	default:
		return string(kind)
	}
}
