package diagnostics

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	pkgerrors "github.com/pkg/errors"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
	"github.com/lfn-audio/lfn-toolkit/internal/logging"
	"github.com/lfn-audio/lfn-toolkit/internal/util"
)

// Requirement is an external binary the toolkit relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// DefaultRequirements lists the binaries checked by CheckDependencies.
func DefaultRequirements() []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg", Description: "Required for audio conversion"},
		{Name: "FFprobe", Command: "ffprobe", Description: "Required for media inspection"},
		{Name: "nvidia-smi", Command: "nvidia-smi", Description: "Reports NVIDIA GPUs", Optional: true},
		{Name: "SoX", Command: "sox", Description: "Audio utilities", Optional: true},
	}
}

// CheckRuntime reports the Go runtime, platform and project layout.
func (c *Checker) CheckRuntime(_ context.Context) Section {
	s := Section{Check: CheckRuntime, Title: sectionTitle(CheckRuntime)}

	s.ok("Go version", runtime.Version())
	s.info("Platform", runtime.GOOS+"/"+runtime.GOARCH)
	s.info("CPUs", fmt.Sprintf("%d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0)))

	if exe, err := os.Executable(); err == nil {
		s.info("Executable", exe)
	}

	if c.ProjectRoot == "" {
		s.warn("Project root", "not found (run from inside the toolkit checkout)")
	} else if _, err := c.FS.Stat(c.ProjectRoot); err != nil {
		s.fail("Project root", fmt.Sprintf("%s (%v)", c.ProjectRoot, err))
	} else {
		s.ok("Project root", c.ProjectRoot)
	}

	if c.LogDir != "" {
		s.info("Log directory", c.LogDir)
	}
	return s
}

// CheckDependencies verifies that the required binaries are on PATH.
// Missing optional binaries are warnings.
func (c *Checker) CheckDependencies(_ context.Context) Section {
	s := Section{Check: CheckDeps, Title: sectionTitle(CheckDeps)}

	for _, req := range DefaultRequirements() {
		path, err := c.Runner.LookPath(req.Command)
		switch {
		case err == nil:
			s.ok(req.Name, path)
		case req.Optional:
			s.warn(req.Name, "not installed (optional): "+req.Description)
		default:
			c.Logger.Warning("required binary missing", "binary", req.Command, "error", err)
			s.fail(req.Name, "NOT INSTALLED: "+req.Description)
		}
	}
	return s
}

// GPU is one row of nvidia-smi output.
type GPU struct {
	Name        string `json:"name"`
	Driver      string `json:"driver"`
	MemoryTotal string `json:"memory_total"`
	MemoryFree  string `json:"memory_free"`
}

// nvidiaQueryArgs produce "name, driver, total, free" CSV rows.
var nvidiaQueryArgs = []string{
	"--query-gpu=name,driver_version,memory.total,memory.free",
	"--format=csv,noheader",
}

// ParseGPUList parses nvidia-smi CSV output. Rows with fewer than four
// fields are skipped.
func ParseGPUList(output string) []GPU {
	var gpus []GPU
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) < 4 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		gpus = append(gpus, GPU{
			Name:        parts[0],
			Driver:      parts[1],
			MemoryTotal: parts[2],
			MemoryFree:  parts[3],
		})
	}
	return gpus
}

// CheckGPU queries nvidia-smi. A missing tool or driver is a warning: GPU
// acceleration is optional.
func (c *Checker) CheckGPU(ctx context.Context) Section {
	s := Section{Check: CheckGPU, Title: sectionTitle(CheckGPU)}

	if _, err := c.Runner.LookPath("nvidia-smi"); err != nil {
		s.warn("NVIDIA GPU", "nvidia-smi not available (no NVIDIA GPU or driver not installed)")
		return s
	}

	out, err := c.Runner.Run(ctx, "nvidia-smi", nvidiaQueryArgs...)
	if err != nil {
		c.Logger.Warning("nvidia-smi query failed", "error", err)
		switch {
		case lfnerrors.IsRetryable(err):
			s.warn("NVIDIA GPU", "nvidia-smi timed out")
		case lfnerrors.Is(err, lfnerrors.ErrProbeFailed):
			s.warn("NVIDIA GPU", "nvidia-smi failed")
		default:
			s.warn("NVIDIA GPU", "nvidia-smi could not be run")
		}
		return s
	}

	gpus := ParseGPUList(string(out))
	if len(gpus) == 0 {
		s.warn("NVIDIA GPU", "nvidia-smi reported no devices")
		return s
	}
	s.ok("NVIDIA GPU", fmt.Sprintf("%d detected", len(gpus)))
	for i, gpu := range gpus {
		s.info(fmt.Sprintf("GPU %d", i), fmt.Sprintf("%s, driver %s, memory %s total, %s free",
			gpu.Name, gpu.Driver, gpu.MemoryTotal, gpu.MemoryFree))
	}
	return s
}

// CheckFFmpeg reports the FFmpeg version and which of the configured
// formats it supports.
func (c *Checker) CheckFFmpeg(ctx context.Context) Section {
	s := Section{Check: CheckFFmpeg, Title: sectionTitle(CheckFFmpeg)}

	if _, err := c.Runner.LookPath("ffmpeg"); err != nil {
		s.fail("FFmpeg", "not found in PATH")
		s.info("Note", "batch file analysis requires FFmpeg for audio conversion")
		return s
	}

	out, err := c.Runner.Run(ctx, "ffmpeg", "-version")
	if err != nil {
		c.reportProbeFailure(&s, "FFmpeg", err)
		return s
	}
	s.ok("FFmpeg", util.FirstLine(string(out)))

	formats, err := c.Runner.Run(ctx, "ffmpeg", "-hide_banner", "-formats")
	if err != nil {
		c.reportProbeFailure(&s, "Formats", err)
		return s
	}
	for i, supported := range CodecSupport(string(formats), c.Config.Codecs) {
		name := strings.ToUpper(c.Config.Codecs[i])
		if supported {
			s.ok(name, "supported")
		} else {
			s.warn(name, "not found")
		}
	}
	return s
}

// CodecSupport reports, for each codec, whether it appears in the output
// of `ffmpeg -formats`.
func CodecSupport(formats string, codecs []string) []bool {
	lower := strings.ToLower(formats)
	support := make([]bool, len(codecs))
	for i, codec := range codecs {
		support[i] = codec != "" && strings.Contains(lower, strings.ToLower(codec))
	}
	return support
}

// reportProbeFailure adds a result for a failed probe, graded by the
// error's severity.
func (c *Checker) reportProbeFailure(s *Section, name string, err error) {
	logging.LogException(c.Logger, pkgerrors.WithStack(err), name+" probe failed")
	detail := "found but returned an error"
	if lfnerrors.IsRetryable(err) {
		detail = "check timed out; retry or raise diagnostics.command_timeout"
	}
	s.add(StatusForError(err), name, detail)
}
