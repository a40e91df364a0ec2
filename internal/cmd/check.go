package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lfn-audio/lfn-toolkit/internal/diagnostics"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run system diagnostics",
	Long: `Run diagnostic checks for the LFN Audio Toolkit.

Without flags every check runs. Select individual checks with the flags
below; they can be combined.

Examples:
  # Full system check
  lfn-debug check

  # Only the external tools
  lfn-debug check --deps --ffmpeg

  # Machine-readable output for bug reports
  lfn-debug check --json`,
	RunE: runCheck,
}

// errChecksFailed is returned by check --strict when any check failed.
var errChecksFailed = errors.New("one or more checks failed")

var (
	checkAll    bool
	checkJSON   bool
	checkStrict bool

	// checkSelected maps each check to its flag value.
	checkSelected = map[diagnostics.CheckKind]*bool{}
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkAll, "all", false, "Run every check (default when no check is selected)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print results as JSON")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero when a check fails")

	usage := map[diagnostics.CheckKind]string{
		diagnostics.CheckRuntime:    "Check the runtime environment",
		diagnostics.CheckDeps:       "Check external binaries (ffmpeg, ffprobe, nvidia-smi, sox)",
		diagnostics.CheckGPU:        "Show NVIDIA GPU information",
		diagnostics.CheckFFmpeg:     "Test the FFmpeg installation and codec support",
		diagnostics.CheckFilesystem: "Check project directories and disk space",
		diagnostics.CheckAudio:      "List audio capture devices",
		diagnostics.CheckLogs:       "Analyze recent log files",
	}
	for _, kind := range diagnostics.AllChecks() {
		checkSelected[kind] = checkCmd.Flags().Bool(string(kind), false, usage[kind])
	}
}

// selectedChecks returns the checks picked by flags, in display order.
func selectedChecks() []diagnostics.CheckKind {
	if checkAll {
		return diagnostics.AllChecks()
	}
	var kinds []diagnostics.CheckKind
	for _, kind := range diagnostics.AllChecks() {
		if *checkSelected[kind] {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return diagnostics.AllChecks()
	}
	return kinds
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	reg := newRegistry(cmd, cfg)
	defer func() { _ = reg.Close() }()

	logger := commandLogger(reg, "check")
	root := projectRoot(cfg)
	checker := diagnostics.NewChecker(cfg.Diagnostics, logger, root, reg.LogDir(""))

	kinds := selectedChecks()
	logger.Debug("running checks", "checks", kinds, "project_root", root)
	sections := checker.Run(cmd.Context(), kinds)

	out := cmd.OutOrStdout()
	if checkJSON {
		if err := diagnostics.RenderJSON(out, sections); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	} else {
		opts := diagnostics.RenderOptions{
			Color: colorOutput(cfg, out),
			Width: terminalWidth(out),
		}
		if err := diagnostics.RenderText(out, sections, opts); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	if checkStrict && diagnostics.Worst(sections) == diagnostics.StatusError {
		return errChecksFailed
	}
	return nil
}
