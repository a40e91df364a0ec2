package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lfn-audio/lfn-toolkit/internal/diagnostics"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a JSON system report",
	Long: `Run every check, collect system information and analyze recent logs,
then save the result as system_report_<timestamp>.json.

Attach the report to bug reports. It is written to the configured
diagnostics.report_dir, or the log directory when that is unset.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var reportOutput string

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Directory to write the report to")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	reg := newRegistry(cmd, cfg)
	defer func() { _ = reg.Close() }()

	logger := commandLogger(reg, "report")
	logDir := reg.LogDir("")
	checker := diagnostics.NewChecker(cfg.Diagnostics, logger, projectRoot(cfg), logDir)

	dir := reportOutput
	if dir == "" {
		dir = cfg.Diagnostics.ReportDir
	}
	if dir == "" {
		dir = logDir
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Generating system report...")
	report := checker.BuildReport(cmd.Context(), diagnostics.AllChecks())

	path, err := diagnostics.WriteReport(afero.NewOsFs(), dir, report)
	if err != nil {
		return err
	}
	logger.Info("system report written", "path", path, "id", report.ID)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Report saved to %s\n", path)
	if worst := diagnostics.Worst(report.Checks); worst == diagnostics.StatusError {
		fmt.Fprintln(out, "Some checks failed; run 'lfn-debug check' for details.")
	}
	return nil
}
