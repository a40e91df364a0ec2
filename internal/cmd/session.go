package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session <label>",
	Short: "Print the log path for a new session",
	Long: `Print the path of a timestamped session log, <label>_<YYYYmmdd_HHMMSS>.log,
under the log directory. The path is absolute and the file is not created.

Scripts use this to give each recording or batch run its own log:
  LFN_LOG_FILE=$(lfn-debug session recording) lfn-recorder ...`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

var sessionDir string

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().StringVar(&sessionDir, "dir", "", "Directory for the session log (default: the resolved log directory)")
}

func runSession(cmd *cobra.Command, args []string) error {
	label := strings.TrimSpace(args[0])
	if label == "" || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("invalid session label %q", args[0])
	}

	cfg := loadConfig(cmd)
	reg := newRegistry(cmd, cfg)
	defer func() { _ = reg.Close() }()

	// Absolute, so the path stays valid when another process uses it from
	// a different working directory.
	path := reg.SessionLogPath(label, sessionDir)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
