package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/lfn-audio/lfn-toolkit/internal/config"
	"github.com/lfn-audio/lfn-toolkit/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lfn-debug",
	Short: "Diagnostics for the LFN Audio Toolkit",
	Long: `lfn-debug checks whether the LFN Audio Toolkit can run on this machine
and helps inspect the logs its modules write.

Start with 'lfn-debug check' for a full system check, then use
'lfn-debug logs' to look at recent problems.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/lfn/config.yaml)")
	flags.String("log-level", "", "log level: DEBUG, INFO, WARNING, ERROR or CRITICAL")
	flags.String("log-dir", "", "log directory (default is <project root>/logs)")
	flags.Bool("debug", false, "force DEBUG logging")

	bindFlags()
}

// bindFlags ties the global flags to their config keys, so a flag that is
// set overrides the environment and the config file.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.dir", flags.Lookup("log-dir"))
	_ = viper.BindPFlag("logging.debug", flags.Lookup("debug"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	// LFN_LOG_LEVEL, LFN_DEBUG, ... plus LFN_<SECTION>_<KEY> for every key
	if err := config.BindEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind environment: %v\n", err)
	}

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig returns the effective configuration. Invalid values are
// reported on stderr and replaced by their defaults; the rest is kept.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Resolve()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: ignoring invalid settings:\n%v\n", err)
	}
	return cfg
}

// projectRoot is the configured project root, else the toolkit checkout
// containing the working directory, else the working directory itself.
func projectRoot(cfg *config.Config) string {
	if cfg.Diagnostics.ProjectRoot != "" {
		return cfg.Diagnostics.ProjectRoot
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if root, ok := logging.FindProjectRoot(wd); ok {
		return root
	}
	return wd
}

// newRegistry builds the logger registry for a command. Log records go to
// stderr so they never mix with the command's own output.
func newRegistry(cmd *cobra.Command, cfg *config.Config) *logging.Registry {
	stderr := cmd.ErrOrStderr()
	opts := []logging.RegistryOption{
		logging.WithStdout(stderr),
		logging.WithStartDir(projectRoot(cfg)),
	}
	if !colorOutput(cfg, stderr) {
		opts = append(opts, logging.WithColor(false))
	}
	return logging.NewRegistry(cfg.Logging, opts...)
}

// commandLogger returns the console-only logger for the lfn-debug command
// named name.
func commandLogger(reg *logging.Registry, name string) *logging.Logger {
	return reg.GetLogger("lfn.debug."+name, logging.Options{File: logging.FileDisabled})
}

// colorOutput applies the logging.color setting to a command's output: auto
// means colour only on a terminal.
func colorOutput(cfg *config.Config, w io.Writer) bool {
	switch strings.ToLower(cfg.Logging.Color) {
	case logging.ColorAlways:
		return true
	case logging.ColorNever:
		return false
	default:
		return shouldColorize(w)
	}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// terminalWidth returns the width of the terminal behind w, or 0.
func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !shouldColorize(w) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0
	}
	return width
}
