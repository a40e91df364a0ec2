package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lfn-audio/lfn-toolkit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify toolkit configuration",
	Long: `View or modify the LFN Audio Toolkit configuration.

Without arguments, displays the effective configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  lfn-debug config set logging.level DEBUG
  lfn-debug config set logging.max_size 50MiB
  lfn-debug config set diagnostics.codecs wav,flac,mp3

Run 'lfn-debug config show' to see every key and its current value.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/lfn/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := loadConfig(cmd)

	// Show where config is being read from
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			fmt.Fprintf(out, "# Config file: %s\n", used)
		} else {
			fmt.Fprintf(out, "# Config file: %s (not found - using defaults)\n", used)
		}
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	return writeYAML(out, cfg)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return encoder.Close()
}

// targetConfigFile is the file config set writes to: the active config
// file, else the default location.
func targetConfigFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.ConfigFile()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	value := args[1]

	// Validate the key exists
	defaults := viper.New()
	config.SetDefaultsOn(defaults)
	keys := configKeys(defaults)
	if !slices.Contains(keys, key) {
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(keys, ", "))
	}

	typedValue, err := coerceValue(defaults.Get(key), value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile := targetConfigFile()

	// Only the file's own settings are rewritten, not defaults or env.
	fileCfg := viper.New()
	fileCfg.SetConfigFile(configFile)
	if _, err := os.Stat(configFile); err == nil {
		if err := fileCfg.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	fileCfg.Set(key, typedValue)

	// Validate the resulting configuration before saving it
	candidate := viper.New()
	config.SetDefaultsOn(candidate)
	if err := candidate.MergeConfigMap(fileCfg.AllSettings()); err != nil {
		return fmt.Errorf("failed to merge configuration: %w", err)
	}
	if _, err := config.LoadFrom(candidate); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := fileCfg.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	if env := config.EnvVar(key); env != "" && os.Getenv(env) != "" {
		fmt.Fprintf(out, "Note: %s is set and takes precedence over the config file\n", env)
	}
	return nil
}

// coerceValue converts a command-line value to the type of the key's
// default. Lists are comma-separated.
func coerceValue(def any, value string) (any, error) {
	switch def.(type) {
	case bool:
		return cast.ToBoolE(value)
	case int:
		n, err := cast.ToIntE(value)
		if err != nil {
			return nil, fmt.Errorf("expected integer")
		}
		return n, nil
	case time.Duration:
		return cast.ToDurationE(value)
	case []string:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}

func configKeys(v *viper.Viper) []string {
	keys := v.AllKeys()
	slices.Sort(keys)
	return keys
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'lfn-debug config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(configFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	header := `# LFN Audio Toolkit configuration
#
# Environment variables override this file: LFN_LOG_LEVEL, LFN_LOG_DIR,
# LFN_LOG_FILE and LFN_DEBUG, or LFN_<SECTION>_<KEY> for any key.

`
	if _, err := io.WriteString(file, header); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := writeYAML(file, config.Default()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize logging and diagnostics.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", configFile)
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")

	fmt.Fprintln(out, "\nEnvironment variables:")
	for _, key := range []string{"logging.level", "logging.dir", "logging.file", "logging.debug"} {
		fmt.Fprintf(out, "  %-14s %s\n", config.EnvVar(key), key)
	}
	fmt.Fprintf(out, "  %s_<SECTION>_<KEY> for any other key (e.g., %s_DIAGNOSTICS_COMMAND_TIMEOUT)\n",
		config.EnvPrefix, config.EnvPrefix)
	return nil
}
