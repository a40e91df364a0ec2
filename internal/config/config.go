package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for automatically bound environment variables
// (LFN_LOGGING_LEVEL, LFN_DIAGNOSTICS_COMMAND_TIMEOUT, ...).
const EnvPrefix = "LFN"

// Config represents the complete toolkit configuration
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
}

// LoggingConfig controls how loggers are built
type LoggingConfig struct {
	// Level is the default threshold when a caller does not pass one.
	// Unknown values fall back to INFO; they are not validation errors.
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the log directory. Empty means discover <project root>/logs.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// File, when set, enables file logging under this file name for every
	// logger that does not say otherwise.
	File string `mapstructure:"file" yaml:"file"`
	// Debug forces every logger to DEBUG.
	Debug Flag `mapstructure:"debug" yaml:"debug"`
	// Prefix is prepended to default log file names (<prefix>_<module>.log).
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	// MaxSize is the size at which a log file is rotated, e.g. "10MiB".
	MaxSize ByteSize `mapstructure:"max_size" yaml:"max_size"`
	// MaxBackups is the number of rotated files kept per log file.
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Color is one of auto, always, never.
	Color string `mapstructure:"color" yaml:"color"`
	// AutoFileModules are module-name fragments that turn file logging on
	// when the caller leaves it unspecified.
	AutoFileModules []string `mapstructure:"auto_file_modules" yaml:"auto_file_modules"`
}

// DiagnosticsConfig controls the lfn-debug checks
type DiagnosticsConfig struct {
	// ProjectRoot is the toolkit checkout. Empty means discover it.
	ProjectRoot string `mapstructure:"project_root" yaml:"project_root"`
	// CommandTimeout bounds every external probe (ffmpeg, nvidia-smi).
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	// RecentLogFiles is how many log files the analysis inspects.
	RecentLogFiles int `mapstructure:"recent_log_files" yaml:"recent_log_files"`
	// Codecs are the ffmpeg formats the toolkit relies on.
	Codecs []string `mapstructure:"codecs" yaml:"codecs"`
	// Directories are the project directories that must exist and be writable.
	Directories []string `mapstructure:"directories" yaml:"directories"`
	// DiskWarn and DiskCritical are free-space thresholds.
	DiskWarn     ByteSize `mapstructure:"disk_warn" yaml:"disk_warn"`
	DiskCritical ByteSize `mapstructure:"disk_critical" yaml:"disk_critical"`
	// ReportDir is where system reports are written. Empty means the log dir.
	ReportDir string `mapstructure:"report_dir" yaml:"report_dir"`
}

// ByteSize is a size in bytes that decodes from strings such as "10MiB".
type ByteSize int64

// String renders the size in IEC units.
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// MarshalYAML writes the size in its human-readable form.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}

// UnmarshalYAML accepts "10 MiB", "10MiB" or a plain byte count.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid size %q: %w", node.Line, node.Value, err)
	}
	*b = ByteSize(n)
	return nil
}

// Flag is a boolean that accepts the usual environment spellings
// ("1", "true", "T") and treats anything unparseable as false.
type Flag bool

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:           "INFO",
			Dir:             "",
			File:            "",
			Debug:           false,
			Prefix:          "lfn",
			MaxSize:         10 * humanize.MiByte,
			MaxBackups:      5,
			Color:           "auto",
			AutoFileModules: []string{"batch", "realtime", "recorder", "health"},
		},
		Diagnostics: DiagnosticsConfig{
			ProjectRoot:    "",
			CommandTimeout: 5 * time.Second,
			RecentLogFiles: 5,
			Codecs:         []string{"wav", "mp3", "flac", "aac", "m4a", "ogg"},
			Directories:    []string{"src", "outputs", "spectrograms", "trends", "logs"},
			DiskWarn:       5 * humanize.GiByte,
			DiskCritical:   1 * humanize.GiByte,
			ReportDir:      "",
		},
	}
}

// envBindings maps config keys onto the environment variables the toolkit
// has always honoured.
var envBindings = map[string]string{
	"logging.level":       "LFN_LOG_LEVEL",
	"logging.dir":         "LFN_LOG_DIR",
	"logging.file":        "LFN_LOG_FILE",
	"logging.debug":       "LFN_DEBUG",
	"logging.max_size":    "LFN_LOG_MAX_SIZE",
	"logging.max_backups": "LFN_LOG_BACKUPS",
	"logging.color":       "LFN_LOG_COLOR",
}

// SetDefaults registers default values with the global viper instance.
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v.
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.debug", bool(defaults.Logging.Debug))
	v.SetDefault("logging.prefix", defaults.Logging.Prefix)
	v.SetDefault("logging.max_size", defaults.Logging.MaxSize.String())
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.color", defaults.Logging.Color)
	v.SetDefault("logging.auto_file_modules", defaults.Logging.AutoFileModules)

	// Diagnostics defaults
	v.SetDefault("diagnostics.project_root", defaults.Diagnostics.ProjectRoot)
	v.SetDefault("diagnostics.command_timeout", defaults.Diagnostics.CommandTimeout)
	v.SetDefault("diagnostics.recent_log_files", defaults.Diagnostics.RecentLogFiles)
	v.SetDefault("diagnostics.codecs", defaults.Diagnostics.Codecs)
	v.SetDefault("diagnostics.directories", defaults.Diagnostics.Directories)
	v.SetDefault("diagnostics.disk_warn", defaults.Diagnostics.DiskWarn.String())
	v.SetDefault("diagnostics.disk_critical", defaults.Diagnostics.DiskCritical.String())
	v.SetDefault("diagnostics.report_dir", defaults.Diagnostics.ReportDir)
}

// BindEnv wires the environment into the global viper instance.
func BindEnv() error {
	return BindEnvOn(viper.GetViper())
}

// BindEnvOn enables LFN_-prefixed automatic environment lookup on v and binds
// the historical variable names (LFN_LOG_LEVEL, LFN_LOG_DIR, LFN_LOG_FILE,
// LFN_DEBUG, ...) to their config keys.
func BindEnvOn(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// EnvVar returns the environment variable bound to a config key, or "".
func EnvVar(key string) string {
	return envBindings[key]
}

// decodeHooks converts config strings into the typed fields above.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeHook,
		flagHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func byteSizeHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(ByteSize(0)) || from.Kind() != reflect.String {
		return data, nil
	}
	n, err := humanize.ParseBytes(strings.TrimSpace(data.(string)))
	if err != nil {
		return nil, err
	}
	return ByteSize(n), nil
}

func flagHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(Flag(false)) {
		return data, nil
	}
	b, err := cast.ToBoolE(data)
	if err != nil {
		return Flag(false), nil
	}
	return Flag(b), nil
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Resolve reads the configuration from the global viper instance, falling
// back per key.
func Resolve() (*Config, error) {
	return ResolveFrom(viper.GetViper())
}

// ResolveFrom reads the configuration held by v one key at a time. A key
// that fails to decode or validate keeps its default and is reported in the
// returned ValidationErrors; every other key keeps its configured value. The
// returned Config is always usable.
func ResolveFrom(v *viper.Viper) (*Config, error) {
	cfg := Default()

	var problems ValidationErrors
	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		section, field, ok := strings.Cut(key, ".")
		if !ok {
			continue
		}
		value := v.Get(key)
		input := map[string]any{section: map[string]any{field: value}}
		if err := decodeInto(cfg, input); err != nil {
			resetField(cfg, key)
			problems = append(problems, ValidationError{
				Field:   key,
				Value:   value,
				Message: "cannot be decoded, using the default",
			})
		}
	}

	// A reset can leave a paired check (disk_critical <= disk_warn) failing;
	// the second pass restores the whole section.
	for pass := 0; pass < 2; pass++ {
		errs := cfg.Validate()
		if len(errs) == 0 {
			break
		}
		for _, e := range errs {
			if pass == 0 {
				resetField(cfg, e.Field)
				problems = append(problems, e)
			} else {
				section, _, _ := strings.Cut(e.Field, ".")
				resetField(cfg, section)
			}
		}
	}

	if len(problems) > 0 {
		return cfg, problems
	}
	return cfg, nil
}

// decodeInto merges input into cfg with the config decode hooks.
func decodeInto(cfg *Config, input map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHooks(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// resetField restores the default of a dotted key ("logging.color") or of
// a whole section ("diagnostics").
func resetField(cfg *Config, key string) {
	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(Default()).Elem()
	for _, part := range strings.Split(key, ".") {
		dst, src = fieldByTag(dst, part), fieldByTag(src, part)
		if !dst.IsValid() {
			return
		}
	}
	dst.Set(src)
}

func fieldByTag(v reflect.Value, tag string) reflect.Value {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("mapstructure") == tag {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// Get returns the current configuration. Keys holding unusable values fall
// back to their defaults.
func Get() *Config {
	cfg, _ := Resolve()
	return cfg
}

// ConfigDir returns the directory holding the toolkit's config file.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lfn")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lfn"
	}
	return filepath.Join(home, ".config", "lfn")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
