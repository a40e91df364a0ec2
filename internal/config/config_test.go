package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaultsOn(v)
	if err := BindEnvOn(v); err != nil {
		t.Fatalf("BindEnvOn() error = %v", err)
	}
	return v
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "INFO")
	}
	if cfg.Logging.MaxSize != 10*1024*1024 {
		t.Errorf("Logging.MaxSize = %d, want 10 MiB", cfg.Logging.MaxSize)
	}
	if cfg.Logging.MaxBackups != 5 {
		t.Errorf("Logging.MaxBackups = %d, want 5", cfg.Logging.MaxBackups)
	}
	if cfg.Logging.Prefix != "lfn" {
		t.Errorf("Logging.Prefix = %q, want %q", cfg.Logging.Prefix, "lfn")
	}
	if len(cfg.Logging.AutoFileModules) != 4 {
		t.Errorf("Logging.AutoFileModules = %v, want 4 fragments", cfg.Logging.AutoFileModules)
	}
	if cfg.Diagnostics.CommandTimeout != 5*time.Second {
		t.Errorf("Diagnostics.CommandTimeout = %v, want 5s", cfg.Diagnostics.CommandTimeout)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate, got %v", errs)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	v := newTestViper(t)

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := Default()
	if cfg.Logging.MaxSize != want.Logging.MaxSize {
		t.Errorf("MaxSize = %d, want %d", cfg.Logging.MaxSize, want.Logging.MaxSize)
	}
	if cfg.Diagnostics.DiskWarn != want.Diagnostics.DiskWarn {
		t.Errorf("DiskWarn = %d, want %d", cfg.Diagnostics.DiskWarn, want.Diagnostics.DiskWarn)
	}
	if len(cfg.Diagnostics.Codecs) != len(want.Diagnostics.Codecs) {
		t.Errorf("Codecs = %v, want %v", cfg.Diagnostics.Codecs, want.Diagnostics.Codecs)
	}
}

func TestLoadFrom_Environment(t *testing.T) {
	t.Setenv("LFN_LOG_LEVEL", "debug")
	t.Setenv("LFN_LOG_DIR", "/tmp/lfn-logs")
	t.Setenv("LFN_LOG_FILE", "custom.log")
	t.Setenv("LFN_DEBUG", "1")
	t.Setenv("LFN_LOG_MAX_SIZE", "1KiB")
	t.Setenv("LFN_LOG_BACKUPS", "2")
	t.Setenv("LFN_DIAGNOSTICS_COMMAND_TIMEOUT", "2s")

	cfg, err := LoadFrom(newTestViper(t))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Dir != "/tmp/lfn-logs" {
		t.Errorf("Dir = %q", cfg.Logging.Dir)
	}
	if cfg.Logging.File != "custom.log" {
		t.Errorf("File = %q", cfg.Logging.File)
	}
	if !cfg.Logging.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Logging.MaxSize != 1024 {
		t.Errorf("MaxSize = %d, want 1024", cfg.Logging.MaxSize)
	}
	if cfg.Logging.MaxBackups != 2 {
		t.Errorf("MaxBackups = %d, want 2", cfg.Logging.MaxBackups)
	}
	if cfg.Diagnostics.CommandTimeout != 2*time.Second {
		t.Errorf("CommandTimeout = %v, want 2s", cfg.Diagnostics.CommandTimeout)
	}
}

func TestLoadFrom_DebugFlag(t *testing.T) {
	tests := []struct {
		value string
		want  Flag
	}{
		{"1", true},
		{"true", true},
		{"0", false},
		{"", false},
		{"yes please", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LFN_DEBUG", tt.value)

			cfg, err := LoadFrom(newTestViper(t))
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if cfg.Logging.Debug != tt.want {
				t.Errorf("Debug = %v, want %v", cfg.Logging.Debug, tt.want)
			}
		})
	}
}

func TestLoadFrom_UnknownLevelIsNotAnError(t *testing.T) {
	t.Setenv("LFN_LOG_LEVEL", "LOUD")

	cfg, err := LoadFrom(newTestViper(t))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v, unknown levels must fail open", err)
	}
	if cfg.Logging.Level != "LOUD" {
		t.Errorf("Level = %q, want raw value preserved", cfg.Logging.Level)
	}
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `logging:
  level: WARNING
  max_size: 2MiB
  max_backups: 3
  auto_file_modules: [batch]
diagnostics:
  recent_log_files: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Logging.Level != "WARNING" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.MaxSize != 2*1024*1024 {
		t.Errorf("MaxSize = %d", cfg.Logging.MaxSize)
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("MaxBackups = %d", cfg.Logging.MaxBackups)
	}
	if len(cfg.Logging.AutoFileModules) != 1 || cfg.Logging.AutoFileModules[0] != "batch" {
		t.Errorf("AutoFileModules = %v", cfg.Logging.AutoFileModules)
	}
	if cfg.Diagnostics.RecentLogFiles != 10 {
		t.Errorf("RecentLogFiles = %d", cfg.Diagnostics.RecentLogFiles)
	}
}

func TestLoadFrom_InvalidReturnsValidationErrors(t *testing.T) {
	v := newTestViper(t)
	v.Set("logging.max_backups", -1)
	v.Set("logging.color", "rainbow")

	_, err := LoadFrom(v)
	if err == nil {
		t.Fatal("LoadFrom() expected error")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
	}
}

func TestResolveFrom_BadValueKeepsTheRest(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		field string
	}{
		{"color", "LFN_LOG_COLOR", "yes", "logging.color"},
		{"size", "LFN_LOG_MAX_SIZE", "huge", "logging.max_size"},
		{"backups", "LFN_LOG_BACKUPS", "many", "logging.max_backups"},
		{"negative backups", "LFN_LOG_BACKUPS", "-3", "logging.max_backups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logDir := filepath.Join(t.TempDir(), "logs")
			t.Setenv("LFN_DEBUG", "1")
			t.Setenv("LFN_LOG_LEVEL", "ERROR")
			t.Setenv("LFN_LOG_DIR", logDir)
			t.Setenv(tt.env, tt.value)

			cfg, err := ResolveFrom(newTestViper(t))
			if cfg == nil {
				t.Fatal("ResolveFrom() returned nil config")
			}
			verrs, ok := err.(ValidationErrors)
			if !ok || len(verrs) != 1 || verrs[0].Field != tt.field {
				t.Errorf("ResolveFrom() error = %v, want one error for %s", err, tt.field)
			}

			if !cfg.Logging.Debug {
				t.Error("LFN_DEBUG must survive an invalid sibling value")
			}
			if cfg.Logging.Level != "ERROR" || cfg.Logging.Dir != logDir {
				t.Errorf("Level = %q, Dir = %q, want the environment values", cfg.Logging.Level, cfg.Logging.Dir)
			}

			def := Default().Logging
			switch tt.field {
			case "logging.color":
				if cfg.Logging.Color != "auto" {
					t.Errorf("Color = %q, want auto", cfg.Logging.Color)
				}
			case "logging.max_size":
				if cfg.Logging.MaxSize != def.MaxSize {
					t.Errorf("MaxSize = %v, want default %v", cfg.Logging.MaxSize, def.MaxSize)
				}
			case "logging.max_backups":
				if cfg.Logging.MaxBackups != def.MaxBackups {
					t.Errorf("MaxBackups = %d, want default %d", cfg.Logging.MaxBackups, def.MaxBackups)
				}
			}
		})
	}
}

func TestResolveFrom_Valid(t *testing.T) {
	t.Setenv("LFN_LOG_BACKUPS", "2")

	cfg, err := ResolveFrom(newTestViper(t))
	if err != nil {
		t.Fatalf("ResolveFrom() error = %v", err)
	}
	if cfg.Logging.MaxBackups != 2 {
		t.Errorf("MaxBackups = %d, want 2", cfg.Logging.MaxBackups)
	}
}

func TestResolveFrom_DiskThresholdPair(t *testing.T) {
	v := newTestViper(t)
	v.Set("diagnostics.disk_warn", "100MiB")
	v.Set("diagnostics.disk_critical", "200MiB")
	v.Set("diagnostics.recent_log_files", 9)

	cfg, err := ResolveFrom(v)
	if err == nil {
		t.Fatal("ResolveFrom() expected an error for critical > warn")
	}
	if vErrs := cfg.Validate(); len(vErrs) != 0 {
		t.Errorf("resolved config is invalid: %v", vErrs)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("logging section changed: %+v", cfg.Logging)
	}
}

func TestByteSize_String(t *testing.T) {
	if got := ByteSize(10 * 1024 * 1024).String(); got != "10 MiB" {
		t.Errorf("String() = %q, want %q", got, "10 MiB")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("logging.level"); got != "LFN_LOG_LEVEL" {
		t.Errorf("EnvVar(logging.level) = %q", got)
	}
	if got := EnvVar("diagnostics.codecs"); got != "" {
		t.Errorf("EnvVar(diagnostics.codecs) = %q, want empty", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/lfn" {
			t.Errorf("ConfigDir() = %q", got)
		}
		if got := ConfigFile(); got != "/custom/config/lfn/config.yaml" {
			t.Errorf("ConfigFile() = %q", got)
		}
	})

	t.Run("falls back to home", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		if got, want := ConfigDir(), filepath.Join(home, ".config", "lfn"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestByteSize_YAML(t *testing.T) {
	var doc struct {
		Size ByteSize `yaml:"size"`
	}
	for input, want := range map[string]ByteSize{
		"size: 10 MiB": 10 * 1024 * 1024,
		"size: 5GiB":   5 * 1024 * 1024 * 1024,
		"size: 4096":   4096,
	} {
		if err := yaml.Unmarshal([]byte(input), &doc); err != nil {
			t.Fatalf("Unmarshal(%q) error = %v", input, err)
		}
		if doc.Size != want {
			t.Errorf("Unmarshal(%q) = %d, want %d", input, doc.Size, want)
		}
	}

	if err := yaml.Unmarshal([]byte("size: lots"), &doc); err == nil {
		t.Error("Unmarshal(lots) should fail")
	}

	out, err := yaml.Marshal(map[string]ByteSize{"size": 10 * 1024 * 1024})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "size: 10 MiB\n" {
		t.Errorf("Marshal() = %q", out)
	}
}
