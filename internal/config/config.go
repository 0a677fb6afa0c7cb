package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures settings sourced from defaults, .pycheck.yml and the environment.
type Config struct {
	Python    string `yaml:"python"`
	ConfigDir string `yaml:"config_dir"`
	LogDir    string `yaml:"log_dir"`
	Format    string `yaml:"format"`
	Color     string `yaml:"color"`
	Debug     bool   `yaml:"debug"`
}

const (
	// FileName is the optional per-project config file.
	FileName = ".pycheck.yml"

	// DefaultPython is the interpreter used when nothing overrides it.
	DefaultPython = "python3"
	// DefaultConfigDir holds the tools' own config files.
	DefaultConfigDir = "config"
	// DefaultLogDir receives one log per step and is purged every run.
	DefaultLogDir = "logs"

	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"

	// EnvPython selects the interpreter for presence checks, runs and install hints.
	EnvPython = "PYCHECK_PYTHON"
	// EnvDebug enables debug logging when set to a truthy value.
	EnvDebug = "PYCHECK_DEBUG"
	// EnvNoColor disables colour when set to any non-empty value.
	EnvNoColor = "NO_COLOR"
)

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Python:    DefaultPython,
		ConfigDir: DefaultConfigDir,
		LogDir:    DefaultLogDir,
		Format:    FormatPretty,
		Color:     ColorAuto,
	}
}

// Load reads .pycheck.yml from the project root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.Python != "" {
		out.Python = override.Python
	}
	if override.ConfigDir != "" {
		out.ConfigDir = override.ConfigDir
	}
	if override.LogDir != "" {
		out.LogDir = override.LogDir
	}
	if override.Format != "" {
		out.Format = strings.ToLower(override.Format)
	}
	if override.Color != "" {
		out.Color = strings.ToLower(override.Color)
	}
	if override.Debug {
		out.Debug = true
	}

	return out
}

// ApplyEnv mutates cfg with environment overrides read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(EnvPython)); v != "" {
		cfg.Python = v
	}
	if truthy(getenv(EnvDebug)) {
		cfg.Debug = true
	}
	if getenv(EnvNoColor) != "" {
		cfg.Color = ColorNever
	}
}

// Validate rejects unknown enumerated values.
func (c Config) Validate() error {
	switch c.Format {
	case FormatPretty, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("unsupported color mode %q", c.Color)
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return errors.New("log_dir must not be empty")
	}
	return nil
}

// CheckLogDir rejects a log directory that the per-run purge must not
// remove: the project root itself, anything outside it, or a directory that
// is or contains the tools' config directory. All paths must be resolved.
func CheckLogDir(root, logDir, configDir string) error {
	rel, err := filepath.Rel(root, logDir)
	if err != nil || !below(rel) {
		return fmt.Errorf("log_dir %q must be a subdirectory of the project root %q", logDir, root)
	}
	if rel, err := filepath.Rel(logDir, configDir); err == nil && (rel == "." || below(rel)) {
		return fmt.Errorf("log_dir %q must not contain the config directory %q", logDir, configDir)
	}
	return nil
}

// below reports whether rel points strictly inside its base.
func below(rel string) bool {
	rel = filepath.Clean(rel)
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Resolve returns dir anchored at root unless it is already absolute.
func Resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
