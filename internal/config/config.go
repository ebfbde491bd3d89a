package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/dlpstream/internal/logging"
)

// Output formats.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
	FormatTUI  = "tui"
)

// Constants for default values.
const (
	FileName             = ".dlpstream.yaml"
	DefaultBinary        = "yt-dlp"
	DefaultFormat        = FormatAuto
	DefaultTheme         = "default"
	DefaultLogLevel      = logging.LevelOff
	DefaultMaxLineLength = 1 * 1024 * 1024 // 1MB
)

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	Binary        string
	Format        string
	Theme         string
	LogLevel      string
	LogFile       string
	NoColor       bool
	Debug         bool
	MaxLineLength int

	// Flags to track if they were explicitly set by the user
	NoColorSet bool
	DebugSet   bool
}

// AppConfig is the resolved application configuration.
type AppConfig struct {
	Binary        string   `yaml:"binary"`
	DefaultArgs   []string `yaml:"default_args"`
	Format        string   `yaml:"format"`
	Theme         string   `yaml:"theme"`
	NoColor       bool     `yaml:"no_color"`
	Debug         bool     `yaml:"debug"`
	LogLevel      string   `yaml:"log_level"`
	LogFile       string   `yaml:"log_file"`
	MaxLineLength int      `yaml:"max_line_length"` // In bytes

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-"`
}

// Defaults returns the hardcoded configuration.
func Defaults() *AppConfig {
	return &AppConfig{
		Binary:        DefaultBinary,
		Format:        DefaultFormat,
		Theme:         DefaultTheme,
		LogLevel:      DefaultLogLevel,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// Load reads configuration from path, or from the first config file found
// by FindConfigPath when path is empty, on top of Defaults. A missing file
// at a discovered location is not an error; an explicit path must exist.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = FindConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.Source = path

	// Zero values written in YAML fall back to defaults.
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = DefaultMaxLineLength
	}
	return cfg, nil
}

// FindConfigPath tries to find the .dlpstream.yaml configuration file.
// It checks the working directory first, then the user config directory.
func FindConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "dlpstream", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

// ApplyEnv overrides cfg with environment variables.
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv("DLPSTREAM_BIN"); v != "" {
		cfg.Binary = v
	}
	if v := os.Getenv("DLPSTREAM_FORMAT"); v != "" {
		cfg.Format = strings.ToLower(v)
	}

	noColor := os.Getenv("DLPSTREAM_NO_COLOR")
	if noColor == "" {
		noColor = os.Getenv("NO_COLOR")
	}
	if noColor != "" {
		if b, err := strconv.ParseBool(noColor); err == nil {
			cfg.NoColor = b
		}
	}

	if v := os.Getenv("DLPSTREAM_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// MergeWithFlags returns a copy of cfg with explicitly set CLI flags applied.
func MergeWithFlags(cfg *AppConfig, flags CliFlags) *AppConfig {
	merged := *cfg
	merged.DefaultArgs = append([]string(nil), cfg.DefaultArgs...)

	if flags.Binary != "" {
		merged.Binary = flags.Binary
	}
	if flags.Format != "" {
		merged.Format = strings.ToLower(flags.Format)
	}
	if flags.Theme != "" {
		merged.Theme = flags.Theme
	}
	if flags.LogLevel != "" {
		merged.LogLevel = flags.LogLevel
	}
	if flags.LogFile != "" {
		merged.LogFile = flags.LogFile
	}
	if flags.MaxLineLength > 0 {
		merged.MaxLineLength = flags.MaxLineLength
	}
	if flags.NoColorSet {
		merged.NoColor = flags.NoColor
	}
	if flags.DebugSet {
		merged.Debug = flags.Debug
	}

	// Debug without an explicit level means debug logging.
	if merged.Debug {
		if _, ok := logging.ParseLevel(merged.LogLevel); !ok {
			merged.LogLevel = logging.LevelDebug
		}
	}
	return &merged
}

// Validate reports configuration values that cannot be used.
func (c *AppConfig) Validate() error {
	switch c.Format {
	case FormatAuto, FormatJSON, FormatText, FormatTUI:
	default:
		return fmt.Errorf("unknown format %q (expected auto, json, text, tui)", c.Format)
	}
	if strings.TrimSpace(c.Binary) == "" {
		return errors.New("downloader binary is empty")
	}
	if c.LogLevel != "" && !strings.EqualFold(c.LogLevel, logging.LevelOff) {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("unknown log level %q", c.LogLevel)
		}
	}
	return nil
}
