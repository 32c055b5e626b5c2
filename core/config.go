package core

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable holding the config file path.
// There is no automatic discovery beyond it and the --config flag.
const ConfigEnv = "SURGERY_AI_CONFIG"

// Output formats understood by Printer.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config controls the CLI and the extractor it builds.
type Config struct {
	// Environment is "development" or "production"; development enables
	// zap's development mode.
	Environment string `yaml:"environment"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Workers bounds parallel extraction in scan mode. 0 means one per CPU.
	Workers int `yaml:"workers"`

	// Output is text, json or yaml.
	Output string `yaml:"output"`

	// Stealth enables the alpha-channel fallback.
	Stealth bool `yaml:"stealth"`

	// EXIF enables the EXIF UserComment fallback for JPEG and WebP.
	EXIF bool `yaml:"exif"`

	// MaxInflatedBytes caps the size of a decompressed stealth payload.
	MaxInflatedBytes int64 `yaml:"max_inflated_bytes"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Environment:      "production",
		LogLevel:         "warn",
		Output:           OutputText,
		Stealth:          true,
		EXIF:             true,
		MaxInflatedBytes: 64 << 20,
	}
}

// LoadConfig reads path, or the file named by SURGERY_AI_CONFIG when path
// is empty. With neither set it returns DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.MaxInflatedBytes <= 0 {
		return errors.New("max_inflated_bytes must be positive")
	}
	return nil
}
