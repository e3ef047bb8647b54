package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sambabib/portability-analyzer/pkg/model"
	"github.com/spf13/viper"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = ".portability.yaml"

// EnvPrefix prefixes environment overrides, e.g. PORTABILITY_OUTPUT_FORMAT.
const EnvPrefix = "PORTABILITY"

// Config represents the configuration for the portability analyzer
type Config struct {
	// Catalog data file (.yaml/.json, optionally .gz or .zst)
	Catalog string `mapstructure:"catalog"`

	// Targets analyzed when a request names none
	Targets []string `mapstructure:"targets"`

	// Aliases expand one name into several targets. Keys are case-insensitive.
	Aliases map[string][]string `mapstructure:"aliases"`

	// Assemblies excluded from breaking-change analysis
	AssembliesToIgnore []model.IgnoreAssemblyInfo `mapstructure:"assembliesToIgnore"`

	// Breaking change IDs never reported
	BreakingChangesToSuppress []string `mapstructure:"breakingChangesToSuppress"`

	// Parallel workers for the member scan (0 = number of CPUs)
	Workers int `mapstructure:"workers"`

	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// OutputConfig selects how results are written.
type OutputConfig struct {
	Format string `mapstructure:"format"` // text, json
	File   string `mapstructure:"file"`   // Output file path (stdout if empty)
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Targets: []string{".NET Core", ".NET Framework"},
		Aliases: map[string][]string{},
		Output:  OutputConfig{Format: "text"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func newViper() *viper.Viper {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("catalog", def.Catalog)
	v.SetDefault("targets", def.Targets)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.file", def.Output.File)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads the configuration from the specified file path.
// If no path is provided, it looks for .portability.yaml in the current
// directory and falls back to the defaults when there is none. Environment
// variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()

	if configPath == "" {
		configPath = DefaultFileName
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return unmarshal(v, "")
		}
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}
	return unmarshal(v, configPath)
}

// FindConfigFile searches for .portability.yaml in dir and its parents.
func FindConfigFile(dir string) (string, bool) {
	currentDir, err := filepath.Abs(dir)
	if err != nil {
		currentDir = dir
	}
	for {
		configPath := filepath.Join(currentDir, DefaultFileName)
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath, true
		}

		// Move up to the parent directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

// FindAndLoadConfig searches for a config file in the project directory and
// its parents. Without one the defaults (plus environment overrides) apply.
func FindAndLoadConfig(projectPath string) (*Config, error) {
	if path, ok := FindConfigFile(projectPath); ok {
		return LoadConfig(path)
	}
	return unmarshal(newViper(), "")
}

func unmarshal(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		if source == "" {
			return nil, fmt.Errorf("error parsing configuration: %w", err)
		}
		return nil, fmt.Errorf("error parsing config file %s: %w", source, err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string][]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "output.format", Message: fmt.Sprintf("unsupported format %q (want text or json)", c.Output.Format)}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "log.format", Message: fmt.Sprintf("unsupported format %q (want text or json)", c.Log.Format)}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Message: "must not be negative"}
	}
	for i, ignore := range c.AssembliesToIgnore {
		if strings.TrimSpace(ignore.AssemblyIdentity) == "" {
			return &ConfigError{Field: fmt.Sprintf("assembliesToIgnore[%d]", i), Message: "assemblyIdentity is required"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
