package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/rdql/internal/store"
)

const (
	maxWalkDepth = 25
)

// Config represents the rdql configuration from rdql.yaml.
type Config struct {
	// Database is the SQLite database holding the ontology and RDF data.
	Database string `mapstructure:"database"`

	// Ontology lists CUE files or directories loaded on top of the core
	// vocabulary and of the ontology stored in the database.
	Ontology []string `mapstructure:"ontology"`

	// Spans enables automatic span synthesis after loading the ontology.
	Spans bool `mapstructure:"spans"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `mapstructure:"log_level"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RDQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Relative ontology paths in a config file are relative to that file.
	if configPath != "" {
		base := filepath.Dir(configPath)
		for i, p := range cfg.Ontology {
			if !filepath.IsAbs(p) {
				cfg.Ontology[i] = filepath.Join(base, p)
			}
		}
		if cfg.Database != "" && cfg.Database != store.MemoryPath && !filepath.IsAbs(cfg.Database) && v.InConfig("database") {
			cfg.Database = filepath.Join(base, cfg.Database)
		}
	}

	if _, err := cfg.Level(); err != nil {
		return nil, configPath, err
	}
	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "")
	v.SetDefault("ontology", []string{})
	v.SetDefault("spans", false)
	v.SetDefault("log_level", "warn")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for rdql.yaml or rdql.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"rdql.yaml", "rdql.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root (.git file or directory)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ResolvedDatabase returns the effective database path, with the
// command-line value taking precedence over the configured one.
func (c *Config) ResolvedDatabase(flagValue string) string {
	if flagValue != "" || c == nil {
		return flagValue
	}
	return c.Database
}
