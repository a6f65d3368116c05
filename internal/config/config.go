// Package config loads driver settings from defaults, a .env file,
// environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = ".waybacktweets"
	configType = "yaml"
	envPrefix  = "WAYBACKTWEETS"
)

// Defaults
const (
	DefaultDBPath      = "waybacktweets.db"
	DefaultIndexURL    = "https://web.archive.org/cdx/search/cdx"
	DefaultArchiveBase = "https://web.archive.org/web"
	DefaultService     = "twitter.com"
	DefaultOutputDir   = "."
	DefaultTimeout     = 60 * time.Second
	DefaultConcurrency = 2
)

// Config holds driver settings
type Config struct {
	DBPath      string        `mapstructure:"db_path"`
	IndexURL    string        `mapstructure:"index_url"`
	ArchiveBase string        `mapstructure:"archive_base"`
	Service     string        `mapstructure:"service"`
	UserAgent   string        `mapstructure:"user_agent"`
	OutputDir   string        `mapstructure:"output_dir"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// Load reads configuration. If path is empty the config file is searched in
// the working directory and $HOME; a missing file is not an error.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("index_url", DefaultIndexURL)
	v.SetDefault("archive_base", DefaultArchiveBase)
	v.SetDefault("service", DefaultService)
	v.SetDefault("user_agent", "")
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("concurrency", DefaultConcurrency)
}

// Validate checks the settings are usable
func (c *Config) Validate() error {
	if c.IndexURL == "" {
		return errors.New("index_url must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}
