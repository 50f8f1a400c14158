// Package config loads Ceres's runtime configuration: database connection,
// embedding service credentials, harvest concurrency, and the path to the
// portal catalog file. It follows the same viper + mapstructure + godotenv
// layering the rest of the corpus uses, trimmed to the handful of settings
// a semantic-search indexer actually needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       App       `mapstructure:"app"`
	Database  Database  `mapstructure:"database"`
	Embedding Embedding `mapstructure:"embedding"`
	Harvest   Harvest   `mapstructure:"harvest"`
	Portals   Portals   `mapstructure:"portals"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration.
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	ConnectionString string `mapstructure:"connection_string"`
	MaxConnections   int    `mapstructure:"max_connections"`
	IdleConnections  int    `mapstructure:"idle_connections"`
}

// Embedding holds the embedding service configuration.
type Embedding struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout string `mapstructure:"timeout"`
}

// Harvest holds defaults for the sync/harvest pipeline.
type Harvest struct {
	Concurrency int    `mapstructure:"concurrency"`
	Timeout     string `mapstructure:"timeout"`
}

// Portals holds the location of the portal catalog file.
type Portals struct {
	ConfigPath string `mapstructure:"config_path"`
}

// Logging holds logging configuration.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

var globalConfig *Config

// Load loads the configuration from built-in defaults, a config file, and
// environment variables, in that order of increasing precedence.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".ceres")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".ceres-cache")

	viper.SetDefault("database.max_connections", 5)
	viper.SetDefault("database.idle_connections", 2)

	viper.SetDefault("embedding.model", "text-embedding-004")
	viper.SetDefault("embedding.timeout", "30s")

	viper.SetDefault("harvest.concurrency", 10)
	viper.SetDefault("harvest.timeout", "60s")

	viper.SetDefault("portals.config_path", defaultPortalsPath())

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
}

func defaultPortalsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "portals.toml"
	}
	return filepath.Join(dir, "ceres", "portals.toml")
}

func bindEnvironmentVariables() {
	bindEnvKeys("database.connection_string", []string{
		"CERES_DATABASE_URL",
		"DATABASE_URL",
	})

	bindEnvKeys("embedding.api_key", []string{
		"CERES_EMBEDDING_API_KEY",
		"GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("portals.config_path", []string{
		"CERES_PORTALS_PATH",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"CERES_DEBUG",
	})
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Portals.ConfigPath != "" {
		config.Portals.ConfigPath = expandPath(config.Portals.ConfigPath)
	}

	durations := map[string]string{
		"embedding.timeout": config.Embedding.Timeout,
		"harvest.timeout":   config.Harvest.Timeout,
	}
	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func validateConfig(config *Config) error {
	var errors []string

	if config.Database.ConnectionString == "" {
		errors = append(errors, "database connection string is required. Set CERES_DATABASE_URL or database.connection_string in config file")
	}

	if config.Embedding.APIKey == "" {
		errors = append(errors, "embedding API key is required. Set CERES_EMBEDDING_API_KEY or embedding.api_key in config file")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Reset clears the global configuration. Intended for test use.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// GetHarvestTimeout parses the configured harvest timeout, falling back to
// 60 seconds if unset or invalid.
func GetHarvestTimeout() time.Duration {
	d, err := time.ParseDuration(Get().Harvest.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetEmbeddingTimeout parses the configured embedding timeout, falling back
// to 30 seconds if unset or invalid.
func GetEmbeddingTimeout() time.Duration {
	d, err := time.ParseDuration(Get().Embedding.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
