package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cosmic  CosmicConfig  `mapstructure:"cosmic"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port string    `mapstructure:"port"`
	TLS  TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// CosmicConfig holds the credentials and endpoint for the hosted content
// bucket. BucketSlug and ReadKey are mandatory; WriteKey is only used by
// the signup insert path.
type CosmicConfig struct {
	BucketSlug     string        `mapstructure:"bucket_slug"`
	ReadKey        string        `mapstructure:"read_key"`
	WriteKey       string        `mapstructure:"write_key"`
	BaseURL        string        `mapstructure:"base_url"`
	APIEnvironment string        `mapstructure:"api_environment"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds session cookie configuration. Sessions only carry
// short-lived flash messages, so the lifetime stays small.
type SessionConfig struct {
	Lifetime int `mapstructure:"lifetime"` // hours
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", "8080")
	// Credentials default to empty so the keys exist for AutomaticEnv;
	// without a known key viper will not surface the env var on Unmarshal.
	viper.SetDefault("cosmic.bucket_slug", "")
	viper.SetDefault("cosmic.read_key", "")
	viper.SetDefault("cosmic.write_key", "")
	viper.SetDefault("cosmic.base_url", "https://api.cosmicjs.com")
	viper.SetDefault("cosmic.api_environment", "staging")
	viper.SetDefault("cosmic.timeout", 15*time.Second)
	viper.SetDefault("session.lifetime", 1)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	// Set up viper to read from config file
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/community-support-hub/")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	viper.SetEnvPrefix("HUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal the config into the Config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
