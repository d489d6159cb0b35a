package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Tracking TrackingConfig
	UI       UIConfig
}

// TrackingConfig holds endpoint and snapshot settings.
type TrackingConfig struct {
	Endpoint       string
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	StateDir       string `mapstructure:"state_dir"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	RevealAnimation bool `mapstructure:"reveal_animation"`
}

// Timeout converts the configured request timeout, falling back to the
// upstream client's historical 15s default when unset or invalid.
func (t TrackingConfig) Timeout() time.Duration {
	if t.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Load reads configuration from file and env. Env var overrides use prefix
// PARCELTRACK_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("tracking.endpoint", "http://127.0.0.1:8000")
	v.SetDefault("tracking.timeout_seconds", 15)
	v.SetDefault("tracking.state_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "parceltrack"))
	v.SetDefault("ui.reveal_animation", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PARCELTRACK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "parceltrack"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PARCELTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
