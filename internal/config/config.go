// Package config loads service configuration from promptadmin.yaml and
// PROMPTADMIN_* environment variables, env taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type StoreConfig struct {
	// Driver selects the backend: "dynamo" or "badger".
	Driver   string `mapstructure:"driver"`
	Table    string `mapstructure:"table"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// Path is the badger database directory; empty means in-memory.
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("promptadmin")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/promptadmin")
	}

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("store.driver", "badger")
	v.SetDefault("store.table", "promptadmin")
	v.SetDefault("store.region", "us-east-1")
	v.SetDefault("store.in_memory", false)
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetEnvPrefix("PROMPTADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv is invisible to Unmarshal for keys that appear in
	// neither the defaults nor the file, so keys without a default are
	// bound explicitly to keep env-only deployments working.
	for _, key := range []string{"auth.jwt_secret", "store.endpoint", "store.path"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env and defaults carry it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	return &cfg, nil
}
