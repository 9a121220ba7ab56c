package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable Load reads,
// e.g. TASKER_DATABASE_URL for database.url.
const EnvPrefix = "TASKER"

var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"server.read_timeout":         "15s",
	"server.write_timeout":        "15s",
	"server.shutdown_timeout":     "10s",
	"database.url":                "",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  "5m",
	"auth.jwt_secret":             "",
	"auth.issuer":                 "tasker-api",
	"auth.token_lifetime_minutes": 60,
	"auth.bcrypt_cost":            10,
	"auth.admin_name":             "admin",
	"auth.admin_password":         "",
	"redis.addr":                  "",
	"redis.password":              "",
	"redis.db":                    0,
	"redis.login_rate_per_minute": 10,
	"redis.login_burst":           5,
	"telemetry.service_name":      "tasker-api",
	"telemetry.otlp_endpoint":     "",
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
