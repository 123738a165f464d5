package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and, if present, a
// config file. Environment variables take precedence and use the NASK_
// prefix with underscores for nesting, e.g. NASK_SERVER_PORT or
// NASK_BROKER_REDIS_ADDR. Returns a populated Config or an error if
// loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; only a malformed one is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("NASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")

	v.SetDefault("broker.driver", "memory")
	v.SetDefault("broker.redis_addr", "")
	v.SetDefault("broker.queue", "nask:jobs")
	v.SetDefault("broker.queue_size", 256)

	v.SetDefault("worker.count", 4)

	v.SetDefault("notifier.connect_timeout", 5*time.Second)
	v.SetDefault("notifier.read_timeout", 30*time.Second)
	v.SetDefault("notifier.max_attempts", 1)
}
