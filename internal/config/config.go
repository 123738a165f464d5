package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Store    StoreConfig    `mapstructure:"store"    validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker"   validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
	Notifier NotifierConfig `mapstructure:"notifier" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects and configures the task registry backing store.
type StoreConfig struct {
	// Driver selects the task store implementation.
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres"`

	// DatabaseURL is the Postgres connection string. Required when
	// Driver is "postgres".
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Driver postgres,omitempty,url"`
}

// BrokerConfig selects and configures the work queue and result backend.
type BrokerConfig struct {
	// Driver selects the broker implementation.
	Driver string `mapstructure:"driver" validate:"required,oneof=memory redis"`

	// RedisAddr is the host:port of the Redis instance backing the queue
	// and result backend. Required when Driver is "redis".
	RedisAddr string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`

	// Queue is the Redis list the broker pushes jobs onto.
	Queue string `mapstructure:"queue" validate:"required"`

	// QueueSize bounds the in-memory queue when Driver is "memory".
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}

// WorkerConfig tunes the executor pool.
type WorkerConfig struct {
	Count int `mapstructure:"count" validate:"required,gt=0"`
}

// NotifierConfig tunes outbound notification delivery.
type NotifierConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"required,gt=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"    validate:"required,gt=0"`
	MaxAttempts    int           `mapstructure:"max_attempts"    validate:"required,gt=0"`
}
