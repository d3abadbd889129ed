package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all broker and shim configuration.
type Config struct {
	Broker  BrokerConfig
	Queue   QueueConfig
	Shm     ShmConfig
	Admin   AdminConfig
	Logging LogConfig
}

// BrokerConfig holds the socket endpoint shared by broker and clients.
type BrokerConfig struct {
	SocketPath  string        `envconfig:"IPC_SOCKET_PATH" default:"/tmp/ipc_service_socket"`
	DialTimeout time.Duration `envconfig:"IPC_DIAL_TIMEOUT" default:"5s"`
}

// QueueConfig holds message queue sizing.
type QueueConfig struct {
	Capacity int `envconfig:"IPC_QUEUE_CAPACITY" default:"10"`
}

// ShmConfig holds shared-memory table settings for the shim.
type ShmConfig struct {
	Dir    string `envconfig:"IPC_SHM_DIR" default:"/dev/shm"`
	Prefix string `envconfig:"IPC_SHM_PREFIX" default:"fake_shm"`
	Slots  int    `envconfig:"IPC_SHM_SLOTS" default:"10"`
}

// AdminConfig holds the broker's HTTP admin endpoint.
type AdminConfig struct {
	Addr    string `envconfig:"IPC_ADMIN_ADDR" default:"127.0.0.1:9105"`
	Enabled bool   `envconfig:"IPC_ADMIN_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			SocketPath:  "/tmp/ipc_service_socket",
			DialTimeout: 5 * time.Second,
		},
		Queue: QueueConfig{
			Capacity: 10,
		},
		Shm: ShmConfig{
			Dir:    "/dev/shm",
			Prefix: "fake_shm",
			Slots:  10,
		},
		Admin: AdminConfig{
			Addr:    "127.0.0.1:9105",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
