// Package config defines the service configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"time"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/logger"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `koanf:"port"`

	// StorageURI selects and addresses the storage backend. The scheme picks
	// the backend: mongodb://, mongodb+srv://, mysql://<dsn> or badger://<dir>.
	StorageURI string `koanf:"storage_uri"`

	// Database and Collection name the MongoDB namespace of the contacts.
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// GinMode is passed to gin.SetMode: debug, release or test.
	GinMode string `koanf:"gin_mode"`

	// RequestLogging turns gin's per-request access log on or off.
	RequestLogging bool `koanf:"request_logging"`

	// ShutdownTimeout bounds how long in-flight requests may take on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Port:            8088,
		StorageURI:      "mongodb://localhost:27017",
		Database:        "contacts",
		Collection:      "contacts",
		LogLevel:        "info",
		GinMode:         "release",
		RequestLogging:  true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks the values that the service cannot start without.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.StorageURI == "" {
		return fmt.Errorf("%w: storage_uri must not be empty", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: unknown gin_mode %q", ErrInvalidConfig, c.GinMode)
	}
	return nil
}
