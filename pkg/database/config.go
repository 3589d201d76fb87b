package database

import (
	"fmt"
	"time"

	"github.com/reflector-core/reflector/pkg/config"
)

// Config holds database configuration. It mirrors config.DatabaseConfig
// rather than loading its own environment variables; pkg/config is the
// single place env vars are read, per the ambient-stack layering.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FromAppConfig adapts the application-wide config.DatabaseConfig into the
// shape NewClient expects.
func FromAppConfig(c config.DatabaseConfig) Config {
	return Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// Validate checks the configuration's connection-pool invariants.
func (c Config) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)",
			c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot be negative")
	}
	return nil
}
