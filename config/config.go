// Package config loads and validates the server configuration.
package config

import (
	"errors"
	"fmt"
	"time"
)

// DefaultConfig holds the built-in defaults, overridden by the config file
// and the environment.
var DefaultConfig = []byte(`
application: "pos-server"

logger:
  level: "info"

is_prod_mode: false

http:
  addr: ":5000"
  cors_origin: "*"
  read_timeout: "10s"
  write_timeout: "10s"
  shutdown_timeout: "15s"

store:
  path: "pos.db"
  open_timeout: "1s"

pos:
  verify_total: false

changelog:
  file: ""
  queue_size: 1024
  publish_timeout: "5s"
  kafka:
    brokers: []
    topic: "pos-transactions"
  redis:
    addr: ""
    password: ""
    key_prefix: "pos-failed-events"

metrics:
  enabled: true
`)

// Config is the full application configuration.
type Config struct {
	Application string    `koanf:"application"`
	Logger      Logger    `koanf:"logger"`
	IsProdMode  bool      `koanf:"is_prod_mode"`
	HTTP        HTTP      `koanf:"http"`
	Store       Store     `koanf:"store"`
	POS         POS       `koanf:"pos"`
	Changelog   Changelog `koanf:"changelog"`
	Metrics     Metrics   `koanf:"metrics"`
}

// Logger configures the zap logger.
type Logger struct {
	Level string `koanf:"level"`
}

// HTTP configures the listener and its timeouts.
type HTTP struct {
	Addr            string        `koanf:"addr"`
	CORSOrigin      string        `koanf:"cors_origin"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Store locates the BoltDB file.
type Store struct {
	Path        string        `koanf:"path"`
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// POS holds purchase behaviour switches.
type POS struct {
	// VerifyTotal recomputes purchase totals from catalog prices instead of
	// trusting the client-supplied value.
	VerifyTotal bool `koanf:"verify_total"`
}

// Changelog configures the change feed. Events are buffered in a queue of
// QueueSize and each delivery is bounded by PublishTimeout.
type Changelog struct {
	File           string        `koanf:"file"`
	QueueSize      int           `koanf:"queue_size"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
	Kafka          Kafka         `koanf:"kafka"`
	Redis          Redis         `koanf:"redis"`
}

// Kafka configures the change-feed producer. An empty broker list disables it.
type Kafka struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// Redis configures the dead-letter queue for events Kafka did not accept.
type Redis struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	KeyPrefix string `koanf:"key_prefix"`
}

// Metrics controls the /metrics endpoint.
type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

// FieldErrors collects validation failures keyed by config path.
type FieldErrors struct {
	errs []error
}

// Add records msg against field.
func (fe *FieldErrors) Add(field, msg string) {
	fe.errs = append(fe.errs, fmt.Errorf("%s: %s", field, msg))
}

// Err returns the joined errors, or nil if none were added.
func (fe *FieldErrors) Err() error {
	return errors.Join(fe.errs...)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := &FieldErrors{}

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.HTTP.Addr == "" {
		ve.Add("http.addr", "cannot be empty")
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		ve.Add("http", "timeouts cannot be negative")
	}
	if c.Store.Path == "" {
		ve.Add("store.path", "cannot be empty")
	}
	if c.Store.OpenTimeout <= 0 {
		ve.Add("store.open_timeout", "must be positive")
	}
	if c.Changelog.QueueSize <= 0 {
		ve.Add("changelog.queue_size", "must be positive")
	}
	if c.Changelog.PublishTimeout <= 0 {
		ve.Add("changelog.publish_timeout", "must be positive")
	}
	if len(c.Changelog.Kafka.Brokers) > 0 && c.Changelog.Kafka.Topic == "" {
		ve.Add("changelog.kafka.topic", "cannot be empty when brokers are set")
	}

	return ve.Err()
}
