package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	_, cfg, err := Parse(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "pos-server", cfg.Application)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "pos.db", cfg.Store.Path)
	assert.Equal(t, time.Second, cfg.Store.OpenTimeout)
	assert.False(t, cfg.POS.VerifyTotal)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Changelog.Kafka.Brokers)
	assert.Equal(t, 1024, cfg.Changelog.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Changelog.PublishTimeout)
}

func TestParseFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: "debug"
pos:
  verify_total: true
changelog:
  kafka:
    brokers: ["kafka-1:9092"]
`), 0o644))

	t.Setenv("POS_STORE__OPEN_TIMEOUT", "3s")
	t.Setenv("POS_CHANGELOG__FILE", "/tmp/feed.jsonl")
	t.Setenv("PORT", "8081")
	t.Setenv("DB_PATH", "/var/lib/pos/pos.db")

	_, cfg, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.POS.VerifyTotal)
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Changelog.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Store.OpenTimeout)
	assert.Equal(t, "/tmp/feed.jsonl", cfg.Changelog.File)
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, "/var/lib/pos/pos.db", cfg.Store.Path)
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"application", "logger.level", "http.addr", "store.path", "store.open_timeout", "changelog.queue_size", "changelog.publish_timeout"} {
		assert.Contains(t, err.Error(), field)
	}

	cfg = Config{
		Application: "pos",
		Logger:      Logger{Level: "info"},
		HTTP:        HTTP{Addr: ":1"},
		Store:       Store{Path: "x.db", OpenTimeout: time.Second},
		Changelog: Changelog{
			QueueSize:      8,
			PublishTimeout: time.Second,
			Kafka:          Kafka{Brokers: []string{"b:9092"}},
		},
	}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changelog.kafka.topic")

	cfg.Changelog.Kafka.Topic = "t"
	assert.NoError(t, cfg.Validate())
}
