package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "arcade-scores", cfg.Kafka.Topic)
	assert.Equal(t, "arcade-consumer", cfg.Kafka.GroupID)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 10, cfg.Leaderboard.TopSize)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 3000
  read_timeout: 10s
postgres:
  host: db.internal
  port: 5433
  user: arcade
  password: secret
  database: arcade
redis:
  addr: cache.internal:6379
kafka:
  enabled: true
  brokers:
    - broker1:9092
    - broker2:9092
  topic: scores
sync:
  enabled: true
  interval: 5m
auth:
  jwt_secret: test-secret
  token_ttl: 2h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "scores", cfg.Kafka.Topic)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")
	path := writeConfigFile(t, "postgres:\n  password: ${TEST_DB_PASSWORD}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "arcade",
		Password: "pw",
		Database: "arcade",
	}
	assert.Equal(t,
		"postgres://arcade:pw@localhost:5432/arcade?sslmode=disable",
		cfg.ConnectionString(),
	)

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.ConnectionString(), "sslmode=require")
}

func TestDefaultConfigEnablesSync(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Kafka.Enabled)
}
