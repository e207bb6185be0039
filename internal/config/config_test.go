package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5432
  user: emess
  password: secret
  database: emess
rabbitmq:
  host: mq.internal
  port: 5672
  user: guest
  password: guest
http:
  port: 8080
reporting:
  dashboard_period_days: 14
  insights_period_days: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "mq.internal", cfg.RabbitMQ.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 14, cfg.Reporting.DashboardPeriodDays)
	assert.Equal(t, 60, cfg.Reporting.InsightsPeriodDays)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
rabbitmq:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, 30, cfg.Reporting.DashboardPeriodDays)
	assert.Equal(t, 90, cfg.Reporting.InsightsPeriodDays)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing database host", func(t *testing.T) {
		path := writeConfig(t, "rabbitmq:\n  host: localhost\n")
		_, err := Load(path)
		assert.ErrorContains(t, err, "database.host")
	})

	t.Run("missing rabbitmq host", func(t *testing.T) {
		path := writeConfig(t, "database:\n  host: localhost\n")
		_, err := Load(path)
		assert.ErrorContains(t, err, "rabbitmq.host")
	})
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "database: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}
