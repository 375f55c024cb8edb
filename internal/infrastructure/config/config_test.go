package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "salesledger-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "daily_sales_report", cfg.RabbitMQ.ReportQueue)
	assert.Equal(t, 10, cfg.RabbitMQ.PrefetchCount)
	assert.Equal(t, 12, cfg.Scheduler.DailyReportHour)
	assert.Equal(t, 0, cfg.Scheduler.DailyReportMinute)
	assert.Equal(t, 3, cfg.Scheduler.MaxConcurrentJobs)
	assert.Equal(t, 5*time.Second, cfg.Invoicing.LockTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LEDGER_DATABASE_HOST", "db.internal")
	t.Setenv("LEDGER_RABBITMQ_REPORT_QUEUE", "reports.test")
	t.Setenv("LEDGER_APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "reports.test", cfg.RabbitMQ.ReportQueue)
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("LEDGER_APP_ENV", "production")
	t.Setenv("LEDGER_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "salesledger",
		SSLMode: "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=salesledger")
	assert.Contains(t, dsn, "sslmode=disable")
}
