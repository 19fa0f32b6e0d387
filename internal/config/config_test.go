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
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090

[ledger]
backend = "redis"
operation_timeout_ms = 500

[scheduler]
timezone = "Europe/Moscow"
show_full_slots = false
initial_status = "pending"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, LedgerBackendRedis, cfg.Ledger.Backend)
	assert.Equal(t, int64(500), cfg.Ledger.OperationTimeout().Milliseconds())
	assert.False(t, cfg.Scheduler.ShowFullSlots)
	assert.Equal(t, "pending", cfg.Scheduler.InitialStatus)
	// не переопределено в файле
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[ledger]
backend = "redis"
`)
	t.Setenv("SLOTS_LEDGER_BACKEND", "memory")
	t.Setenv("SLOTS_DATABASE_HOST", "db.internal")
	t.Setenv("SLOTS_SCHEDULER_RESERVE_RETRIES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, LedgerBackendMemory, cfg.Ledger.Backend)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5, cfg.Scheduler.ReserveRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "etcd" }},
		{"zero ledger timeout", func(c *Config) { c.Ledger.OperationTimeoutMs = 0 }},
		{"bad initial status", func(c *Config) { c.Scheduler.InitialStatus = "cancelled" }},
		{"negative retries", func(c *Config) { c.Scheduler.ReserveRetries = -1 }},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }},
		{"reconciler without interval", func(c *Config) { c.Reconciler.Interval = 0 }},
		{"ratelimit without burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, Default().Validate())
}
