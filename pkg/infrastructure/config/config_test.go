package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/dough/pkg/domain/entities"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dough.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
http:
  addr: 127.0.0.1:9090
tick:
  interval: 250ms
seed:
  file: seed.csv
ids:
  strategy: snowflake
  node: 7
policy:
  box_size: 60
  strict_validation: true
`)
	t.Setenv("DOUGH_POLICY_TRAY_CAPACITY", "10")
	t.Setenv("DOUGH_POLICY_ENFORCE_DEFROST_COMPLETE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick.Interval)
	assert.Equal(t, "seed.csv", cfg.Seed.File)
	assert.Equal(t, IDConfig{Strategy: "snowflake", Node: 7}, cfg.IDs)

	assert.Equal(t, entities.Quantity(10), cfg.Policy.TrayCapacity)
	assert.Equal(t, entities.Quantity(60), cfg.Policy.BoxSize)
	assert.Equal(t, 48.0, cfg.Policy.MinProveHours)
	assert.True(t, cfg.Policy.StrictValidation)
	assert.True(t, cfg.Policy.EnforceDefrostComplete)
	assert.False(t, cfg.Policy.StrictFrozenStock)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "policy:\n  warn_hours: 130\n"))
	assert.ErrorIs(t, err, entities.ErrInvalidPolicy)

	_, err = Load(writeConfig(t, "tick:\n  interval: 0s\n"))
	assert.ErrorContains(t, err, "tick.interval")
}
