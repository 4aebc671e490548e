package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.MaxCustomers)
	assert.Equal(t, 10, cfg.MaxTables)
	assert.Equal(t, 5, cfg.NumWaiters)
	assert.Equal(t, 2, cfg.NumCooks)
	assert.Equal(t, int64(180), cfg.CloseAt)
	assert.Equal(t, 100*time.Millisecond, cfg.MinuteScale)
	assert.Equal(t, "steady", cfg.ArrivalPattern)
	assert.Equal(t, "console", cfg.OutputFormat)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DINESIM_MAX_TABLES", "3")
	t.Setenv("DINESIM_MINUTE_SCALE", "1ms")

	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxTables)
	assert.Equal(t, time.Millisecond, cfg.MinuteScale)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dinesim.yaml")
	content := "num_cooks: 4\nclose_at: 240\ncloud_storage:\n  bucket_name: sessions\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NumCooks)
	assert.Equal(t, int64(240), cfg.CloseAt)
	assert.Equal(t, "sessions", cfg.CloudStorage.BucketName)
	assert.Equal(t, 5, cfg.NumWaiters)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no tables", func(c *Config) { c.MaxTables = 0 }},
		{"no cooks", func(c *Config) { c.NumCooks = 0 }},
		{"negative eat time", func(c *Config) { c.EatMinutes = -1 }},
		{"negative scale", func(c *Config) { c.MinuteScale = -time.Second }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"waiter areas overrun cook queue", func(c *Config) { c.NumWaiters = 6 }},
		{"cook queue overruns region", func(c *Config) { c.RegionWords = 1200 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.Validate())
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_ValidateLayout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ipc.DefaultLayout(), cfg.Layout())

	cfg.NumWaiters = 6
	assert.ErrorIs(t, cfg.Validate(), ipc.ErrInvalidLayout)
}
