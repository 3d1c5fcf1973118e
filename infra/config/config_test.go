package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pebble", cfg.Store.Engine)
	assert.Equal(t, time.Hour, cfg.Journal.SegmentDuration)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.PollInterval)
	assert.Len(t, cfg.Assets, 4)
	assert.Equal(t, int32(18), cfg.Assets[2].Decimals)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  engine: badger
  dir: /tmp/junction
expiry:
  interval: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Store.Engine)
	assert.Equal(t, 30*time.Second, cfg.Expiry.Interval)
	// Untouched sections keep their defaults.
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
	assert.Equal(t, "data/journal", cfg.Journal.Dir)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("JUNCTION_STORE_ENGINE", "badger")
	t.Setenv("JUNCTION_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Store.Engine)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		field  string
		mutate func(*Config)
	}{
		{"engine", "store.engine", func(c *Config) { c.Store.Engine = "leveldb" }},
		{"kafka brokers", "kafka.brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"duplicate asset", "assets[1]", func(c *Config) { c.Assets = []Asset{{Symbol: "ICP"}, {Symbol: "ICP"}} }},
		{"decimals", "assets[0]", func(c *Config) { c.Assets = []Asset{{Symbol: "X", Decimals: 40}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			var ce *ConfigError
			err := cfg.Validate()
			require.True(t, errors.As(err, &ce), "got %v", err)
			require.Equal(t, tc.field, ce.Field)
		})
	}
	require.NoError(t, Default().Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [unterminated"))
	require.Error(t, err)
}
