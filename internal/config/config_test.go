package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsxjacky/marketdata-loader/internal/data"
)

func TestLoadAndValidate(t *testing.T) {
	cfg, err := LoadAndValidate(filepath.Join("testdata", "job.yaml"))
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, "btc_trades", cfg.Sources[0].Name)
	assert.Equal(t, data.SourceTardisTrades, cfg.Sources[0].Kind)
	assert.Equal(t, "ts", cfg.Sources[1].IndexColumn)
	assert.Equal(t, "out", cfg.GetOutputPath())
	assert.Equal(t, "csv", cfg.GetOutputFormat())
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, "debug", cfg.GetLogLevel())

	opts := cfg.Sources[1].ToOptions()
	assert.Equal(t, "ts", opts.IndexColumn)
	assert.Equal(t, data.Fixed("%Y-%m-%d %H:%M:%S"), opts.Format)
	assert.Equal(t, data.ISO8601(), cfg.Sources[0].ToOptions().Format)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "output", cfg.GetOutputPath())
	assert.Equal(t, 1, cfg.GetWorkers())
	assert.Equal(t, "info", cfg.GetLogLevel())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Sources: []SourceConfig{{Name: "a", Kind: data.SourceCSVBars, Path: "a.csv"}}}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no sources", func(c *Config) { c.Sources = nil }, "no sources"},
		{"missing name", func(c *Config) { c.Sources[0].Name = "" }, "has no name"},
		{"duplicate name", func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) }, "duplicate source name"},
		{"unknown kind", func(c *Config) { c.Sources[0].Kind = "xlsx" }, "unknown kind"},
		{"missing path", func(c *Config) { c.Sources[0].Path = "" }, "has no path"},
		{"bad output format", func(c *Config) { c.Output.Format = "json" }, "unknown output format"},
		{"negative workers", func(c *Config) { c.Runner.Workers = -1 }, "workers"},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [unclosed"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}
