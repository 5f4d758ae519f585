package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 3, cfg.Pipeline.TopK)
	assert.Equal(t, "substring", cfg.Pipeline.Scorer)
	assert.Equal(t, 75, cfg.Pipeline.FallbackConfidence)
	assert.Equal(t, 10, cfg.Pipeline.MinContentChars)
	assert.True(t, cfg.Pipeline.RecordFailures)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout())
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[pipeline]
chunk_size = 500
scorer = "overlap"

[llm]
model = "qwen3-max"
timeout_seconds = 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PIPELINE_TOP_K", "5")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("RABBITMQ_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 500, cfg.Pipeline.ChunkSize)
	assert.Equal(t, "overlap", cfg.Pipeline.Scorer)
	assert.Equal(t, 5, cfg.Pipeline.TopK)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout())
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("PIPELINE_CHUNK_SIZE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Pipeline.ChunkSize)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.ChunkSize = 0
	cfg.Pipeline.Scorer = "embedding"
	cfg.Pipeline.FallbackConfidence = 120

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_size")
	assert.Contains(t, err.Error(), "scorer")
	assert.Contains(t, err.Error(), "fallback_confidence")
}

func TestValidate_FallbackConfidenceBounds(t *testing.T) {
	var cases = []struct {
		value int
		ok    bool
	}{
		{value: 0},
		{value: -5},
		{value: 101},
		{value: 1, ok: true},
		{value: 100, ok: true},
	}

	for _, c := range cases {
		cfg := defaultConfig()
		cfg.Pipeline.FallbackConfidence = c.value
		err := cfg.Validate()
		if c.ok {
			assert.NoError(t, err, "value %d", c.value)
			continue
		}
		require.Error(t, err, "value %d", c.value)
		assert.Contains(t, err.Error(), "fallback_confidence")
	}
}

func TestLoad_RejectsZeroFallbackConfidence(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("PIPELINE_FALLBACK_CONFIDENCE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback_confidence")
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "app"
	cfg.MySQL.Password = "secret"

	assert.Equal(t, "app:secret@tcp(127.0.0.1:3306)/docanalyst?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}
