package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfigFrom("missing")
	require.NoError(t, err)

	assert.Equal(t, "dipex", cfg.App.Name)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 20*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "INR", cfg.Extraction.DefaultCurrency)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	content := "DB_DRIVER=sqlite\nDB_URL=file:dipex.db\nKAFKA_BROKERS=k1:9092, k2:9092\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "test.env"), []byte(content), 0o644))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfigFrom("test")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:dipex.db", cfg.Database.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.True(t, cfg.VisionEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_GeminiProvider(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("OPENAI_API_KEY", "sk-ignored")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := LoadConfigFrom("missing")
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.False(t, cfg.VisionEnabled(), "gemini provider must not borrow the OpenAI key")
}

func TestConfig_Validate(t *testing.T) {
	chdirTemp(t)
	cfg, err := LoadConfigFrom("missing")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL is required")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	cfg.Database.DSN = "postgres://localhost/dipex"
	cfg.Database.Driver = "mysql"
	cfg.Extraction.DefaultCurrency = "RUPEE"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "DEFAULT_CURRENCY")

	cfg.Database.Driver = DriverPostgres
	for _, code := range []string{"inr", "IN1"} {
		cfg.Extraction.DefaultCurrency = code
		err = cfg.Validate()
		require.Error(t, err, code)
		assert.Contains(t, err.Error(), "DEFAULT_CURRENCY must be 3 uppercase letters", code)
	}
}
