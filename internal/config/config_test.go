package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.BaseURL)
	assert.Equal(t, "qwen3:8b", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 0.95, cfg.TopP)
	assert.Equal(t, 20000, cfg.MaxTokens)
	assert.Equal(t, 0.0, cfg.FrequencyPenalty)
	assert.Equal(t, 0.0, cfg.PresencePenalty)
	assert.Equal(t, 10, cfg.ContextWindow)
	assert.Equal(t, 2, cfg.MaxAttempts)
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	content := `{
		// project override
		"model": "llama3:70b",
		"maxAttempts": 4,
		"temperature": 0.2
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svgpro.jsonc"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "llama3:70b", cfg.Model)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, 0.2, cfg.Temperature)
	// untouched keys keep defaults
	assert.Equal(t, 0.95, cfg.TopP)
	assert.Equal(t, 10, cfg.ContextWindow)
}

func TestLoadZeroMaxAttemptsIsRespected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svgpro.json"),
		[]byte(`{"maxAttempts": 0}`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxAttempts)
}

func TestLoadMalformedConfigFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svgpro.json"),
		[]byte(`{"model": `), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SVGPRO_MODEL", "mistral:7b")
	t.Setenv("OLLAMA_HOST", "http://10.0.0.5:11434")
	t.Setenv("SVGPRO_MAX_ATTEMPTS", "1")
	t.Setenv("SVGPRO_CONTEXT_WINDOW", "25")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mistral:7b", cfg.Model)
	assert.Equal(t, "http://10.0.0.5:11434", cfg.BaseURL)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 25, cfg.ContextWindow)
}

func TestEnvOverridesBeatProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svgpro.json"),
		[]byte(`{"model": "from-file"}`), 0o644))
	t.Setenv("SVGPRO_MODEL", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
}

func TestDocumentResolvedAgainstDirectory(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "canvas.svg"), cfg.Document)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "svgpro.json")

	cfg := Default()
	cfg.Model = "saved-model"
	require.NoError(t, Save(cfg, path))

	loaded := Default()
	require.NoError(t, applyFile(loaded, path))
	assert.Equal(t, "saved-model", loaded.Model)
}
