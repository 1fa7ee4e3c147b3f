package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearProviderEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retrieval.TopK)
	assert.Equal(t, 0.01, cfg.Retrieval.MinScore)
	assert.Equal(t, 50.0, cfg.Analytics.MasteryThreshold)
	assert.Equal(t, 60.0, cfg.Analytics.PassMark)
	assert.Equal(t, 5, cfg.Quiz.Size)
	assert.Zero(t, cfg.LLM.Timeout, "no deadline unless configured")
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)

	_, ok := cfg.LLMConfig()
	assert.False(t, ok, "generation must stay disabled without keys")
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearProviderEnv(t)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retrieval:
  top_k: 4
llm:
  provider: openai
  openai:
    api_key: sk-file
    model: gpt-4o
  timeout: 30s
server:
  cors_origins: ["http://localhost:3000"]
`), 0o644))

	t.Setenv("EDURAG_RETRIEVAL_TOP_K", "7")
	t.Setenv("EDURAG_ANALYTICS_PASS_MARK", "75")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Retrieval.TopK, "env overrides file")
	assert.Equal(t, 75.0, cfg.Analytics.PassMark)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)

	lc, ok := cfg.LLMConfig()
	require.True(t, ok)
	assert.Equal(t, "openai", lc.Provider)
	assert.Equal(t, "sk-file", lc.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", lc.OpenAI.Model)
	assert.Equal(t, 30*time.Second, lc.Timeout)
	assert.NoError(t, lc.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearProviderEnv(t)
	t.Setenv("EDURAG_QUIZ_SIZE", "")
	os.Unsetenv("EDURAG_QUIZ_SIZE")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EDURAG_QUIZ_SIZE=9\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("EDURAG_QUIZ_SIZE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Quiz.Size)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLLMConfig_Discovery(t *testing.T) {
	t.Chdir(t.TempDir())
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("")
	require.NoError(t, err)

	lc, ok := cfg.LLMConfig()
	require.True(t, ok)
	assert.Equal(t, "anthropic", lc.Provider)
	assert.Equal(t, "sk-ant", lc.Anthropic.APIKey)
	assert.Equal(t, 1, lc.Retry.MaxAttempts)
}
