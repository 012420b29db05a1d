package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/daylog/internal/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, filepath.Join(home, "daylog"), cfg.Vault.Root)
	assert.Equal(t, filepath.Join(home, "daylog", "Daily"), cfg.Vault.Daily)
	assert.Equal(t, filepath.Join(home, "daylog", "Projects"), cfg.Vault.Projects)
	assert.Equal(t, filepath.Join(home, "daylog", "Inbox"), cfg.Vault.Inbox)
	assert.True(t, cfg.Processing.SaveTranscript)
	assert.True(t, cfg.Processing.TrackCompletedTodos)
	assert.False(t, cfg.Processing.DeleteAfterProcessing)
	assert.Equal(t, 1, cfg.Processing.Workers)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, llm.ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, 60000, cfg.LLM.TimeoutMs)
	assert.Equal(t, 90000, cfg.LLM.TaskTimeout(llm.TaskWeekly))
	assert.Equal(t, 2048, cfg.LLM.Tasks[llm.TaskDailyNote].MaxTokens)
}

func TestLoad_FileValuesAndRelativePaths(t *testing.T) {
	p := writeConfig(t, `
vault:
  root: vault
  daily: Journal/Daily
  transcript_folder: raw
projects: [Project X, "Project Y"]
processing:
  workers: 3
  min_words: 5
  delete_after_processing: true
  transcriber:
    command: whisper {input}
    extensions: [.m4a]
storage:
  backend: SQLite
  sqlite_path: state/daylog.db
llm:
  provider: openai
  endpoint: https://api.example.com
  model: small
  weekly_model: large
  tasks:
    todos:
      timeout_ms: 1234
`)
	dir := filepath.Dir(p)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, p, cfg.File)
	assert.Equal(t, filepath.Join(dir, "vault"), cfg.Vault.Root)
	assert.Equal(t, filepath.Join(dir, "vault", "Journal", "Daily"), cfg.Vault.Daily)
	assert.Equal(t, filepath.Join(dir, "vault", "Journal", "Daily", "raw"), cfg.Paths().Transcripts)
	assert.Equal(t, filepath.Join(dir, "vault", "Journal", "Daily", "Debug"), cfg.Paths().Debug)
	assert.Equal(t, []string{"Project X", "Project Y"}, cfg.Projects)
	assert.Equal(t, 3, cfg.Processing.Workers)
	assert.Equal(t, 5, cfg.Processing.MinWords)
	assert.True(t, cfg.Processing.DeleteAfterProcessing)
	assert.True(t, cfg.Processing.SaveTranscript, "unset keys keep defaults")
	assert.Equal(t, "whisper {input}", cfg.Processing.Transcriber.Command)
	assert.Equal(t, []string{".m4a"}, cfg.Processing.Transcriber.Extensions)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "state", "daylog.db"), cfg.Storage.SQLitePath)

	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "small", cfg.LLM.TaskModel(llm.TaskDailyNote))
	assert.Equal(t, "large", cfg.LLM.TaskModel(llm.TaskWeekly))
	assert.Equal(t, 1234, cfg.LLM.TaskTimeout(llm.TaskTodos))
	assert.Equal(t, 1024, cfg.LLM.Tasks[llm.TaskTodos].MaxTokens, "task defaults survive a partial override")
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeConfig(t, "llm:\n  model: from-file\n")
	vault := t.TempDir()
	t.Setenv("DAYLOG_VAULT", vault)
	t.Setenv("DAYLOG_DEBUG_LLM", "true")
	t.Setenv("DAYLOG_LLM_MODEL", "from-env")
	t.Setenv("DAYLOG_LLM_API_KEY", "secret")
	t.Setenv("DAYLOG_LLM_WEEKLY_TIMEOUT_MS", "5000")
	t.Setenv("DAYLOG_PROCESSING_WORKERS", "4")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, vault, cfg.Vault.Root)
	assert.True(t, cfg.Processing.DebugLLM)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 5000, cfg.LLM.TaskTimeout(llm.TaskWeekly))
	assert.Equal(t, 4, cfg.Processing.Workers)
}

func TestLoad_APIKeyFile(t *testing.T) {
	p := writeConfig(t, "llm:\n  provider: openai\n  api_key_file: key.txt\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(p), "key.txt"), []byte("sk-test\n"), 0o600))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)

	p = writeConfig(t, "llm:\n  api_key_file: missing.txt\n")
	_, err = Load(p)
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, "vault: [unclosed\n")
	_, err := Load(p)
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Vault:      VaultConfig{Root: "/v", TranscriptFolder: "Transcripts"},
			Processing: ProcessingConfig{Workers: 1},
			Storage:    StorageConfig{Backend: BackendFile},
			LLM:        LLMSection{LLMConfig: llm.DefaultConfig()},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"provider", func(c *Config) { c.LLM.Provider = "anthropic" }, "invalid llm provider"},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, "invalid storage backend"},
		{"sqlite path", func(c *Config) { c.Storage = StorageConfig{Backend: BackendSQLite} }, "sqlite_path"},
		{"workers", func(c *Config) { c.Processing.Workers = 0 }, "workers"},
		{"words", func(c *Config) { c.Processing.MinWords, c.Processing.MaxWords = 10, 5 }, "min_words"},
		{"durations", func(c *Config) { c.Processing.MinDurationSeconds, c.Processing.MaxDurationSeconds = 60, 30 }, "min_duration_seconds"},
		{"transcript folder", func(c *Config) { c.Vault.TranscriptFolder = "/abs" }, "transcript_folder"},
		{"timeout", func(c *Config) { c.LLM.TimeoutMs = 0 }, "timeout_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("DAYLOG_CONFIG", "/etc/daylog.yaml")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/daylog.yaml", p)

	home := t.TempDir()
	t.Setenv("DAYLOG_CONFIG", "")
	t.Setenv("HOME", home)
	p, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".daylog", "config.yaml"), p)
}
