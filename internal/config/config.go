// Package config loads daylog settings from a YAML file and DAYLOG_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alexanderramin/daylog/internal/llm"
)

// Storage backends for todo lists.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the complete daylog configuration.
type Config struct {
	Vault      VaultConfig      `mapstructure:"vault"`
	Projects   []string         `mapstructure:"projects"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Storage    StorageConfig    `mapstructure:"storage"`
	LLM        LLMSection       `mapstructure:"llm"`

	// File is the config file that was read; empty when only defaults and
	// the environment were used.
	File string `mapstructure:"-"`
}

// VaultConfig locates the note areas. Root is resolved against the config
// file's directory, the other folders against Root.
type VaultConfig struct {
	Root             string `mapstructure:"root"`
	Daily            string `mapstructure:"daily"`
	Projects         string `mapstructure:"projects"`
	Inbox            string `mapstructure:"inbox"`
	TranscriptFolder string `mapstructure:"transcript_folder"` // inside Daily
	DebugFolder      string `mapstructure:"debug_folder"`      // inside Daily
}

type TranscriberConfig struct {
	// Command runs speech-to-text on one file; "{input}" is replaced by its
	// path. Empty means inbox files are already text transcripts.
	Command        string   `mapstructure:"command"`
	Extensions     []string `mapstructure:"extensions"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

type ProcessingConfig struct {
	SaveTranscript        bool              `mapstructure:"save_transcript"`
	DebugLLM              bool              `mapstructure:"debug_llm"`
	TrackCompletedTodos   bool              `mapstructure:"track_completed_todos"`
	DeleteAfterProcessing bool              `mapstructure:"delete_after_processing"`
	Workers               int               `mapstructure:"workers"`
	MinWords              int               `mapstructure:"min_words"`
	MaxWords              int               `mapstructure:"max_words"`
	MinDurationSeconds    int               `mapstructure:"min_duration_seconds"`
	MaxDurationSeconds    int               `mapstructure:"max_duration_seconds"`
	Transcriber           TranscriberConfig `mapstructure:"transcriber"`
}

func (p ProcessingConfig) MinDuration() time.Duration {
	return time.Duration(p.MinDurationSeconds) * time.Second
}

func (p ProcessingConfig) MaxDuration() time.Duration {
	return time.Duration(p.MaxDurationSeconds) * time.Second
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LLMSection is the backend configuration plus the weekly model shortcut.
type LLMSection struct {
	llm.LLMConfig `mapstructure:",squash"`
	WeeklyModel   string `mapstructure:"weekly_model"`
}

// Paths is the resolved filesystem layout.
type Paths struct {
	Root        string
	Daily       string
	Projects    string
	Inbox       string
	Transcripts string
	Debug       string
}

func (c *Config) Paths() Paths {
	return Paths{
		Root:        c.Vault.Root,
		Daily:       c.Vault.Daily,
		Projects:    c.Vault.Projects,
		Inbox:       c.Vault.Inbox,
		Transcripts: filepath.Join(c.Vault.Daily, c.Vault.TranscriptFolder),
		Debug:       filepath.Join(c.Vault.Daily, c.Vault.DebugFolder),
	}
}

// DefaultPath is $DAYLOG_CONFIG, or ~/.daylog/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv("DAYLOG_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".daylog", "config.yaml"), nil
}

// Load reads the config file at path (a missing file means defaults),
// applies environment overrides, resolves paths and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DAYLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("vault.root", "DAYLOG_VAULT_ROOT", "DAYLOG_VAULT")
	_ = v.BindEnv("processing.debug_llm", "DAYLOG_PROCESSING_DEBUG_LLM", "DAYLOG_DEBUG_LLM")

	file := ""
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config: %w", err)
			}
			file = path
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.File = file
	llm.ApplyEnv(&cfg.LLM.LLMConfig)

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vault.root", "~/daylog")
	v.SetDefault("vault.daily", "Daily")
	v.SetDefault("vault.projects", "Projects")
	v.SetDefault("vault.inbox", "Inbox")
	v.SetDefault("vault.transcript_folder", "Transcripts")
	v.SetDefault("vault.debug_folder", "Debug")

	v.SetDefault("projects", []string{})

	v.SetDefault("processing.save_transcript", true)
	v.SetDefault("processing.debug_llm", false)
	v.SetDefault("processing.track_completed_todos", true)
	v.SetDefault("processing.delete_after_processing", false)
	v.SetDefault("processing.workers", 1)
	v.SetDefault("processing.min_words", 0)
	v.SetDefault("processing.max_words", 0)
	v.SetDefault("processing.min_duration_seconds", 5)
	v.SetDefault("processing.max_duration_seconds", 1800)
	v.SetDefault("processing.transcriber.command", "")
	v.SetDefault("processing.transcriber.extensions", []string{})
	v.SetDefault("processing.transcriber.timeout_seconds", 600)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.sqlite_path", "~/.daylog/daylog.db")

	d := llm.DefaultConfig()
	v.SetDefault("llm.provider", string(d.Provider))
	v.SetDefault("llm.log_calls", d.LogCalls)
	v.SetDefault("llm.endpoint", d.Endpoint)
	v.SetDefault("llm.model", d.Model)
	v.SetDefault("llm.weekly_model", "")
	v.SetDefault("llm.api_key_file", "")
	v.SetDefault("llm.timeout_ms", d.TimeoutMs)
	v.SetDefault("llm.requests_per_minute", d.RequestsPerMinute)
	for task, tc := range d.Tasks {
		prefix := "llm.tasks." + string(task) + "."
		v.SetDefault(prefix+"temperature", tc.Temperature)
		v.SetDefault(prefix+"max_tokens", tc.MaxTokens)
		v.SetDefault(prefix+"timeout_ms", tc.TimeoutMs)
		v.SetDefault(prefix+"model", tc.Model)
	}
}

// resolve turns configured paths into absolute ones and loads the API key
// file.
func (c *Config) resolve() error {
	base, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("finding working directory: %w", err)
	}
	if c.File != "" {
		base = filepath.Dir(c.File)
	}

	if c.Vault.Root, err = resolvePath(base, c.Vault.Root); err != nil {
		return err
	}
	for _, p := range []*string{&c.Vault.Daily, &c.Vault.Projects, &c.Vault.Inbox} {
		if *p, err = resolvePath(c.Vault.Root, *p); err != nil {
			return err
		}
	}
	if c.Storage.SQLitePath != "" && c.Storage.SQLitePath != ":memory:" {
		if c.Storage.SQLitePath, err = resolvePath(base, c.Storage.SQLitePath); err != nil {
			return err
		}
	}

	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	c.LLM.Provider = llm.Provider(strings.ToLower(string(c.LLM.Provider)))

	if c.LLM.WeeklyModel != "" {
		if c.LLM.Tasks == nil {
			c.LLM.Tasks = make(map[llm.TaskType]llm.TaskConfig)
		}
		tc := c.LLM.Tasks[llm.TaskWeekly]
		if tc.Model == "" {
			tc.Model = c.LLM.WeeklyModel
			c.LLM.Tasks[llm.TaskWeekly] = tc
		}
	}

	if c.LLM.APIKeyFile != "" {
		if c.LLM.APIKeyFile, err = resolvePath(base, c.LLM.APIKeyFile); err != nil {
			return err
		}
		if c.LLM.APIKey == "" {
			key, err := os.ReadFile(c.LLM.APIKeyFile)
			if err != nil {
				return fmt.Errorf("reading api key file: %w", err)
			}
			c.LLM.APIKey = strings.TrimSpace(string(key))
		}
	}
	return nil
}

func resolvePath(base, p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p), nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case llm.ProviderOllama, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("invalid llm provider: %q (must be ollama or openai)", c.LLM.Provider)
	}
	switch c.Storage.Backend {
	case BackendFile:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q (must be file or sqlite)", c.Storage.Backend)
	}
	if c.Vault.Root == "" {
		return errors.New("vault.root is required")
	}
	if c.Vault.TranscriptFolder == "" || filepath.IsAbs(c.Vault.TranscriptFolder) {
		return fmt.Errorf("vault.transcript_folder must be a relative folder name, got %q", c.Vault.TranscriptFolder)
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1, got %d", c.Processing.Workers)
	}
	if c.Processing.MaxWords > 0 && c.Processing.MinWords > c.Processing.MaxWords {
		return fmt.Errorf("processing.min_words (%d) exceeds max_words (%d)", c.Processing.MinWords, c.Processing.MaxWords)
	}
	if c.Processing.MaxDurationSeconds > 0 && c.Processing.MinDurationSeconds > c.Processing.MaxDurationSeconds {
		return fmt.Errorf("processing.min_duration_seconds (%d) exceeds max_duration_seconds (%d)",
			c.Processing.MinDurationSeconds, c.Processing.MaxDurationSeconds)
	}
	if c.LLM.TimeoutMs <= 0 {
		return fmt.Errorf("llm.timeout_ms must be positive, got %d", c.LLM.TimeoutMs)
	}
	return nil
}
