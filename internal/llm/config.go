package llm

import (
	"os"
	"strconv"
	"strings"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskDailyNote TaskType = "daily_note"
	TaskTodos     TaskType = "todos"
	TaskWeekly    TaskType = "weekly"
)

// Provider selects the wire protocol used to reach the backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms" mapstructure:"timeout_ms"` // overrides global if > 0
	Model       string  `yaml:"model" mapstructure:"model"`           // overrides global if set
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Provider          Provider                `yaml:"provider" mapstructure:"provider"`
	LogCalls          bool                    `yaml:"log_calls" mapstructure:"log_calls"`
	Endpoint          string                  `yaml:"endpoint" mapstructure:"endpoint"`
	Model             string                  `yaml:"model" mapstructure:"model"`
	APIKey            string                  `yaml:"-" mapstructure:"-"`
	APIKeyFile        string                  `yaml:"api_key_file" mapstructure:"api_key_file"`
	TimeoutMs         int                     `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	RequestsPerMinute int                     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Tasks             map[TaskType]TaskConfig `yaml:"tasks" mapstructure:"tasks"`
}

// DefaultConfig returns an LLMConfig with sensible defaults.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:  ProviderOllama,
		LogCalls:  false,
		Endpoint:  "http://localhost:11434",
		Model:     "llama3.2",
		TimeoutMs: 60000,
		Tasks: map[TaskType]TaskConfig{
			TaskDailyNote: {Temperature: 0.3, MaxTokens: 2048, TimeoutMs: 60000},
			TaskTodos:     {Temperature: 0.3, MaxTokens: 1024, TimeoutMs: 45000},
			TaskWeekly:    {Temperature: 0.3, MaxTokens: 3072, TimeoutMs: 90000},
		},
	}
}

// ApplyEnv overrides configuration from environment variables.
// Unset or unparsable values leave the current value untouched.
func ApplyEnv(cfg *LLMConfig) {
	if v := os.Getenv("DAYLOG_LLM_PROVIDER"); v != "" {
		cfg.Provider = Provider(strings.ToLower(v))
	}
	if v := os.Getenv("DAYLOG_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DAYLOG_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("DAYLOG_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DAYLOG_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DAYLOG_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("DAYLOG_LLM_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RequestsPerMinute = n
		}
	}

	applyTaskTimeoutEnv(cfg, TaskDailyNote, "DAYLOG_LLM_DAILY_NOTE_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskTodos, "DAYLOG_LLM_TODOS_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskWeekly, "DAYLOG_LLM_WEEKLY_TIMEOUT_MS")
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

// TaskModel returns the model to use for a task.
func (c LLMConfig) TaskModel(task TaskType) string {
	if tc, ok := c.Tasks[task]; ok && tc.Model != "" {
		return tc.Model
	}
	return c.Model
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	if cfg.Tasks == nil {
		cfg.Tasks = make(map[TaskType]TaskConfig)
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
