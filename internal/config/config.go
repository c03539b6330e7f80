package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig holds configuration for the OpenAI-compatible embedder.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig holds configuration for the chat completion model.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// IndexConfig locates the persisted similarity index.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

// RetrieverConfig configures similarity retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// ChatConfig configures the chat surface presentation.
type ChatConfig struct {
	MaxSources   int `yaml:"max_sources"`
	PreviewChars int `yaml:"preview_chars"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Index     IndexConfig     `yaml:"index"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Chat      ChatConfig      `yaml:"chat"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ai-tools-chatbot/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ai-tools-chatbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "text-embedding-3-small",
			TimeoutSecs: 30,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			MaxTokens:   1024,
			TimeoutSecs: 120,
		},
		Index:     IndexConfig{Dir: "vectorstore"},
		Retriever: RetrieverConfig{TopK: 10},
		Chat:      ChatConfig{MaxSources: 5, PreviewChars: 300},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "vectorstore"
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 10
	}
	if cfg.Chat.MaxSources == 0 {
		cfg.Chat.MaxSources = 5
	}
	if cfg.Chat.PreviewChars == 0 {
		cfg.Chat.PreviewChars = 300
	}
}
