package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/amalsp220/ai-tools-chatbot/internal/config"
	embopenai "github.com/amalsp220/ai-tools-chatbot/internal/embedding/openai"
	"github.com/amalsp220/ai-tools-chatbot/internal/index"
	llmopenai "github.com/amalsp220/ai-tools-chatbot/internal/llm/openai"
	"github.com/amalsp220/ai-tools-chatbot/internal/service"
	"github.com/amalsp220/ai-tools-chatbot/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, indexDir string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ai-tools-chatbot/config.yaml if not provided)")
	flag.StringVar(&indexDir, "index", "", "Index directory (defaults to the configured index dir)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if indexDir == "" {
		indexDir = cfg.Index.Dir
	}

	if os.Getenv(cfg.Embedder.APIKeyEnv) == "" {
		log.Fatalf("missing API key: set %s in the environment or a .env file", cfg.Embedder.APIKeyEnv)
	}
	if os.Getenv(cfg.LLM.APIKeyEnv) == "" {
		log.Fatalf("missing API key: set %s in the environment or a .env file", cfg.LLM.APIKeyEnv)
	}

	emb, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	model, err := llmopenai.NewClient(llmopenai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("llm init failed: %v", err)
	}

	opts := tui.Options{
		PreviewChars: cfg.Chat.PreviewChars,
		// One round trip is embed + search + generate.
		RequestTimeout: time.Duration(cfg.Embedder.TimeoutSecs+cfg.LLM.TimeoutSecs+30) * time.Second,
	}
	idx, err := index.Load(indexDir)
	switch {
	case err == nil:
		if idx.Manifest.ModelID != emb.ModelID() {
			log.Fatalf("index was built with %s but the configured embedder is %s; rebuild the index", idx.Manifest.ModelID, emb.ModelID())
		}
		opts.IndexSize = idx.Len()
	case errors.Is(err, index.ErrIndexUnavailable):
		opts.Unavailable = true
		opts.UnavailableReason = err.Error()
	default:
		// A corrupt or incompatible snapshot must fail clearly, not serve
		// garbage results.
		log.Fatalf("failed to load index: %v", err)
	}

	advisor := service.NewAdvisorService(emb, idx, model, cfg.Retriever.TopK, cfg.Chat.MaxSources)
	m := tui.New(advisor, opts)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
