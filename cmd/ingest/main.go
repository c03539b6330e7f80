package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/amalsp220/ai-tools-chatbot/internal/catalog"
	"github.com/amalsp220/ai-tools-chatbot/internal/config"
	"github.com/amalsp220/ai-tools-chatbot/internal/embedding/openai"
	"github.com/amalsp220/ai-tools-chatbot/internal/index"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, csvPath, outDir string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ai-tools-chatbot/config.yaml if not provided)")
	flag.StringVar(&csvPath, "csv", "data/ai_tools.csv", "Path to the AI tools CSV catalog")
	flag.StringVar(&outDir, "out", "", "Index output directory (defaults to the configured index dir)")
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
	if outDir == "" {
		outDir = cfg.Index.Dir
	}

	if os.Getenv(cfg.Embedder.APIKeyEnv) == "" {
		log.Fatalf("missing API key: set %s in the environment or a .env file before building the index", cfg.Embedder.APIKeyEnv)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("cannot open catalog %s: %v (download the AIToolBuzz dataset and place it there, or pass --csv)", csvPath, err)
	}
	records, skipped, err := catalog.ReadCatalog(f)
	_ = f.Close()
	if err != nil {
		log.Fatalf("failed to read catalog: %v", err)
	}
	if skipped > 0 {
		log.Printf("skipped %d rows without a Name", skipped)
	}
	if len(records) == 0 {
		log.Fatalf("no valid tools in %s: every row is missing a Name", csvPath)
	}
	log.Printf("processing %d valid tools", len(records))

	emb, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	docs := catalog.Documents(records)
	idx, err := index.Build(context.Background(), emb, docs, index.BuildOptions{
		Progress: func(done, total int) {
			if done%1000 == 0 || done == total {
				log.Printf("embedded %d/%d tools", done, total)
			}
		},
	})
	if err != nil {
		log.Fatalf("index build failed, nothing persisted: %v", err)
	}

	if err := index.Save(outDir, idx); err != nil {
		log.Fatalf("failed to save index: %v", err)
	}
	log.Printf("index with %d tools saved to %s", idx.Len(), outDir)
}
