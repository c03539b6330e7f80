package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Client is an OpenAI-compatible embeddings client implementing the
// domain.Embedder interface.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	dimension  int
	client     *http.Client
	maxRetries int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
// The API key is read from the environment; a missing key is a construction
// error so the caller can fail at startup rather than mid-request.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		timeout:    t,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// ModelID identifies the embedding model; it is recorded in the index
// manifest so a model mismatch can be detected at load time.
func (c *Client) ModelID() string { return "openai:" + c.model }

// Dimension returns the dimensionality of the produced embedding vectors.
// It is zero until the first successful Embed call.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text. Rate-limit and
// server errors are retried with exponential backoff, honoring Retry-After.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	type reqBody struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body := reqBody{Input: text, Model: c.model}
		data, _ := json.Marshal(body)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// Respect Retry-After if provided
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					_ = resp.Body.Close()
					time.Sleep(time.Duration(secs) * time.Second)
				} else {
					_ = resp.Body.Close()
					time.Sleep(retryDelay(attempt))
				}
			} else {
				_ = resp.Body.Close()
				time.Sleep(retryDelay(attempt))
			}
			if attempt < c.maxRetries {
				continue
			}
			return nil, fmt.Errorf("openai embeddings failed: %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("openai embeddings failed: %s: %s", resp.Status, bytes.TrimSpace(payload))
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}
		var out struct {
			Data []struct {
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &out); err == nil {
			if len(out.Data) > 0 && len(out.Data[0].Embedding) > 0 {
				v := out.Data[0].Embedding
				if c.dimension == 0 {
					c.dimension = len(v)
				}
				return v, nil
			}
		}
		// Malformed or empty response; backoff and retry if attempts remain
		if attempt < c.maxRetries {
			time.Sleep(retryDelay(attempt))
			continue
		}
		return nil, errors.New("no embedding returned")
	}
	return nil, errors.New("no embedding returned")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
