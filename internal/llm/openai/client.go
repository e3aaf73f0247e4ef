package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/dipex/internal/llm"
)

// Config for the OpenAI vision client.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string // e.g. "gpt-4o-mini"
	Temperature float32
	Timeout     time.Duration // http client timeout
}

// Client implements llm.VisionExtractor over chat/completions with an image_url part.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

var _ llm.VisionExtractor = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger.With("component", "openai"),
	}
}

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract asks the model the fixed questions about img and returns the answer as labeled text.
func (c *Client) Extract(ctx context.Context, img []byte, mediaType string) (string, error) {
	if len(img) == 0 {
		return "", errors.New("openai: empty image")
	}
	if len(img) > llm.MaxVisionBytes {
		return "", fmt.Errorf("openai: image too large (%d bytes)", len(img))
	}
	start := time.Now()

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": llm.UserPrompt},
				{"type": "image_url", "image_url": map[string]any{"url": llm.DataURL(img, mediaType)}},
			}},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}

	text, err := llm.AnswerText(cc.Choices[0].Message.Content, c.log)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	c.log.Info("llm.extract.ok",
		"model", c.cfg.Model,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
