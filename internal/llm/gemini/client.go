package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/dipex/internal/llm"
)

const DefaultModelName = "gemini-2.0-flash"

// Config for the Gemini vision client.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.VisionExtractor with the Gemini API.
type Client struct {
	cfg    Config
	models contentGenerator
	log    *slog.Logger
}

var _ llm.VisionExtractor = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create genai client: %w", err)
	}
	return newWithGenerator(cfg, client.Models, logger), nil
}

func newWithGenerator(cfg Config, models contentGenerator, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModelName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, models: models, log: logger.With("component", "gemini")}
}

// Extract sends the image inline with the extraction questions and returns labeled answer text.
func (c *Client) Extract(ctx context.Context, img []byte, mediaType string) (string, error) {
	if len(img) == 0 {
		return "", errors.New("gemini: empty image")
	}
	if len(img) > llm.MaxVisionBytes {
		return "", fmt.Errorf("gemini: image too large (%d bytes)", len(img))
	}
	start := time.Now()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: llm.UserPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: llm.DetectMediaType(img, mediaType),
						Data:     img,
					},
				},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: llm.SystemPrompt}}},
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](c.cfg.Temperature),
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: %w", llm.ErrEmptyAnswer)
	}

	text, err := llm.AnswerText(resp.Text(), c.log)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	c.log.Info("llm.extract.ok",
		"model", c.cfg.Model,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
