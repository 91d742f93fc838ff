package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RichardoC/pad-chat/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Client talks to an OpenAI-compatible provider. Chat goes through
// langchaingo, images through go-openai.
type Client struct {
	llm     llms.Model
	images  *goopenai.Client
	timeout time.Duration
}

func New(baseURL, token, model string, timeout time.Duration) (*Client, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		llm:     llm,
		images:  newImageClient(baseURL, token),
		timeout: timeout,
	}, nil
}

// Chat sends the prompt list to model and returns the first completion.
func (c *Client) Chat(ctx context.Context, model string, prompt []models.PromptMessage) (string, error) {
	content := make([]llms.MessageContent, 0, len(prompt))
	for _, m := range prompt {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.llm.GenerateContent(ctx, content, llms.WithModel(model))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role string) schema.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return schema.ChatMessageTypeSystem
	case models.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

// GenerateImage asks the provider for a single image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.images.CreateImage(ctx, goopenai.ImageRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("provider returned no image")
	}
	return resp.Data[0].URL, nil
}

func newImageClient(baseURL, token string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(token)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return goopenai.NewClientWithConfig(cfg)
}
