// Package openai categorizes clothing images with the chat completions API
// and a strict JSON schema.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/infrastructure/resilience"
	"github.com/kirillkom/ai-closet/internal/infrastructure/vision"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type Categorizer struct {
	client *Client
}

func NewCategorizer(client *Client) *Categorizer {
	return &Categorizer{client: client}
}

func (c *Categorizer) Categorize(ctx context.Context, imageURL string) (domain.Categorization, error) {
	request := chatRequest{
		Model: c.client.model,
		Messages: []chatMessage{
			{Role: "system", Content: vision.SystemPrompt()},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: vision.UserPrompt},
				{Type: "image_url", ImageURL: &imageURLPart{URL: imageURL, Detail: "low"}},
			}},
		},
		ResponseFormat: categorizationFormat(),
	}

	var response chatResponse
	err := c.client.executor.Execute(ctx, "openai.categorize", func(ctx context.Context) error {
		var err error
		response, err = c.client.createChatCompletion(ctx, request)
		return err
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return domain.Categorization{}, resilience.WrapTemporary("openai categorize", err, resilience.ClassifyHTTPError)
	}
	if len(response.Choices) == 0 {
		return domain.Categorization{}, errors.New("openai categorize: empty choices")
	}
	msg := response.Choices[0].Message
	if msg.Refusal != "" {
		return domain.Categorization{}, errors.New("openai categorize refused: " + msg.Refusal)
	}
	return vision.ParseCategorization(msg.Content)
}
