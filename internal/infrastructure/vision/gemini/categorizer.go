// Package gemini categorizes clothing images with Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/ports"
	"github.com/kirillkom/ai-closet/internal/infrastructure/resilience"
	"github.com/kirillkom/ai-closet/internal/infrastructure/vision"
)

const DefaultModel = "gemini-1.5-flash"

type Categorizer struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	fetcher  ports.ImageFetcher
	executor *resilience.Executor
}

// New connects to Gemini. Gemini takes inline image bytes, so images are
// downloaded with fetcher first.
func New(ctx context.Context, apiKey, model string, fetcher ports.ImageFetcher, executor *resilience.Executor) (*Categorizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(vision.SystemPrompt())}}
	gm.ResponseMIMEType = "application/json"
	gm.ResponseSchema = categorizationSchema()

	return &Categorizer{client: client, model: gm, fetcher: fetcher, executor: executor}, nil
}

func (c *Categorizer) Close() error {
	return c.client.Close()
}

func (c *Categorizer) Categorize(ctx context.Context, imageURL string) (domain.Categorization, error) {
	data, contentType, err := c.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return domain.Categorization{}, fmt.Errorf("load image for gemini: %w", err)
	}

	var text string
	err = c.executor.Execute(ctx, "gemini.categorize", func(ctx context.Context) error {
		resp, err := c.model.GenerateContent(ctx, genai.Text(vision.UserPrompt), genai.ImageData(imageFormat(contentType), data))
		if err != nil {
			return err
		}
		text, err = responseText(resp)
		return err
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return domain.Categorization{}, resilience.WrapTemporary("gemini categorize", err, resilience.ClassifyHTTPError)
	}
	return vision.ParseCategorization(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini returned no text")
	}
	return b.String(), nil
}

func categorizationSchema() *genai.Schema {
	stringArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category":    {Type: genai.TypeString, Enum: domain.Categories()},
			"subcategory": {Type: genai.TypeString},
			"color":       stringArray,
			"season":      stringArray,
			"occasion":    stringArray,
		},
		Required: []string{"category", "subcategory", "color", "season", "occasion"},
	}
}

// imageFormat turns a mime type into the short format genai.ImageData wants.
func imageFormat(contentType string) string {
	format := strings.TrimPrefix(strings.ToLower(contentType), "image/")
	switch format {
	case "jpg", "":
		return "jpeg"
	default:
		return format
	}
}
