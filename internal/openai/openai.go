// Package openai implements the vision analyzer on the OpenAI chat
// completions API, or any server compatible with it.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pders01/visionqa/internal/vision"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"
	// ProviderName identifies this analyzer in records
	ProviderName = "openai"
)

// Settings configures an Analyzer
type Settings struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	HTTPClient *http.Client
}

// Analyzer sends images to a chat completions endpoint
type Analyzer struct {
	client openai.Client
	model  string
}

var _ vision.Analyzer = (*Analyzer)(nil)

// New creates an analyzer from settings
func New(cfg Settings) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set vision.openai_api_key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Analyzer{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Analyze sends the prompt and the PNG image as a data URL
func (a *Analyzer) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", vision.ErrEmptyImage
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate analysis: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Provider returns the provider name
func (a *Analyzer) Provider() string {
	return ProviderName
}

// Model returns the model being used
func (a *Analyzer) Model() string {
	return a.model
}
