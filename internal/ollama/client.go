package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/pders01/visionqa/internal/vision"
)

const (
	// DefaultModel is the recommended vision model
	DefaultModel = "llava:7b"
	// DefaultURL is the default Ollama API endpoint
	DefaultURL = "http://localhost:11434"
	// ProviderName identifies this analyzer in records
	ProviderName = "ollama"
)

// Options tunes a Client
type Options struct {
	// JSONFormat asks Ollama to constrain the answer to JSON
	JSONFormat bool
	HTTPClient *http.Client
}

// Client wraps the Ollama API client
type Client struct {
	client     *api.Client
	model      string
	jsonFormat bool
}

var _ vision.Analyzer = (*Client)(nil)

// NewClient creates a new Ollama client for the server at rawURL
func NewClient(rawURL, model string, opts Options) (*Client, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: invalid url %q: %w", rawURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("failed to create ollama client: invalid url %q", rawURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		client:     api.NewClient(base, httpClient),
		model:      model,
		jsonFormat: opts.JSONFormat,
	}, nil
}

// IsAvailable checks if Ollama is running and accessible
func IsAvailable(url string) bool {
	if url == "" {
		url = DefaultURL
	}

	// Try to connect with a short timeout
	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Analyze sends image with prompt to the model and returns its answer
func (c *Client) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", vision.ErrEmptyImage
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Images: []api.ImageData{image},
		Stream: &stream,
	}
	if c.jsonFormat {
		req.Format = json.RawMessage(`"json"`)
	}

	var answer string
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		answer += resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate analysis: %w", err)
	}

	return answer, nil
}

// CheckModel checks if the specified model is available
func (c *Client) CheckModel(ctx context.Context) error {
	listResp, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	for _, model := range listResp.Models {
		if model.Name == c.model || model.Model == c.model {
			return nil
		}
	}

	return fmt.Errorf("model '%s' not found - run: ollama pull %s", c.model, c.model)
}

// Provider returns the provider name
func (c *Client) Provider() string {
	return ProviderName
}

// Model returns the model being used
func (c *Client) Model() string {
	return c.model
}
