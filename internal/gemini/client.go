// Package gemini wraps the google.golang.org/genai SDK behind a narrow
// surface so the generation pipeline can be exercised with stubs.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey string
	Model  string
	Logger zerolog.Logger
}

// Client issues generate-content calls against the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// NewClient constructs a Gemini client for the configured model.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: init client: %w", err)
	}

	return &Client{client: client, model: model, logger: opts.Logger}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// GenerateContent sends the ordered parts (prompt first, then images) as a
// single user turn and returns the raw response for interpretation upstream.
func (c *Client) GenerateContent(ctx context.Context, parts []*genai.Part) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	c.logger.Debug().Str("model", c.model).Int("parts", len(parts)).Msg("calling generate content")
	return c.client.Models.GenerateContent(ctx, c.model, contents, nil)
}

// ImagePart wraps encoded image bytes as an inline-data part.
func ImagePart(data []byte, mimeType string) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// IsTransient reports whether the call failed in a way worth retrying:
// server-side errors, rate limiting, or an attempt that hit its deadline.
// Everything else (bad request, auth, quota exhaustion semantics aside) is
// permanent for an identical request.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
