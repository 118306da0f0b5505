package concept

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model id is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini text model.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiModel calls the Gemini API with a fixed JSON response schema.
type GeminiModel struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiModel creates a client. An empty API key returns ErrConfiguration without
// contacting the API.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrConfiguration
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("concept: create genai client: %w", err)
	}
	return &GeminiModel{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   PlanSchema(),
		},
	}, nil
}

// GenerateJSON sends prompt and returns the concatenated response text.
func (m *GeminiModel) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if m == nil || m.client == nil {
		return "", ErrConfiguration
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), m.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

// Model returns the configured model id.
func (m *GeminiModel) Model() string { return m.model }

// PlanSchema declares the five required fields of a Plan.
func PlanSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	list := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	fields := []string{"conceptName", "mood", "colorPalette", "suggestedShots", "locationIdeas"}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"conceptName":    str,
			"mood":           str,
			"colorPalette":   list,
			"suggestedShots": list,
			"locationIdeas":  str,
		},
		Required:         fields,
		PropertyOrdering: fields,
	}
}
