package summary

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIGenerator is a Generator backed by the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Model() string { return g.model }

var replySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"tldr":        {Type: genai.TypeString, Description: "One or two sentences on overall sentiment."},
		"keyFeatures": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Features or requests users mention, most frequent first."},
	},
	Required: []string{"tldr", "keyFeatures"},
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.2)}
	if structured {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = replySchema
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty reply from %s", g.model)
	}
	return text, nil
}
