package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrNoAPIKey is returned by a Gemini model built without credentials.
var ErrNoAPIKey = errors.New("gemini api key not set")

// Gemini is a Model backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds the model. With an empty apiKey it still succeeds and
// every Generate call fails, so the rest of the service keeps working.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return &Gemini{model: model}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, shape Shape) (string, error) {
	if g.client == nil {
		return "", ErrNoAPIKey
	}

	cfg := &genai.GenerateContentConfig{}
	if schema := responseSchema(shape); schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = schema
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", g.model, err)
	}
	return resp.Text(), nil
}

func responseSchema(shape Shape) *genai.Schema {
	switch shape {
	case ShapeQAList:
		return &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question": {Type: genai.TypeString},
					"answer":   {Type: genai.TypeString},
				},
				Required: []string{"question", "answer"},
			},
		}
	case ShapeQuizList:
		return &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question": {
						Type:        genai.TypeString,
						Description: "The quiz question text.",
					},
					"options": {
						Type:        genai.TypeArray,
						Items:       &genai.Schema{Type: genai.TypeString},
						Description: "An array of 4 multiple-choice options, labeled 'a)', 'b)', 'c)', 'd)'.",
					},
					"answer": {
						Type:        genai.TypeString,
						Description: "The correct answer, matching one of the options exactly.",
					},
				},
				Required: []string{"question", "options", "answer"},
			},
		}
	default:
		return nil
	}
}
