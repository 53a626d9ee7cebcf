package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
)

// GeminiGenerator calls the Gemini API through the Google Gen AI SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiGenerator creates a Gemini API client. An empty baseURL uses the public endpoint.
func NewGeminiGenerator(ctx context.Context, apiKey, baseURL, model string, logger *zap.Logger) (*GeminiGenerator, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, logger: logger}, nil
}

// Generate implements Generator. As with Anthropic, system-role history turns join the system instruction.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	system := BuildSystemPrompt(req.Persona)
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		switch turn.Role {
		case chat.RoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleUser))
		case chat.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleModel))
		case chat.RoleSystem:
			system += "\n\nNote from the salon: " + turn.Content
		}
	}
	contents = append(contents, genai.NewContentFromText(req.UserMessage, genai.RoleUser))

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	g.logger.Debug("generated response",
		zap.String("session", req.SessionID),
		zap.String("model", g.model),
		zap.Int("candidates", len(result.Candidates)),
	)
	return strings.TrimSpace(result.Text()), nil
}
