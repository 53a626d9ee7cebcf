package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
)

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

// NewAnthropicGenerator builds a client from an API key. Extra options (base URL, retries) are appended.
func NewAnthropicGenerator(apiKey, model string, maxTokens int64, logger *zap.Logger, opts ...option.RequestOption) *AnthropicGenerator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate implements Generator. System-role history turns are folded into the system prompt
// since the Messages API only accepts user and assistant turns.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	system := BuildSystemPrompt(req.Persona)
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, turn := range req.History {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case chat.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		case chat.RoleSystem:
			system += "\n\nNote from the salon: " + turn.Content
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)))

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	g.logger.Debug("generated response",
		zap.String("session", req.SessionID),
		zap.String("model", string(g.model)),
		zap.Int64("inputTokens", msg.Usage.InputTokens),
		zap.Int64("outputTokens", msg.Usage.OutputTokens),
	)
	return strings.TrimSpace(b.String()), nil
}
