package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
)

// EinoGenerator runs a compiled eino chain: persona system prompt, history, user message, chat model.
type EinoGenerator struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger *zap.Logger
}

// NewEinoGenerator compiles the prompt chain around chatModel.
func NewEinoGenerator(ctx context.Context, chatModel model.ChatModel, logger *zap.Logger) (*EinoGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &EinoGenerator{chain: runnable, logger: logger}, nil
}

// Generate implements Generator.
func (g *EinoGenerator) Generate(ctx context.Context, req Request) (string, error) {
	response, err := g.chain.Invoke(ctx, buildChainInput(req))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("AI chain returned no message")
	}

	g.logger.Debug("generated response",
		zap.String("session", req.SessionID),
		zap.Int("persona", req.Persona.ID),
		zap.Int("length", len(response.Content)),
	)
	return response.Content, nil
}

func buildChainInput(req Request) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(req.Persona),
		"history": buildHistoryMessages(req.History),
		"query":   req.UserMessage,
	}
}

func buildHistoryMessages(turns []Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		case chat.RoleSystem:
			history = append(history, schema.SystemMessage(turn.Content))
		}
	}
	return history
}
