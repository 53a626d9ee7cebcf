package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/config"
)

// NewGenerator builds the generator selected by cfg.Provider.
// It returns (nil, nil) when no provider is configured.
func NewGenerator(ctx context.Context, cfg config.GeneratorConfig, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderArk:
		chatModel, err := NewArkChatModel(ctx, cfg.Ark)
		if err != nil {
			return nil, err
		}
		gen, err := NewEinoGenerator(ctx, chatModel, logger)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.ProviderOpenAI:
		if !cfg.OpenAI.Enabled() {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger), nil
	case config.ProviderAnthropic:
		if !cfg.Anthropic.Enabled() {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", cfg.Provider)
		}
		var opts []option.RequestOption
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		return NewAnthropicGenerator(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, logger, opts...), nil
	case config.ProviderGemini:
		if !cfg.Gemini.Enabled() {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for provider %q", cfg.Provider)
		}
		gen, err := NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, logger)
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
