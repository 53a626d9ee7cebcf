package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/z-salon/backend/internal/config"
)

// NewArkChatModel 使用配置创建一个方舟模型实例。
func NewArkChatModel(ctx context.Context, c config.ArkConfig) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	}
	if c.Temperature != 0 {
		temperature := c.Temperature
		cfg.Temperature = &temperature
	}
	if c.TopP != 0 {
		topP := c.TopP
		cfg.TopP = &topP
	}
	if c.MaxTokens != 0 {
		maxTokens := c.MaxTokens
		cfg.MaxTokens = &maxTokens
	}

	chatModel, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}
	return chatModel, nil
}
