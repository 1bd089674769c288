package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"futures-ai/internal/config"
)

// OpenAI 封装 OpenAI 调用逻辑，实现 Oracle 接口。
type OpenAI struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
	sdk    *openai.Client
}

var _ Oracle = (*OpenAI)(nil)

// NewOpenAI 使用给定配置创建 AI 客户端。
func NewOpenAI(cfg config.OpenAIConfig, logger *zap.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api_key 不能为空")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai model 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sdkConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkConfig.BaseURL = cfg.BaseURL
	}
	sdkConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout + 5*time.Second,
	}

	return &OpenAI{
		cfg:    cfg,
		logger: logger,
		sdk:    openai.NewClientWithConfig(sdkConfig),
	}, nil
}

// Interpret 发送提示词并返回模型的原始文本输出。
func (c *OpenAI) Interpret(ctx context.Context, prompt string) (string, error) {
	response, err := c.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		c.logger.Error("调用OpenAI失败", zap.Error(err))
		return "", fmt.Errorf("调用OpenAI失败: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", errors.New("OpenAI 返回结果为空")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("OpenAI 返回内容为空")
	}

	c.logger.Debug("模型输出已返回",
		zap.String("model", c.cfg.Model),
		zap.Int("content_len", len(content)),
	)

	return content, nil
}
