package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/folio-agent/server/internal/agent/model"
	logx "github.com/folio-agent/server/pkg/logger"
)

// NewAnswerModel creates the Gemini chat model used by the generation stage.
// Temperature and token limits come from config and stay fixed for the
// process lifetime, so factual content remains stable across turns.
func NewAnswerModel(ctx context.Context, client *genai.Client, cfg model.AnswerModelConfig) (*gemini.ChatModel, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating answer model")
		return nil, fmt.Errorf("error creating answer model: %w", err)
	}

	logx.Debug().Str("model", cfg.Model).Float32("temperature", cfg.Temperature).Msg("Answer model ready")
	return chatModel, nil
}
