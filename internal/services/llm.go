package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/text-rpg/internal/config"
	"github.com/jwebster45206/text-rpg/pkg/chat"
)

// LLMService defines the interface for interacting with a chat model.
type LLMService interface {
	// InitModel prepares the model on startup.
	InitModel(ctx context.Context, modelName string) error

	// Chat returns the model's reply to a conversation.
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}

// Default model names per provider when MODEL_NAME is unset.
const (
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultGroqModel      = "llama-3.1-8b-instant"
	DefaultGeminiModel    = "gemini-1.5-flash"
)

// NewLLMService builds the provider named in cfg. It returns nil, nil when
// narration is disabled.
func NewLLMService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderAnthropic:
		return NewAnthropicService(cfg.AnthropicAPIKey, modelOr(cfg.ModelName, DefaultAnthropicModel), logger), nil
	case config.ProviderGroq:
		return NewGroqService(cfg.GroqAPIKey, modelOr(cfg.ModelName, DefaultGroqModel), cfg.GroqBaseURL, logger), nil
	case config.ProviderGemini:
		return NewGeminiService(ctx, cfg.GeminiAPIKey, modelOr(cfg.ModelName, DefaultGeminiModel), logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

func modelOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
