package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jwebster45206/text-rpg/pkg/chat"
	"google.golang.org/api/option"
)

// GeminiService implements LLMService with Google's Gemini models.
type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

var _ LLMService = (*GeminiService)(nil)

func NewGeminiService(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// InitModel is a no-op; models are configured per request.
func (g *GeminiService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// Chat sends system messages as the system instruction and the rest as a
// single prompt. A GenerativeModel is built per call since the system
// instruction is a field on it.
func (g *GeminiService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	system, rest := splitChatMessages(messages)
	if len(rest) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0.8)
	model.SetMaxOutputTokens(300)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	var prompt strings.Builder
	for i, m := range rest {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(m.Content)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := geminiText(resp)
	if err != nil {
		return nil, err
	}
	if g.logger != nil {
		g.logger.Debug("gemini completion", "model", g.modelName, "chars", len(text))
	}
	return &chat.ChatResponse{Message: text, Model: g.modelName}, nil
}

// Close releases the underlying client.
func (g *GeminiService) Close() error {
	return g.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from API")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content found in response")
	}
	return b.String(), nil
}
