package services

import (
	"context"
	"fmt"

	"github.com/jwebster45206/text-rpg/pkg/narrative"
)

// Generator adapts an LLMService to narrative.Generator.
type Generator struct {
	llm LLMService
}

var _ narrative.Generator = (*Generator)(nil)

func NewGenerator(llm LLMService) *Generator {
	return &Generator{llm: llm}
}

// Generate renders req as a conversation and returns the model's reply.
func (g *Generator) Generate(ctx context.Context, req narrative.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	resp, err := g.llm.Chat(ctx, narrative.BuildMessages(req))
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", req.Kind, err)
	}
	return resp.Message, nil
}
