package caption

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowerhall/autopost/internal/llm"
	"github.com/bowerhall/autopost/internal/logger"
)

// Generator rewrites operator-supplied descriptions into publishable copy.
type Generator struct {
	model        llm.LLM
	systemPrompt string
}

func NewGenerator(model llm.LLM, systemPrompt string) *Generator {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &Generator{
		model:        model,
		systemPrompt: systemPrompt,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = "Write a short, appealing caption for the attached photo."
	}

	text, err := g.model.Chat(ctx, g.systemPrompt, []llm.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logger.Error("caption generation failed", "error", err)
		return "", fmt.Errorf("generate caption: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("generate caption: empty response")
	}

	return text, nil
}
