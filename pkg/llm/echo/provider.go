// Package echo is a completion backend for local runs and tests. It answers
// every prompt with a fixed template around the last user turn.
package echo

import (
	"context"
	"fmt"

	"messpal-be/pkg/llm"
)

type EchoProvider struct{}

var _ llm.LLMProvider = &EchoProvider{}

func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

func (p *EchoProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return fmt.Sprintf("Response to: %q", history[i].Content), nil
		}
	}
	return "", fmt.Errorf("no user turn to respond to")
}

func (p *EchoProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
