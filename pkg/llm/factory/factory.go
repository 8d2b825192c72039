package factory

import (
	"context"
	"fmt"

	"messpal-be/internal/config"
	"messpal-be/pkg/llm"
	"messpal-be/pkg/llm/echo"
	"messpal-be/pkg/llm/gemini"
	"messpal-be/pkg/llm/ollama"
)

func NewLLMProvider(ctx context.Context, cfg config.AIConfig) (llm.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.LLMModel), nil
	case "echo":
		return echo.NewEchoProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
