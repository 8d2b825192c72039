package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "5000")
	t.Setenv("LLM_PROVIDER", "echo")

	cfg := Load()

	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, "echo", cfg.Ai.LLMProvider)
	assert.Equal(t, 256, cfg.Realtime.SendBufferSize)
	assert.NotEmpty(t, cfg.App.InstanceID)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COMPLETION_TIMEOUT", "15s")
	t.Setenv("SOCKET_SEND_BUFFER", "32")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.Ai.CompletionTimeout)
	assert.Equal(t, 32, cfg.Realtime.SendBufferSize)
	assert.InDelta(t, 0.2, cfg.Ai.Temperature, 1e-9)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvHelpers_FallbackOnGarbage(t *testing.T) {
	t.Setenv("BROKEN_INT", "abc")
	t.Setenv("BROKEN_DURATION", "forever")

	assert.Equal(t, 7, getEnvAsInt("BROKEN_INT", 7))
	assert.Equal(t, time.Minute, getEnvAsDuration("BROKEN_DURATION", time.Minute))
}
