package echo

import (
	"context"
	"testing"

	"messpal-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoProvider_AnswersLastUserTurn(t *testing.T) {
	reply, err := NewEchoProvider().Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "first"},
		{Role: llm.RoleAssistant, Content: "ok"},
		{Role: llm.RoleUser, Content: "second"},
	})

	require.NoError(t, err)
	assert.Equal(t, `Response to: "second"`, reply)
}

func TestEchoProvider_NoUserTurn(t *testing.T) {
	_, err := NewEchoProvider().Chat(context.Background(), []llm.Message{{Role: llm.RoleSystem, Content: "sys"}})
	assert.Error(t, err)
}
