package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatAppend_StrictlyIncreasing(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	chat := &Chat{UpdatedAt: now}

	first := chat.Append(SenderUser, "hi", now)
	second := chat.Append(SenderBot, "hello", now)
	third := chat.Append(SenderUser, "again", now.Add(-time.Hour))

	assert.True(t, first.Timestamp.After(now))
	assert.True(t, second.Timestamp.After(first.Timestamp))
	assert.True(t, third.Timestamp.After(second.Timestamp))
	assert.Equal(t, third.Timestamp, chat.UpdatedAt)
	assert.Len(t, chat.Messages, 3)
}

func TestChatAppend_UsesClockWhenAhead(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	chat := &Chat{UpdatedAt: start}

	msg := chat.Append(SenderUser, "hi", start.Add(time.Second))

	assert.Equal(t, start.Add(time.Second), msg.Timestamp)
}

func TestFirstUserMessage(t *testing.T) {
	chat := &Chat{}
	_, ok := chat.FirstUserMessage()
	assert.False(t, ok)

	chat.Append(SenderUser, "question", time.Now())
	chat.Append(SenderBot, "answer", time.Now())
	msg, ok := chat.FirstUserMessage()
	assert.True(t, ok)
	assert.Equal(t, "question", msg.Content)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "Hello there", want: "Hello there"},
		{name: "exactly thirty", content: "123456789012345678901234567890", want: "123456789012345678901234567890"},
		{name: "long", content: "Please explain how goroutines are scheduled", want: "Please explain how goroutines ..."},
		{name: "multibyte", content: "日本語のテキストはとても長いのでここで切り取られるべきですよねそう思います", want: "日本語のテキストはとても長いのでここで切り取られるべきですよ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content))
		})
	}
}
