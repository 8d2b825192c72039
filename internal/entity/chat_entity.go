package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

const titleMaxRunes = 30

type ChatMessage struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

type Chat struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	InstructionId *uuid.UUID
	Title         string
	Messages      []ChatMessage
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Append adds a message and bumps UpdatedAt. Timestamps are forced to be
// strictly increasing so replay order, timestamp order and recency order agree
// even when the wall clock stalls or steps backwards.
func (c *Chat) Append(sender, content string, now time.Time) ChatMessage {
	ts := now.UTC().Truncate(time.Microsecond)
	floor := c.UpdatedAt
	if n := len(c.Messages); n > 0 && c.Messages[n-1].Timestamp.After(floor) {
		floor = c.Messages[n-1].Timestamp
	}
	if !ts.After(floor) {
		ts = floor.Add(time.Microsecond)
	}

	msg := ChatMessage{Sender: sender, Content: content, Timestamp: ts}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = ts
	return msg
}

// FirstUserMessage returns the opening user turn, if any.
func (c *Chat) FirstUserMessage() (ChatMessage, bool) {
	for _, m := range c.Messages {
		if m.Sender == SenderUser {
			return m, true
		}
	}
	return ChatMessage{}, false
}

// DeriveTitle shortens the first user turn into a list label.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}
