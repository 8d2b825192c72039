package chatclient

import (
	"sync"
	"sync/atomic"

	"messpal-be/internal/dto"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// View keeps the chat list and the open transcript in step with server
// events.
//
// The open chat id lives in its own atomic cell. Event handling reads it at
// the time the event arrives, so a listener installed before the user
// switched chats never works against a stale selection.
type View struct {
	openChat atomic.Pointer[uuid.UUID]

	// Set by StartDraft: the chat the server resolves for this client's next
	// send opens. Message events never open a chat.
	awaitingDraft atomic.Bool

	mu         sync.Mutex
	summaries  []dto.ChatSummaryResponse
	transcript []dto.ChatMessageResponse
}

func NewView() *View {
	return &View{}
}

// Load replaces the chat list with a REST snapshot, newest first.
func (v *View) Load(summaries []dto.ChatSummaryResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.summaries = append([]dto.ChatSummaryResponse(nil), summaries...)
}

// Open switches the visible chat.
func (v *View) Open(chat *dto.ChatResponse) {
	v.mu.Lock()
	v.transcript = append([]dto.ChatMessageResponse(nil), chat.Messages...)
	v.mu.Unlock()

	id := chat.Id
	v.openChat.Store(&id)
	v.awaitingDraft.Store(false)
}

// StartDraft clears the selection for a message that will create a chat.
func (v *View) StartDraft() {
	v.mu.Lock()
	v.transcript = nil
	v.mu.Unlock()

	v.openChat.Store(nil)
	v.awaitingDraft.Store(true)
}

// OpenChat reports the selected chat, if any.
func (v *View) OpenChat() (uuid.UUID, bool) {
	id := v.openChat.Load()
	if id == nil {
		return uuid.Nil, false
	}
	return *id, true
}

// AppendLocal shows a turn this client just sent.
func (v *View) AppendLocal(msg dto.ChatMessageResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transcript = append(v.transcript, msg)
}

// Resolve handles the chatResolved ack for a send made while drafting. It
// reports whether the chat was opened.
func (v *View) Resolve(event *dto.ChatResolvedPayload) bool {
	if _, open := v.OpenChat(); open || !v.awaitingDraft.CompareAndSwap(true, false) {
		return false
	}
	id := event.ChatId
	v.openChat.Store(&id)
	return true
}

// Apply folds a message event into both views.
func (v *View) Apply(event *dto.MessageEventPayload) {
	openId, open := v.OpenChat()

	v.mu.Lock()
	defer v.mu.Unlock()

	if open && openId == event.ChatId {
		v.transcript = append(v.transcript, event.Message)
	}

	summary, idx, found := lo.FindIndexOf(v.summaries, func(s dto.ChatSummaryResponse) bool {
		return s.Id == event.ChatId
	})
	if found {
		v.summaries = append(v.summaries[:idx], v.summaries[idx+1:]...)
	} else {
		summary = dto.ChatSummaryResponse{Id: event.ChatId, CreatedAt: event.Message.Timestamp}
	}
	summary.UpdatedAt = event.Message.Timestamp
	v.summaries = append([]dto.ChatSummaryResponse{summary}, v.summaries...)
}

func (v *View) Summaries() []dto.ChatSummaryResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]dto.ChatSummaryResponse(nil), v.summaries...)
}

func (v *View) Transcript() []dto.ChatMessageResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]dto.ChatMessageResponse(nil), v.transcript...)
}
