package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"messpal-be/internal/dto"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
)

var ErrUnauthorized = errors.New("socket handshake rejected")

const writeWait = 10 * time.Second

// Event is one decoded server frame. Only the field matching Name is set.
type Event struct {
	Name          string
	Message       *dto.MessageEventPayload
	Resolved      *dto.ChatResolvedPayload
	Error         string
	Authenticated uuid.UUID
}

// Client is a live chat connection.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Dial opens the socket at wsURL (ws://host/api/ws) with a bearer token.
func Dial(ctx context.Context, wsURL, token string) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			var body struct {
				Message string `json:"message"`
			}
			json.NewDecoder(resp.Body).Decode(&body)
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, body.Message)
		}
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Authenticate(userId uuid.UUID) error {
	return c.emit(dto.EventAuthenticate, dto.AuthenticatePayload{UserId: userId.String()})
}

// SendMessage posts a message to chatId, or to a new chat when chatId is nil.
func (c *Client) SendMessage(chatId *uuid.UUID, message, customInstructions string) error {
	payload := dto.SendMessagePayload{
		Message:            message,
		CustomInstructions: customInstructions,
	}
	if chatId != nil {
		id := chatId.String()
		payload.ChatId = &id
	}
	return c.emit(dto.EventSendMessage, payload)
}

func (c *Client) emit(event string, data interface{}) error {
	frame, err := dto.NewSocketFrame(event, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Listen delivers server events to handle until the connection closes or
// ctx is done. A normal close returns nil.
func (c *Client) Listen(ctx context.Context, handle func(Event)) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		event, err := decodeEvent(raw)
		if err != nil {
			continue
		}
		handle(event)
	}
}

func decodeEvent(raw []byte) (Event, error) {
	var envelope dto.SocketEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Event{}, err
	}

	event := Event{Name: envelope.Event}
	switch envelope.Event {
	case dto.EventMessage:
		var payload dto.MessageEventPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return Event{}, err
		}
		event.Message = &payload
	case dto.EventChatResolved:
		var payload dto.ChatResolvedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return Event{}, err
		}
		event.Resolved = &payload
	case dto.EventError:
		var payload dto.ErrorEventPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return Event{}, err
		}
		event.Error = payload.Message
	case dto.EventAuthenticated:
		var payload dto.AuthenticatedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return Event{}, err
		}
		event.Authenticated = payload.UserId
	}
	return event, nil
}

// Close says goodbye and closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
