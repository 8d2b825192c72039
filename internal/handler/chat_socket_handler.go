package handler

import (
	"context"
	"encoding/json"
	"errors"

	"messpal-be/internal/dto"
	"messpal-be/internal/pkg/logger"
	"messpal-be/internal/pkg/serverutils"
	"messpal-be/internal/service"
	internalWS "messpal-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	socketModule = "ChatSocketHandler"

	localsUserId = "user_id"
)

// ChatSocketHandler serves the live chat connection.
type ChatSocketHandler struct {
	hub        *internalWS.Hub
	tokens     *serverutils.TokenManager
	sessions   service.IChatSessionService
	sendBuffer int
	logger     logger.ILogger
}

func NewChatSocketHandler(
	hub *internalWS.Hub,
	tokens *serverutils.TokenManager,
	sessions service.IChatSessionService,
	sendBuffer int,
	log logger.ILogger,
) *ChatSocketHandler {
	return &ChatSocketHandler{
		hub:        hub,
		tokens:     tokens,
		sessions:   sessions,
		sendBuffer: sendBuffer,
		logger:     log,
	}
}

// Handshake authenticates before the upgrade. The token comes from the
// "token" query parameter (browsers) or an Authorization header (tools).
func (h *ChatSocketHandler) Handshake(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication error: Token not provided"})
	}

	claims, err := h.tokens.Parse(tokenStr)
	if err != nil {
		h.logger.Warn(socketModule, "Invalid token in socket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication error: Invalid token"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	c.Locals(localsUserId, claims.UserId)
	return c.Next()
}

// Serve runs one authenticated connection until it closes.
func (h *ChatSocketHandler) Serve(conn *websocket.Conn) {
	userId, ok := conn.Locals(localsUserId).(uuid.UUID)
	if !ok {
		conn.Close()
		return
	}

	client := internalWS.NewClient(h.hub, conn, userId, h.sendBuffer)
	h.logger.Info(socketModule, "Socket session started", map[string]interface{}{
		"user_id": userId.String(),
		"conn_id": client.Id.String(),
	})
	client.Serve(h.HandleFrame, h.RejectFrame)
	h.logger.Info(socketModule, "Socket session ended", map[string]interface{}{
		"user_id": userId.String(),
		"conn_id": client.Id.String(),
	})
}

// HandleFrame decodes one inbound frame of client as soon as it arrives and
// returns the work that answers it. Sends are accepted here, so a send
// without a chat id claims the user's draft before it waits in the queue.
func (h *ChatSocketHandler) HandleFrame(client *internalWS.Client, raw []byte) func() {
	var envelope dto.SocketEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return func() { h.replyError(client, "Invalid payload") }
	}

	switch envelope.Event {
	case dto.EventAuthenticate:
		// Informational. The connection stays bound to the token's user.
		return func() {
			h.reply(client, dto.EventAuthenticated, dto.AuthenticatedPayload{UserId: client.UserId})
		}

	case dto.EventSendMessage:
		var payload dto.SendMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return func() { h.replyError(client, "Invalid payload") }
		}
		if err := serverutils.ValidateRequest(&payload); err != nil {
			return func() { h.replyError(client, "Invalid payload") }
		}

		run, err := h.sessions.Accept(client.UserId, client.Id, &payload)
		if errors.Is(err, service.ErrEmptyMessage) {
			return nil
		}
		if err != nil {
			return func() { h.sendFailed(client, err) }
		}
		return func() {
			// Detached from the connection: a reply still lands on the
			// user's other connections when this one goes away mid-completion.
			if err := run(context.Background()); err != nil {
				h.sendFailed(client, err)
			}
		}

	default:
		h.logger.Debug(socketModule, "Ignoring unknown event", map[string]interface{}{
			"event":   envelope.Event,
			"conn_id": client.Id.String(),
		})
		return nil
	}
}

// RejectFrame answers a frame that arrived while the connection already had
// a full queue of unanswered ones.
func (h *ChatSocketHandler) RejectFrame(client *internalWS.Client, raw []byte) {
	h.logger.Warn(socketModule, "Inbound queue full, frame rejected", map[string]interface{}{
		"user_id": client.UserId.String(),
		"conn_id": client.Id.String(),
		"bytes":   len(raw),
	})
	h.replyError(client, "Too many pending messages")
}

func (h *ChatSocketHandler) sendFailed(client *internalWS.Client, err error) {
	h.logger.Warn(socketModule, "sendMessage failed", map[string]interface{}{
		"user_id": client.UserId.String(),
		"conn_id": client.Id.String(),
		"error":   err.Error(),
	})
	h.replyError(client, service.SocketMessage(err))
}

func (h *ChatSocketHandler) replyError(client *internalWS.Client, message string) {
	h.reply(client, dto.EventError, dto.ErrorEventPayload{Message: message})
}

func (h *ChatSocketHandler) reply(client *internalWS.Client, event string, data interface{}) {
	frame, err := dto.NewSocketFrame(event, data)
	if err != nil {
		h.logger.Error(socketModule, "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}
	client.Send(frame)
}

func (h *ChatSocketHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.Handshake, websocket.New(h.Serve))
}
