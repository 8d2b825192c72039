package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"messpal-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule = "Hub"

	// ClusterChannel carries frames between instances sharing one Redis.
	ClusterChannel = "chat_events"
)

// clusterEnvelope is what instances exchange over Redis. Origin lets an
// instance skip frames it already delivered locally.
type clusterEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserId uuid.UUID       `json:"target_user_id"`
	ExceptConnId uuid.UUID       `json:"except_conn_id"`
	Frame        json.RawMessage `json:"frame"`
}

// Hub is the per-user broadcast group registry. Membership changes only on
// connect and disconnect; everything else reads it.
type Hub struct {
	// UserId -> live connections (multi-tab, multi-device)
	clients map[uuid.UUID]map[*Client]struct{}
	mu      sync.RWMutex

	// Optional. Nil keeps fan-out local to this instance.
	rdb        *redis.Client
	instanceId string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, instanceId string, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		rdb:        rdb,
		instanceId: instanceId,
		logger:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	group, ok := h.clients[client.UserId]
	if !ok {
		group = make(map[*Client]struct{})
		h.clients[client.UserId] = group
	}
	group[client] = struct{}{}
	size := len(group)
	h.mu.Unlock()

	h.logger.Info(hubModule, "Client registered", map[string]interface{}{
		"user_id":     client.UserId,
		"conn_id":     client.Id,
		"connections": size,
	})
}

// Unregister removes the client and closes its send queue. Safe to call more
// than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	group, ok := h.clients[client.UserId]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := group[client]; !member {
		h.mu.Unlock()
		return
	}
	delete(group, client)
	close(client.send)
	remaining := len(group)
	if remaining == 0 {
		delete(h.clients, client.UserId)
	}
	h.mu.Unlock()

	h.logger.Info(hubModule, "Client unregistered", map[string]interface{}{
		"user_id":     client.UserId,
		"conn_id":     client.Id,
		"connections": remaining,
	})
}

// SendToUser fans a frame out to every connection of the user, on this
// instance and on the others.
func (h *Hub) SendToUser(userId uuid.UUID, frame []byte) {
	h.SendToUserExcept(userId, uuid.Nil, frame)
}

// SendToUserExcept is SendToUser minus one connection, usually the sender.
func (h *Hub) SendToUserExcept(userId uuid.UUID, exceptConnId uuid.UUID, frame []byte) {
	h.deliver(userId, exceptConnId, frame)
	h.publish(userId, exceptConnId, frame)
}

// SendToConn delivers a frame to one connection of the user. Only local
// connections are reachable: the origin of an exchange always lives on the
// instance running it.
func (h *Hub) SendToConn(userId uuid.UUID, connId uuid.UUID, frame []byte) {
	var target *Client
	h.mu.RLock()
	for client := range h.clients[userId] {
		if client.Id == connId {
			target = client
			break
		}
	}
	h.mu.RUnlock()

	if target != nil {
		h.sendTo(target, frame)
	}
}

// ConnectionCount reports how many local connections the user has.
func (h *Hub) ConnectionCount(userId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}

func (h *Hub) deliver(userId uuid.UUID, exceptConnId uuid.UUID, frame []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients[userId] {
		if client.Id == exceptConnId {
			continue
		}
		select {
		case client.send <- frame:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn(hubModule, "Client send buffer full, dropping connection", map[string]interface{}{
			"user_id": client.UserId,
			"conn_id": client.Id,
		})
		h.Unregister(client)
	}
}

func (h *Hub) sendTo(client *Client, frame []byte) bool {
	h.mu.RLock()
	if _, member := h.clients[client.UserId][client]; !member {
		h.mu.RUnlock()
		return false
	}
	select {
	case client.send <- frame:
		h.mu.RUnlock()
		return true
	default:
	}
	h.mu.RUnlock()

	h.logger.Warn(hubModule, "Client send buffer full, dropping connection", map[string]interface{}{
		"user_id": client.UserId,
		"conn_id": client.Id,
	})
	h.Unregister(client)
	return false
}

func (h *Hub) publish(userId uuid.UUID, exceptConnId uuid.UUID, frame []byte) {
	if h.rdb == nil {
		return
	}

	payload, err := json.Marshal(clusterEnvelope{
		Origin:       h.instanceId,
		TargetUserId: userId,
		ExceptConnId: exceptConnId,
		Frame:        frame,
	})
	if err != nil {
		h.logger.Error(hubModule, "Failed to encode cluster frame", map[string]interface{}{"error": err})
		return
	}

	if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
		h.logger.Warn(hubModule, "Failed to publish cluster frame", map[string]interface{}{
			"user_id": userId,
			"error":   err,
		})
	}
}

// Run relays frames published by other instances until ctx is done. Without
// Redis it only waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	h.logger.Info(hubModule, "Subscribed to cluster channel", map[string]interface{}{
		"channel":     ClusterChannel,
		"instance_id": h.instanceId,
	})

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.relay(msg.Payload)
		}
	}
}

func (h *Hub) relay(raw string) {
	var envelope clusterEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		h.logger.Warn(hubModule, "Dropping malformed cluster frame", map[string]interface{}{"error": err})
		return
	}
	if envelope.Origin == h.instanceId {
		return
	}
	h.deliver(envelope.TargetUserId, envelope.ExceptConnId, envelope.Frame)
}

// Shutdown disconnects every client. Their pumps exit on their own.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	all := make([]*Client, 0)
	for _, group := range h.clients {
		for client := range group {
			all = append(all, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range all {
		h.Unregister(client)
	}
}
