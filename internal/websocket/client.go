package websocket

import (
	"io"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	inboundQueueSize = 16
)

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	NextWriter(messageType int) (io.WriteCloser, error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Handler inspects one inbound frame on the read loop as soon as it arrives
// and must not block. The work it returns runs after the work of earlier
// frames, one at a time. nil queues nothing.
type Handler func(client *Client, raw []byte) (work func())

// Overflow is called on the read loop instead of the Handler when a frame
// arrives while the inbound queue is full. The frame is dropped.
type Overflow func(client *Client, raw []byte)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Id     uuid.UUID
	UserId uuid.UUID

	hub  *Hub
	conn Conn

	// Outbound frames. Closed by the hub on unregister.
	send chan []byte

	// Accepted work waiting for the connection's worker. The read loop is the
	// only sender.
	inbound chan func()

	// Logged at disconnect.
	closeErr error
	errMu    sync.Mutex
}

func NewClient(hub *Hub, conn Conn, userId uuid.UUID, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		Id:      uuid.New(),
		UserId:  userId,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		inbound: make(chan func(), inboundQueueSize),
	}
}

// Send queues a frame for this connection only. It reports false when the
// connection is already gone.
func (c *Client) Send(frame []byte) bool {
	return c.hub.sendTo(c, frame)
}

// Serve registers the client and blocks until the connection is closed and
// every frame it accepted has been handled. overflow may be nil.
func (c *Client) Serve(handle Handler, overflow Overflow) {
	c.hub.Register(c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump()
	}()
	go func() {
		defer wg.Done()
		for work := range c.inbound {
			work()
		}
	}()

	c.readPump(handle, overflow)
	c.hub.Unregister(c)
	close(c.inbound)
	wg.Wait()

	if err := c.err(); err != nil {
		c.hub.logger.Warn(hubModule, "Connection closed unexpectedly", map[string]interface{}{
			"user_id": c.UserId,
			"conn_id": c.Id,
			"error":   err,
		})
	}
}

// readPump moves frames from the connection to the inbound queue. It never
// waits on the worker, so pongs and the read deadline keep being served while
// a slow exchange runs.
func (c *Client) readPump(handle Handler, overflow Overflow) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.setErr(err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if len(c.inbound) == cap(c.inbound) {
			if overflow != nil {
				overflow(c, raw)
			}
			continue
		}
		if work := handle(c, raw); work != nil {
			c.inbound <- work
		}
	}
}

// writePump moves frames from the hub to the connection. One frame per
// websocket message so every message is a complete JSON document.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				w.Close()
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.closeErr = err
}

func (c *Client) err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.closeErr
}
