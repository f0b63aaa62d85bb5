package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is one websocket connection of an authenticated player. A player
// may hold several connections (tabs); each gets its own Client.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	playerID    uuid.UUID
	displayName string
	limiter     *rate.Limiter

	mu     sync.RWMutex
	roomID uuid.UUID
	closed bool

	// syncMu orders state syncs; see sendSnapshot.
	syncMu        sync.Mutex
	syncedRoom    uuid.UUID
	syncedVersion int64
}

func NewClient(hub *Hub, conn *websocket.Conn, playerID uuid.UUID, displayName string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		playerID:    playerID,
		displayName: displayName,
		limiter:     rate.NewLimiter(rate.Limit(hub.cfg.WSCommandsPerSecond), hub.cfg.WSCommandBurst),
	}
}

func (c *Client) ReadPump() {
	c.hub.commands.Connect(c)
	defer func() {
		c.hub.commands.Disconnect(c)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("player_id", c.playerID.String()).Msg("websocket read error")
			}
			break
		}

		if !c.limiter.Allow() {
			c.sendError(ErrCodeRateLimited, "Too many commands, slow down")
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(ErrCodeInvalidCommand, "Invalid message format")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

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

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeCommand:
		var cmd Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			c.sendError(ErrCodeInvalidCommand, "Invalid command format")
			return
		}
		c.hub.commands.Handle(c, &cmd)
	default:
		c.sendError(ErrCodeInvalidCommand, "Unknown message type")
	}
}

// Send queues msg for the write pump. Slow clients drop messages rather
// than block the sender; the next state_sync brings them up to date.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to marshal message")
		return
	}
	c.trySend(data)
}

// sendSnapshot queues a state sync of the given room version unless a newer
// version of the same room was already queued. Commands from different
// sockets save and emit concurrently, so snapshots can arrive here out of
// order.
func (c *Client) sendSnapshot(roomID uuid.UUID, version int64, msg *Message) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if roomID == c.syncedRoom && version < c.syncedVersion {
		log.Debug().
			Str("player_id", c.playerID.String()).
			Int64("version", version).
			Int64("synced_version", c.syncedVersion).
			Msg("dropping stale state sync")
		return
	}
	c.syncedRoom, c.syncedVersion = roomID, version
	c.Send(msg)
}

func (c *Client) trySend(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Warn().Str("player_id", c.playerID.String()).Msg("client send buffer full, dropping message")
	}
}

func (c *Client) sendError(code, message string) {
	msg, _ := NewMessage(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
	c.Send(msg)
}

// Close marks the client as closed and closes its send channel
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.send)
}

func (c *Client) PlayerID() uuid.UUID {
	return c.playerID
}

func (c *Client) DisplayName() string {
	return c.displayName
}

func (c *Client) RoomID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Client) setRoomID(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = id
}
