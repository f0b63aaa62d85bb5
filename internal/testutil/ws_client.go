package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

// DefaultTimeout bounds every Expect helper that is not given its own.
const DefaultTimeout = 2 * time.Second

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient dials url and consumes the initial state_sync the server
// sends on connect.
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	client.ExpectStateSync(DefaultTimeout)
	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

func (c *WSClient) sendCommand(action websocket.CommandAction, payload interface{}) {
	c.t.Helper()

	cmd := websocket.Command{Action: action}
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("failed to marshal command payload: %v", err)
		}
		cmd.Payload = payloadBytes
	}

	msg, err := websocket.NewMessage(websocket.MessageTypeCommand, cmd)
	if err != nil {
		c.t.Fatalf("failed to build command: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send command: %v", err)
	}
}

func (c *WSClient) CreateRoom(language string) {
	c.sendCommand(websocket.CmdCreateRoom, websocket.CmdCreateRoomPayload{Language: language})
}

func (c *WSClient) JoinRoom(code string) {
	c.sendCommand(websocket.CmdJoinRoom, websocket.CmdJoinRoomPayload{Code: code})
}

func (c *WSClient) LeaveRoom() {
	c.sendCommand(websocket.CmdLeaveRoom, nil)
}

func (c *WSClient) KickPlayer(targetID uuid.UUID) {
	c.sendCommand(websocket.CmdKickPlayer, websocket.CmdTargetPayload{TargetID: targetID})
}

func (c *WSClient) StartGame(mode domain.GameMode, impostors int, category string) {
	c.sendCommand(websocket.CmdStartGame, websocket.CmdStartGamePayload{
		Mode:          mode,
		ImpostorCount: impostors,
		Category:      category,
	})
}

func (c *WSClient) StartVoting() {
	c.sendCommand(websocket.CmdStartVoting, nil)
}

func (c *WSClient) CastVote(targetID uuid.UUID) {
	c.sendCommand(websocket.CmdCastVote, websocket.CmdTargetPayload{TargetID: targetID})
}

func (c *WSClient) ConfirmVote(eliminate bool) {
	c.sendCommand(websocket.CmdConfirmVote, websocket.CmdConfirmVotePayload{Eliminate: eliminate})
}

func (c *WSClient) SyncState() {
	c.sendCommand(websocket.CmdSyncState, nil)
}

// ExpectMessage skips messages until one of msgType arrives.
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("websocket error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for %s", msgType)
		}
	}
}

func (c *WSClient) decode(msg *websocket.Message, v interface{}) {
	c.t.Helper()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msg.Type, err)
	}
}

// ExpectStateSync returns the next room view; nil means the player has no room.
func (c *WSClient) ExpectStateSync(timeout time.Duration) *domain.RoomView {
	c.t.Helper()
	var payload websocket.StateSyncPayload
	c.decode(c.ExpectMessage(websocket.MessageTypeStateSync, timeout), &payload)
	return payload.Room
}

// ExpectStateWhere waits for a state_sync whose view satisfies match.
func (c *WSClient) ExpectStateWhere(match func(*domain.RoomView) bool, timeout time.Duration) *domain.RoomView {
	c.t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("timeout waiting for matching state_sync")
		}
		if view := c.ExpectStateSync(remaining); match(view) {
			return view
		}
	}
}

func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()
	var payload websocket.ErrorPayload
	c.decode(c.ExpectMessage(websocket.MessageTypeError, timeout), &payload)
	return &payload
}

func (c *WSClient) ExpectErrorWithCode(code string, timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()
	payload := c.ExpectError(timeout)
	if payload.Code != code {
		c.t.Fatalf("expected error code %s, got %s (%s)", code, payload.Code, payload.Message)
	}
	return payload
}

func (c *WSClient) ExpectGameEnded(timeout time.Duration) *websocket.GameEndedPayload {
	c.t.Helper()
	var payload websocket.GameEndedPayload
	c.decode(c.ExpectMessage(websocket.MessageTypeGameEnded, timeout), &payload)
	return &payload
}

// ExpectNoMessage fails if any message other than state_sync arrives.
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				return
			}
			if msg.Type != websocket.MessageTypeStateSync {
				c.t.Fatalf("unexpected message %s", msg.Type)
			}
		case <-deadline:
			return
		}
	}
}
