package websocket

import (
	"sync"

	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hub tracks which sockets watch which room. It holds no game state; rooms
// live in the repository and reach clients only through the EventEmitter.
type Hub struct {
	rooms      map[uuid.UUID]*RoomClients
	clients    map[*Client]bool
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex

	cfg      *config.Config
	events   *EventEmitter
	commands *CommandHandler
}

func NewHub(game *service.GameService, cfg *config.Config) *Hub {
	h := &Hub{
		rooms:      make(map[uuid.UUID]*RoomClients),
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		cfg:        cfg,
	}
	h.events = NewEventEmitter(h)
	h.commands = NewCommandHandler(game, h.events)
	return h
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.rooms = make(map[uuid.UUID]*RoomClients)
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.stopped {
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					h.detachLocked(client)
					client.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop closes every client and blocks until Run has exited. It is safe to
// call more than once and from several goroutines.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds the client synchronously so that events emitted right after
// the upgrade already reach it.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.clients[client] = true
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Events is the broadcaster shared by REST handlers and websocket commands.
func (h *Hub) Events() *EventEmitter {
	return h.events
}

func (h *Hub) Room(roomID uuid.UUID) *RoomClients {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}

// attach subscribes client to roomID, leaving any previous room.
func (h *Hub) attach(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.RoomID() == roomID {
		if state := h.rooms[roomID]; state != nil {
			state.AddClient(client)
			return
		}
	}
	h.detachLocked(client)

	state, ok := h.rooms[roomID]
	if !ok {
		state = NewRoomClients(roomID)
		h.rooms[roomID] = state
	}
	state.AddClient(client)
	client.setRoomID(roomID)
}

// attachPlayer subscribes every socket of playerID to roomID.
func (h *Hub) attachPlayer(playerID, roomID uuid.UUID) {
	for _, client := range h.playerClients(playerID) {
		h.attach(client, roomID)
	}
}

// detachPlayer unsubscribes every socket of playerID from roomID.
func (h *Hub) detachPlayer(playerID, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.playerID == playerID && client.RoomID() == roomID {
			h.detachLocked(client)
		}
	}
}

func (h *Hub) detach(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(client)
}

// detachLocked must be called with the write lock held.
func (h *Hub) detachLocked(client *Client) {
	roomID := client.RoomID()
	if roomID == uuid.Nil {
		return
	}
	if state, ok := h.rooms[roomID]; ok {
		state.RemoveClient(client)
		if state.ClientCount() == 0 {
			delete(h.rooms, roomID)
		}
	}
	client.setRoomID(uuid.Nil)
}

// closeRoom drops the room's subscriptions and returns the sockets that
// were watching it.
func (h *Hub) closeRoom(roomID uuid.UUID) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	delete(h.rooms, roomID)

	clients := state.Clients()
	for _, client := range clients {
		client.setRoomID(uuid.Nil)
	}
	log.Debug().Str("room_id", roomID.String()).Int("clients", len(clients)).Msg("closed room subscriptions")
	return clients
}

func (h *Hub) playerClients(playerID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	for client := range h.clients {
		if client.playerID == playerID {
			clients = append(clients, client)
		}
	}
	return clients
}
