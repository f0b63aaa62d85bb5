package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// RoomClients is the set of sockets subscribed to one game room.
type RoomClients struct {
	roomID uuid.UUID

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewRoomClients(roomID uuid.UUID) *RoomClients {
	return &RoomClients{
		roomID:  roomID,
		clients: make(map[*Client]bool),
	}
}

func (s *RoomClients) AddClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *RoomClients) RemoveClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
}

func (s *RoomClients) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Clients returns a snapshot so callers can send without holding the lock.
func (s *RoomClients) Clients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	return clients
}

// Broadcast sends a message to all clients in the room
func (s *RoomClients) Broadcast(msg *Message) {
	for _, client := range s.Clients() {
		client.Send(msg)
	}
}

// SendToPlayer sends a message to every socket of one player.
func (s *RoomClients) SendToPlayer(playerID uuid.UUID, msg *Message) {
	for _, client := range s.Clients() {
		if client.playerID == playerID {
			client.Send(msg)
		}
	}
}

// HasPlayer reports whether the player still has a socket in the room.
func (s *RoomClients) HasPlayer(playerID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if client.playerID == playerID {
			return true
		}
	}
	return false
}
