package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
)

// roomRepository keeps rooms in process memory. Rooms are cloned on the way
// in and out so callers never share state with the store.
type roomRepository struct {
	mu      sync.RWMutex
	rooms   map[uuid.UUID]*domain.Room
	codes   map[string]uuid.UUID
	members map[uuid.UUID]uuid.UUID // player id -> room id
}

func NewRoomRepository() *roomRepository {
	return &roomRepository{
		rooms:   make(map[uuid.UUID]*domain.Room),
		codes:   make(map[string]uuid.UUID),
		members: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return room.Clone(), nil
}

func (r *roomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.codes[strings.ToUpper(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.rooms[id].Clone(), nil
}

func (r *roomRepository) FindByPlayerID(ctx context.Context, playerID uuid.UUID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.members[playerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.rooms[id].Clone(), nil
}

func (r *roomRepository) Save(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.rooms[room.ID]
	switch {
	case room.Version == 0 && exists:
		return repository.ErrConflict
	case room.Version != 0 && !exists:
		return repository.ErrNotFound
	case exists && stored.Version != room.Version:
		return repository.ErrConflict
	}

	if owner, taken := r.codes[room.Code]; taken && owner != room.ID {
		return repository.ErrConflict
	}
	for _, p := range room.Players {
		if owner, ok := r.members[p.ID]; ok && owner != room.ID {
			return repository.ErrConflict
		}
	}

	if exists {
		r.unindex(stored)
	}
	room.Version++
	saved := room.Clone()
	r.rooms[room.ID] = saved
	r.codes[saved.Code] = saved.ID
	for _, p := range saved.Players {
		r.members[p.ID] = saved.ID
	}
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil
	}
	if room.Version != version {
		return repository.ErrConflict
	}
	r.unindex(room)
	delete(r.rooms, id)
	return nil
}

func (r *roomRepository) CountActive(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rooms)), nil
}

func (r *roomRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.codes[strings.ToUpper(code)]
	return ok, nil
}

func (r *roomRepository) FindInactive(ctx context.Context, since time.Time) ([]*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []*domain.Room
	for _, room := range r.rooms {
		if room.LastActivityAt.Before(since) && room.ConnectedCount() == 0 {
			rooms = append(rooms, room.Clone())
		}
	}
	return rooms, nil
}

// unindex must be called with the write lock held.
func (r *roomRepository) unindex(room *domain.Room) {
	delete(r.codes, room.Code)
	for _, p := range room.Players {
		if r.members[p.ID] == room.ID {
			delete(r.members, p.ID)
		}
	}
}
