package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the write lost a race: the stored version moved on,
	// or a unique key (room code, room membership) is already taken.
	ErrConflict = errors.New("concurrent modification")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// RoomRepository stores room aggregates. Save is a compare-and-swap on
// Room.Version: version 0 inserts, any other version must match the stored
// one. On success the room's Version is advanced in place. Delete follows
// the same rule: it removes the room only while the stored version still
// equals version and returns ErrConflict otherwise. Deleting a missing room
// is not an error.
type RoomRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	FindByCode(ctx context.Context, code string) (*domain.Room, error)
	FindByPlayerID(ctx context.Context, playerID uuid.UUID) (*domain.Room, error)
	Save(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id uuid.UUID, version int64) error
	CountActive(ctx context.Context) (int64, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)
	// FindInactive returns rooms idle since before the given time with no
	// connected player.
	FindInactive(ctx context.Context, since time.Time) ([]*domain.Room, error)
}

type WordRepository interface {
	// GetRandomWord returns an approved word. An empty category matches any.
	GetRandomWord(ctx context.Context, category, language string) (*domain.Word, error)
	Categories(ctx context.Context, language string) ([]domain.Category, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Room    RoomRepository
	Word    WordRepository
}
