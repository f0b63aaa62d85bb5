package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// GameService runs the game use cases. Each one loads a room, applies a
// single transition and saves the result; see mutate for how concurrent
// writers to the same room are serialized.
type GameService struct {
	rooms repository.RoomRepository
	words repository.WordRepository
	cfg   *config.Config
}

func NewGameService(rooms repository.RoomRepository, words repository.WordRepository, cfg *config.Config) *GameService {
	return &GameService{
		rooms: rooms,
		words: words,
		cfg:   cfg,
	}
}

type roomLoader func(ctx context.Context) (*domain.Room, error)

type transition func(room *domain.Room) (*domain.Room, error)

func (s *GameService) byPlayer(playerID uuid.UUID) roomLoader {
	return func(ctx context.Context) (*domain.Room, error) {
		return s.rooms.FindByPlayerID(ctx, playerID)
	}
}

func (s *GameService) byCode(code string) roomLoader {
	return func(ctx context.Context) (*domain.Room, error) {
		return s.rooms.FindByCode(ctx, code)
	}
}

// adminOnly rejects the transition unless adminID administers the room.
func adminOnly(adminID uuid.UUID, fn transition) transition {
	return func(room *domain.Room) (*domain.Room, error) {
		if !room.IsAdmin(adminID) {
			return nil, domain.ErrNotAdmin
		}
		return fn(room)
	}
}

func (s *GameService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *GameService) load(ctx context.Context, load roomLoader) (*domain.Room, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	room, err := load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load room")
	}
	return room, nil
}

// persist saves room, deleting it instead once nobody is left. The save runs
// first so a stale version is still detected. If someone joined the empty
// room in between, the delete loses and the room lives on.
func (s *GameService) persist(ctx context.Context, room *domain.Room) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	if !room.IsEmpty() {
		return nil
	}
	err := s.rooms.Delete(ctx, room.ID, room.Version)
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}

func (s *GameService) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(5*time.Millisecond),
		backoff.WithMaxInterval(250*time.Millisecond),
	)
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(s.cfg.SaveRetries, 0))), ctx)
}

// mutate is the only write path for rooms. It loads the current room,
// applies fn and saves the result with a version check. When another writer
// saved first, the whole read-apply-save is repeated with backoff, so no
// update is ever lost or applied on top of a stale copy. Domain errors and
// other failures stop immediately. fn may run more than once and must not
// have side effects besides recording its own output.
func (s *GameService) mutate(ctx context.Context, load roomLoader, fn transition) (*domain.Room, error) {
	op := func() (*domain.Room, error) {
		current, err := s.load(ctx, load)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		next, err := fn(current)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if err := s.persist(ctx, next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, err
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, backoff.Permanent(domain.ErrRoomNotFound)
			}
			return nil, backoff.Permanent(errors.Wrapf(err, "save room %s", next.ID))
		}
		return next, nil
	}

	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Dur("wait", wait).Msg("room write conflict, retrying")
	}

	room, err := backoff.RetryNotifyWithData(op, s.retryPolicy(ctx), notify)
	if errors.Is(err, repository.ErrConflict) {
		return nil, errors.Wrap(err, "room is busy")
	}
	return room, err
}

// Categories lists dictionary categories for the lobby.
func (s *GameService) Categories(ctx context.Context, language string) ([]domain.Category, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	categories, err := s.words.Categories(ctx, language)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

// GetRoomView returns the caller's room as they are allowed to see it.
func (s *GameService) GetRoomView(ctx context.Context, playerID uuid.UUID) (*domain.RoomView, error) {
	room, err := s.load(ctx, s.byPlayer(playerID))
	if err != nil {
		return nil, err
	}
	view := domain.NewRoomView(room, playerID)
	return &view, nil
}

// GetRoomByCode is used by read-only endpoints such as the join QR code.
func (s *GameService) GetRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	return s.load(ctx, s.byCode(code))
}
