package service

import (
	"context"
	"time"

	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sweeper deletes rooms that have had no connected player for the configured
// inactivity window. It runs outside the request path.
type Sweeper struct {
	rooms    repository.RoomRepository
	cfg      *config.Config
	now      func() time.Time
	onDelete func(room *domain.Room)
}

func NewSweeper(rooms repository.RoomRepository, cfg *config.Config) *Sweeper {
	return &Sweeper{
		rooms: rooms,
		cfg:   cfg,
		now:   time.Now,
	}
}

// OnDelete registers a callback invoked for every swept room.
func (s *Sweeper) OnDelete(fn func(room *domain.Room)) {
	s.onDelete = fn
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("room sweep failed")
			}
		}
	}
}

// SweepOnce deletes every inactive room and returns their ids. A room that
// was written after it was found, for example by a reconnecting player, is
// skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.RoomInactivity)
	rooms, err := s.rooms.FindInactive(ctx, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "find inactive rooms")
	}

	var deleted []uuid.UUID
	for _, room := range rooms {
		err := s.rooms.Delete(ctx, room.ID, room.Version)
		if errors.Is(err, repository.ErrConflict) {
			log.Debug().Str("room_id", room.ID.String()).Msg("room changed since it was found idle, keeping it")
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("room_id", room.ID.String()).Msg("failed to delete inactive room")
			continue
		}
		deleted = append(deleted, room.ID)
		log.Info().
			Str("room_id", room.ID.String()).
			Str("code", room.Code).
			Time("last_activity", room.LastActivityAt).
			Msg("deleted inactive room")
		if s.onDelete != nil {
			s.onDelete(room)
		}
	}
	return deleted, nil
}
