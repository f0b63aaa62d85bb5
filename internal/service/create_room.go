package service

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const maxCodeAttempts = 10

type CreateRoomInput struct {
	PlayerID    uuid.UUID
	DisplayName string
	Language    string
}

func (s *GameService) CreateRoom(ctx context.Context, input CreateRoomInput) (*domain.Room, error) {
	if err := s.ensureUnaffiliated(ctx, input.PlayerID, ""); err != nil {
		return nil, err
	}

	count, err := s.countRooms(ctx)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.cfg.MaxRooms) {
		return nil, domain.ErrMaxRoomsReached
	}

	for range maxCodeAttempts {
		code, err := s.freeCode(ctx)
		if err != nil {
			return nil, err
		}

		room, err := domain.NewRoom(uuid.New(), code, input.PlayerID, input.DisplayName, input.Language)
		if err != nil {
			return nil, err
		}

		err = s.persist(ctx, room)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, errors.Wrap(err, "create room")
		}

		// Either the code was taken meanwhile or the player joined another room.
		if err := s.ensureUnaffiliated(ctx, input.PlayerID, ""); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("could not allocate a room code")
}

// ensureUnaffiliated fails with ErrAlreadyInRoom when the player belongs to
// a room other than allowedCode.
func (s *GameService) ensureUnaffiliated(ctx context.Context, playerID uuid.UUID, allowedCode string) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	room, err := s.rooms.FindByPlayerID(ctx, playerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrap(err, "find room by player")
	case allowedCode != "" && room.Code == allowedCode:
		return nil
	}
	return domain.ErrAlreadyInRoom
}

func (s *GameService) countRooms(ctx context.Context) (int64, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	count, err := s.rooms.CountActive(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count rooms")
	}
	return count, nil
}

func (s *GameService) freeCode(ctx context.Context) (string, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	for range maxCodeAttempts {
		code := domain.GenerateRoomCode()
		taken, err := s.rooms.IsCodeTaken(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "check room code")
		}
		if !taken {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a room code")
}
