package service

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type LeaveRoomResult struct {
	Room    *domain.Room
	RoomID  uuid.UUID
	Deleted bool
	// NewAdminID is set when the leaver was the admin and someone took over.
	NewAdminID *uuid.UUID
	// PreviousStatus lets callers tell whether the departure ended or reset a game.
	PreviousStatus domain.RoomStatus
}

func (s *GameService) LeaveRoom(ctx context.Context, playerID uuid.UUID) (*LeaveRoomResult, error) {
	result := &LeaveRoomResult{}
	room, err := s.mutate(ctx, s.byPlayer(playerID), func(room *domain.Room) (*domain.Room, error) {
		result.PreviousStatus = room.Status
		result.NewAdminID = nil
		next, err := room.RemovePlayer(playerID)
		if err != nil {
			return nil, err
		}
		if room.IsAdmin(playerID) && !next.IsEmpty() {
			admin := next.AdminID
			result.NewAdminID = &admin
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	result.Room = room
	result.RoomID = room.ID
	result.Deleted = room.IsEmpty()
	if result.Deleted {
		// Someone may have joined before the empty room was deleted.
		_, err := s.load(ctx, func(ctx context.Context) (*domain.Room, error) {
			return s.rooms.FindByID(ctx, room.ID)
		})
		result.Deleted = errors.Is(err, domain.ErrRoomNotFound)
	}
	return result, nil
}

type KickPlayerInput struct {
	AdminID  uuid.UUID
	TargetID uuid.UUID
}

type KickPlayerResult struct {
	Room           *domain.Room
	KickedID       uuid.UUID
	PreviousStatus domain.RoomStatus
}

func (s *GameService) KickPlayer(ctx context.Context, input KickPlayerInput) (*KickPlayerResult, error) {
	result := &KickPlayerResult{KickedID: input.TargetID}
	room, err := s.mutate(ctx, s.byPlayer(input.AdminID), adminOnly(input.AdminID, func(room *domain.Room) (*domain.Room, error) {
		if input.TargetID == input.AdminID {
			return nil, domain.ErrInvalidState
		}
		result.PreviousStatus = room.Status
		return room.RemovePlayer(input.TargetID)
	}))
	if err != nil {
		return nil, err
	}
	result.Room = room
	return result, nil
}
