package service

import (
	"context"
	"strings"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
)

type JoinRoomInput struct {
	Code        string
	PlayerID    uuid.UUID
	DisplayName string
}

type JoinRoomResult struct {
	Room        *domain.Room
	Reconnected bool
}

// JoinRoom adds a player to the room with the given code. Members of the
// room are reconnected instead, whatever state the game is in.
func (s *GameService) JoinRoom(ctx context.Context, input JoinRoomInput) (*JoinRoomResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if err := s.ensureUnaffiliated(ctx, input.PlayerID, code); err != nil {
		return nil, err
	}

	var reconnected bool
	room, err := s.mutate(ctx, s.byCode(code), func(room *domain.Room) (*domain.Room, error) {
		reconnected = room.HasPlayer(input.PlayerID)
		return room.AddPlayer(input.PlayerID, input.DisplayName)
	})
	if err != nil {
		return nil, err
	}
	return &JoinRoomResult{Room: room, Reconnected: reconnected}, nil
}
