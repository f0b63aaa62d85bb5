package service

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
)

func (s *GameService) ChangeLanguage(ctx context.Context, adminID uuid.UUID, language string) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(adminID), adminOnly(adminID, func(room *domain.Room) (*domain.Room, error) {
		return room.ChangeLanguage(language)
	}))
}

// RenamePlayer lets a player change their own display name in the lobby.
func (s *GameService) RenamePlayer(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(playerID), func(room *domain.Room) (*domain.Room, error) {
		return room.RenamePlayer(playerID, displayName)
	})
}

// SetConnected records a websocket connecting or going away.
func (s *GameService) SetConnected(ctx context.Context, playerID uuid.UUID, connected bool) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(playerID), func(room *domain.Room) (*domain.Room, error) {
		if connected {
			return room.ConnectPlayer(playerID)
		}
		return room.DisconnectPlayer(playerID)
	})
}
