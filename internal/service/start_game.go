package service

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type StartGameInput struct {
	AdminID       uuid.UUID
	Mode          domain.GameMode
	ImpostorCount int
	// Category restricts the dictionary in classic mode; empty means any.
	Category string
}

// StartGame starts a classic game with a dictionary word, or opens word
// collection for roulette. When no word is available nothing is saved.
func (s *GameService) StartGame(ctx context.Context, input StartGameInput) (*domain.Room, error) {
	switch input.Mode {
	case domain.GameModeRoulette:
		return s.mutate(ctx, s.byPlayer(input.AdminID), adminOnly(input.AdminID, func(room *domain.Room) (*domain.Room, error) {
			return room.StartCollecting(input.ImpostorCount)
		}))
	case domain.GameModeClassic, "":
	default:
		return nil, domain.ErrInvalidState
	}

	// Check the preconditions before asking the word source.
	room, err := s.load(ctx, s.byPlayer(input.AdminID))
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(input.AdminID) {
		return nil, domain.ErrNotAdmin
	}
	if room.Status != domain.RoomStatusLobby {
		return nil, domain.ErrGameAlreadyStarted
	}
	if err := domain.ValidateImpostorCount(room.PlayerCount(), input.ImpostorCount); err != nil {
		return nil, err
	}

	word, err := s.randomWord(ctx, input.Category, room.Language)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, s.byPlayer(input.AdminID), adminOnly(input.AdminID, func(room *domain.Room) (*domain.Room, error) {
		return room.StartGame(word.Text, word.Category, input.ImpostorCount)
	}))
}

func (s *GameService) randomWord(ctx context.Context, category, language string) (*domain.Word, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	word, err := s.words.GetRandomWord(ctx, category, language)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrNoWordAvailable
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get random word (category=%q language=%q)", category, language)
	}
	return word, nil
}

type SubmitWordResult struct {
	Room          *domain.Room
	CanForceStart bool
}

func (s *GameService) SubmitWord(ctx context.Context, playerID uuid.UUID, word string) (*SubmitWordResult, error) {
	room, err := s.mutate(ctx, s.byPlayer(playerID), func(room *domain.Room) (*domain.Room, error) {
		return room.SubmitWord(playerID, word)
	})
	if err != nil {
		return nil, err
	}
	return &SubmitWordResult{Room: room, CanForceStart: room.CanForceStart()}, nil
}

// ForceStart ends word collection once enough words are in.
func (s *GameService) ForceStart(ctx context.Context, adminID uuid.UUID) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(adminID), adminOnly(adminID, func(room *domain.Room) (*domain.Room, error) {
		return room.StartGameFromCollecting()
	}))
}

func (s *GameService) PlayAgain(ctx context.Context, adminID uuid.UUID) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(adminID), adminOnly(adminID, func(room *domain.Room) (*domain.Room, error) {
		return room.ResetToLobby()
	}))
}
