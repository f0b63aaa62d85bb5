package service

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
)

func (s *GameService) NextRound(ctx context.Context, adminID uuid.UUID) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(adminID), adminOnly(adminID, func(room *domain.Room) (*domain.Room, error) {
		return room.NextRound()
	}))
}

func (s *GameService) StartVoting(ctx context.Context, adminID uuid.UUID) (*domain.Room, error) {
	return s.mutate(ctx, s.byPlayer(adminID), adminOnly(adminID, func(room *domain.Room) (*domain.Room, error) {
		return room.StartVoting()
	}))
}

type CastVoteInput struct {
	VoterID  uuid.UUID
	TargetID uuid.UUID
}

type CastVoteResult struct {
	Room     *domain.Room
	Tally    domain.VoteTally
	AllVoted bool
}

func (s *GameService) CastVote(ctx context.Context, input CastVoteInput) (*CastVoteResult, error) {
	room, err := s.mutate(ctx, s.byPlayer(input.VoterID), func(room *domain.Room) (*domain.Room, error) {
		return room.CastVote(input.VoterID, input.TargetID)
	})
	if err != nil {
		return nil, err
	}

	tally := room.CalculateVotes()
	return &CastVoteResult{Room: room, Tally: tally, AllVoted: tally.AllVoted}, nil
}

type ConfirmVoteInput struct {
	AdminID   uuid.UUID
	Eliminate bool
}

type ConfirmVoteResult struct {
	Room    *domain.Room
	Outcome domain.VoteOutcome
}

// ConfirmVote resolves the voting phase at the admin's discretion.
func (s *GameService) ConfirmVote(ctx context.Context, input ConfirmVoteInput) (*ConfirmVoteResult, error) {
	var outcome domain.VoteOutcome
	room, err := s.mutate(ctx, s.byPlayer(input.AdminID), adminOnly(input.AdminID, func(room *domain.Room) (*domain.Room, error) {
		next, o, err := room.ResolveVoting(input.Eliminate)
		outcome = o
		return next, err
	}))
	if err != nil {
		return nil, err
	}
	return &ConfirmVoteResult{Room: room, Outcome: outcome}, nil
}
