package domain

import "github.com/google/uuid"

// Player is one participant inside a room. Every method returns a modified
// copy; callers decide whether a transition is legal for the room state.
type Player struct {
	ID          uuid.UUID  `json:"id"`
	DisplayName string     `json:"displayName"`
	Connected   bool       `json:"connected"`
	Eliminated  bool       `json:"eliminated"`
	HasVoted    bool       `json:"hasVoted"`
	VotedFor    *uuid.UUID `json:"votedFor,omitempty"`
}

func NewPlayer(id uuid.UUID, displayName string) Player {
	return Player{
		ID:          id,
		DisplayName: displayName,
		Connected:   true,
	}
}

func (p Player) Connect() Player {
	p.Connected = true
	return p
}

func (p Player) Disconnect() Player {
	p.Connected = false
	return p
}

// Eliminate also drops any ballot so an eliminated player never counts as voted.
func (p Player) Eliminate() Player {
	p.Eliminated = true
	p.HasVoted = false
	p.VotedFor = nil
	return p
}

func (p Player) CastVote(targetID uuid.UUID) Player {
	target := targetID
	p.HasVoted = true
	p.VotedFor = &target
	return p
}

func (p Player) ResetVote() Player {
	p.HasVoted = false
	p.VotedFor = nil
	return p
}

func (p Player) ResetForNewGame() Player {
	p.Eliminated = false
	return p.ResetVote()
}

func (p Player) UpdateDisplayName(name string) Player {
	p.DisplayName = name
	return p
}

// IsActive reports whether the player still takes part in votes.
func (p Player) IsActive() bool {
	return !p.Eliminated
}
