package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type PlayerView struct {
	ID          uuid.UUID  `json:"id"`
	DisplayName string     `json:"displayName"`
	Connected   bool       `json:"connected"`
	Eliminated  bool       `json:"eliminated"`
	HasVoted    bool       `json:"hasVoted"`
	VotedFor    *uuid.UUID `json:"votedFor,omitempty"`
	IsAdmin     bool       `json:"isAdmin"`
	IsImpostor  bool       `json:"isImpostor,omitempty"`
}

// RoomView is the room as one particular player is allowed to see it.
type RoomView struct {
	ID               uuid.UUID    `json:"id"`
	Version          int64        `json:"version"`
	Code             string       `json:"code"`
	AdminID          uuid.UUID    `json:"adminId"`
	ViewerID         uuid.UUID    `json:"viewerId"`
	Status           RoomStatus   `json:"status"`
	Language         string       `json:"language"`
	Mode             GameMode     `json:"mode"`
	Category         string       `json:"category,omitempty"`
	Word             string       `json:"word,omitempty"`
	IsImpostor       bool         `json:"isImpostor"`
	ImpostorIDs      []uuid.UUID  `json:"impostorIds,omitempty"`
	ImpostorCount    int          `json:"impostorCount"`
	TurnOrder        []uuid.UUID  `json:"turnOrder"`
	Round            int          `json:"round"`
	Players          []PlayerView `json:"players"`
	WinCondition     WinCondition `json:"winCondition,omitempty"`
	LastEliminatedID *uuid.UUID   `json:"lastEliminatedId,omitempty"`
	SubmittedCount   int          `json:"submittedCount"`
	MinWordsRequired int          `json:"minWordsRequired"`
	HasSubmitted     bool         `json:"hasSubmitted"`
	Tally            *VoteTally   `json:"tally,omitempty"`
	LastActivityAt   time.Time    `json:"lastActivityAt"`
}

// NewRoomView projects room for viewerID. The secret word goes to crew
// members during play and to everyone once finished. Impostor identity goes
// to the impostor themself during play and to everyone once finished.
// Submitted words are never exposed.
func NewRoomView(room *Room, viewerID uuid.UUID) RoomView {
	finished := room.Status == RoomStatusFinished
	playing := room.Status == RoomStatusPlaying || room.Status == RoomStatusVoting
	viewerIsImpostor := room.IsImpostor(viewerID)

	view := RoomView{
		ID:               room.ID,
		Version:          room.Version,
		Code:             room.Code,
		AdminID:          room.AdminID,
		ViewerID:         viewerID,
		Status:           room.Status,
		Language:         room.Language,
		Mode:             room.Mode,
		Category:         room.Category,
		ImpostorCount:    room.ImpostorCount,
		TurnOrder:        slices.Clone(room.TurnOrder),
		Round:            room.Round,
		WinCondition:     room.WinCondition,
		SubmittedCount:   len(room.SubmittedWords),
		MinWordsRequired: room.MinWordsRequired(),
		LastActivityAt:   room.LastActivityAt,
	}
	if view.TurnOrder == nil {
		view.TurnOrder = []uuid.UUID{}
	}
	_, view.HasSubmitted = room.SubmittedWords[viewerID]

	if room.LastEliminatedID != nil {
		id := *room.LastEliminatedID
		view.LastEliminatedID = &id
	}

	switch {
	case finished:
		view.Word = room.Word
		view.IsImpostor = viewerIsImpostor
		view.ImpostorIDs = slices.Clone(room.ImpostorIDs)
	case playing && viewerIsImpostor:
		view.IsImpostor = true
		view.ImpostorIDs = []uuid.UUID{viewerID}
	case playing:
		view.Word = room.Word
	}

	if room.Status == RoomStatusVoting {
		tally := room.CalculateVotes()
		view.Tally = &tally
	}

	view.Players = make([]PlayerView, len(room.Players))
	for i, p := range room.Players {
		pv := PlayerView{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Connected:   p.Connected,
			Eliminated:  p.Eliminated,
			HasVoted:    p.HasVoted,
			IsAdmin:     p.ID == room.AdminID,
		}
		if p.VotedFor != nil {
			target := *p.VotedFor
			pv.VotedFor = &target
		}
		if finished || (playing && p.ID == viewerID) {
			pv.IsImpostor = room.IsImpostor(p.ID)
		}
		view.Players[i] = pv
	}
	return view
}
