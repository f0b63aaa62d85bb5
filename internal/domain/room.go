package domain

import (
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusLobby           RoomStatus = "lobby"
	RoomStatusCollectingWords RoomStatus = "collecting_words"
	RoomStatusPlaying         RoomStatus = "playing"
	RoomStatusVoting          RoomStatus = "voting"
	RoomStatusFinished        RoomStatus = "finished"
)

// GameMode selects where the secret word comes from.
type GameMode string

const (
	GameModeClassic  GameMode = "classic"  // curated dictionary
	GameModeRoulette GameMode = "roulette" // words submitted by the players
)

type WinCondition string

const (
	WinConditionNone             WinCondition = ""
	WinConditionImpostorCaught   WinCondition = "impostor_caught"
	WinConditionImpostorSurvived WinCondition = "impostor_survived"
)

const (
	MinPlayers            = 3
	MinImpostors          = 1
	MaxImpostors          = 6
	MinPlayersPerImpostor = 2

	CodeLength   = 4
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	DefaultLanguage      = "en"
	RouletteCategory     = "roulette"
	MaxWordLength        = 40
	MaxDisplayNameLength = 24
	maxLanguageLength    = 16
)

// Room is the aggregate root of a game. Transition methods never mutate the
// receiver: they return a new Room built from a deep copy plus the change, so
// a repository save is the only place where concurrent writers meet.
type Room struct {
	ID               uuid.UUID
	Code             string
	AdminID          uuid.UUID
	Status           RoomStatus
	Language         string
	Mode             GameMode
	Players          []Player
	Word             string
	Category         string
	ImpostorIDs      []uuid.UUID
	ImpostorCount    int
	TurnOrder        []uuid.UUID
	Round            int
	WinCondition     WinCondition
	SubmittedWords   map[uuid.UUID]string
	LastEliminatedID *uuid.UUID
	CreatedAt        time.Time
	LastActivityAt   time.Time

	// Version is owned by the repository and used for compare-and-swap saves.
	Version int64
}

func NewRoom(id uuid.UUID, code string, adminID uuid.UUID, adminName, language string) (*Room, error) {
	name, err := normalizeDisplayName(adminName)
	if err != nil {
		return nil, err
	}
	lang, err := normalizeLanguage(language)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Room{
		ID:             id,
		Code:           strings.ToUpper(code),
		AdminID:        adminID,
		Status:         RoomStatusLobby,
		Language:       lang,
		Mode:           GameModeClassic,
		Players:        []Player{NewPlayer(adminID, name)},
		SubmittedWords: make(map[uuid.UUID]string),
		CreatedAt:      now,
		LastActivityAt: now,
	}, nil
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	next := *r
	next.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		if p.VotedFor != nil {
			target := *p.VotedFor
			p.VotedFor = &target
		}
		next.Players[i] = p
	}
	next.ImpostorIDs = slices.Clone(r.ImpostorIDs)
	next.TurnOrder = slices.Clone(r.TurnOrder)
	next.SubmittedWords = maps.Clone(r.SubmittedWords)
	if next.SubmittedWords == nil {
		next.SubmittedWords = make(map[uuid.UUID]string)
	}
	if r.LastEliminatedID != nil {
		id := *r.LastEliminatedID
		next.LastEliminatedID = &id
	}
	return &next
}

func (r *Room) touch() {
	r.LastActivityAt = time.Now().UTC()
}

func (r *Room) playerIndex(id uuid.UUID) int {
	return slices.IndexFunc(r.Players, func(p Player) bool { return p.ID == id })
}

// Player returns the player with the given id.
func (r *Room) Player(id uuid.UUID) (Player, bool) {
	idx := r.playerIndex(id)
	if idx < 0 {
		return Player{}, false
	}
	return r.Players[idx], true
}

func (r *Room) HasPlayer(id uuid.UUID) bool {
	return r.playerIndex(id) >= 0
}

func (r *Room) PlayerCount() int {
	return len(r.Players)
}

func (r *Room) PlayerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

func (r *Room) IsAdmin(id uuid.UUID) bool {
	return r.AdminID == id
}

func (r *Room) IsImpostor(id uuid.UUID) bool {
	return slices.Contains(r.ImpostorIDs, id)
}

func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// ConnectedCount returns how many players currently hold a connection.
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// InGame reports whether a game is running (word collection included).
func (r *Room) InGame() bool {
	switch r.Status {
	case RoomStatusCollectingWords, RoomStatusPlaying, RoomStatusVoting:
		return true
	}
	return false
}

// AddPlayer joins a new player in the lobby. A player already in the room is
// treated as reconnecting, which is allowed in any state.
func (r *Room) AddPlayer(id uuid.UUID, displayName string) (*Room, error) {
	name, err := normalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	next := r.Clone()
	if idx := next.playerIndex(id); idx >= 0 {
		next.Players[idx] = next.Players[idx].Connect().UpdateDisplayName(name)
		next.touch()
		return next, nil
	}

	if r.Status != RoomStatusLobby {
		return nil, ErrGameAlreadyStarted
	}

	next.Players = append(next.Players, NewPlayer(id, name))
	next.touch()
	return next, nil
}

// RemovePlayer drops a player from every collection. The admin role moves to
// the first remaining player in join order. A running game falls back to the
// lobby when too few players remain, and otherwise finishes if the departure
// decided it. Deleting an empty room is left to the caller.
func (r *Room) RemovePlayer(id uuid.UUID) (*Room, error) {
	idx := r.playerIndex(id)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}

	next := r.Clone()
	next.Players = slices.Delete(next.Players, idx, idx+1)
	next.ImpostorIDs = removeID(next.ImpostorIDs, id)
	next.TurnOrder = removeID(next.TurnOrder, id)
	delete(next.SubmittedWords, id)
	for i, p := range next.Players {
		if p.VotedFor != nil && *p.VotedFor == id {
			next.Players[i] = p.ResetVote()
		}
	}

	if next.AdminID == id && len(next.Players) > 0 {
		next.AdminID = next.Players[0].ID
	}
	next.touch()

	if next.IsEmpty() || !next.InGame() {
		return next, nil
	}

	if len(next.Players) < MinPlayers {
		next.clearGame()
		return next, nil
	}

	switch next.Status {
	case RoomStatusCollectingWords:
		next.ImpostorCount = min(next.ImpostorCount, maxImpostorsFor(len(next.Players)))
	case RoomStatusPlaying, RoomStatusVoting:
		if cond := next.CheckWinCondition(); cond != WinConditionNone {
			next.Status = RoomStatusFinished
			next.WinCondition = cond
		}
	}
	return next, nil
}

func (r *Room) ConnectPlayer(id uuid.UUID) (*Room, error) {
	return r.updatePlayer(id, Player.Connect)
}

func (r *Room) DisconnectPlayer(id uuid.UUID) (*Room, error) {
	return r.updatePlayer(id, Player.Disconnect)
}

// RenamePlayer changes a display name while the room is in the lobby.
func (r *Room) RenamePlayer(id uuid.UUID, displayName string) (*Room, error) {
	if r.Status != RoomStatusLobby {
		return nil, ErrInvalidState
	}
	name, err := normalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	return r.updatePlayer(id, func(p Player) Player { return p.UpdateDisplayName(name) })
}

func (r *Room) ChangeLanguage(language string) (*Room, error) {
	if r.Status != RoomStatusLobby {
		return nil, ErrInvalidState
	}
	lang, err := normalizeLanguage(language)
	if err != nil {
		return nil, err
	}

	next := r.Clone()
	next.Language = lang
	next.touch()
	return next, nil
}

func (r *Room) updatePlayer(id uuid.UUID, fn func(Player) Player) (*Room, error) {
	idx := r.playerIndex(id)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	next := r.Clone()
	next.Players[idx] = fn(next.Players[idx])
	next.touch()
	return next, nil
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(ids, func(v uuid.UUID) bool { return v == id })
}

func normalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", newError(CodeInvalidState, "display name is required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", newError(CodeInvalidState, "display name must be at most %d characters", MaxDisplayNameLength)
	}
	return name, nil
}

func normalizeLanguage(language string) (string, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return DefaultLanguage, nil
	}
	if len(language) > maxLanguageLength {
		return "", newError(CodeInvalidState, "invalid language tag %q", language)
	}
	return language, nil
}
