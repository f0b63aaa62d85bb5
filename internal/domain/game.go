package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

func maxImpostorsFor(playerCount int) int {
	return min(MaxImpostors, playerCount/MinPlayersPerImpostor)
}

// ValidateImpostorCount checks the requested impostor count against the
// number of players in the room.
func ValidateImpostorCount(playerCount, impostorCount int) error {
	if playerCount < MinPlayers {
		return ErrNotEnoughPlayers
	}
	if impostorCount < MinImpostors || impostorCount > MaxImpostors {
		return newError(CodeInvalidState, "impostor count must be between %d and %d", MinImpostors, MaxImpostors)
	}
	if playerCount < impostorCount*MinPlayersPerImpostor {
		return newError(CodeInvalidState, "%d impostors need at least %d players",
			impostorCount, impostorCount*MinPlayersPerImpostor)
	}
	return nil
}

func (r *Room) canStart(impostorCount int) error {
	if r.Status != RoomStatusLobby {
		return ErrGameAlreadyStarted
	}
	return ValidateImpostorCount(len(r.Players), impostorCount)
}

// StartCollecting opens the word collection phase of a roulette game.
func (r *Room) StartCollecting(impostorCount int) (*Room, error) {
	if err := r.canStart(impostorCount); err != nil {
		return nil, err
	}

	next := r.Clone()
	next.clearGame()
	next.Status = RoomStatusCollectingWords
	next.Mode = GameModeRoulette
	next.ImpostorCount = impostorCount
	// Impostors are drawn once the word is chosen.
	next.TurnOrder = Shuffle(next.PlayerIDs())
	next.touch()
	return next, nil
}

// StartGame starts a classic game with a word picked from the dictionary.
func (r *Room) StartGame(word, category string, impostorCount int) (*Room, error) {
	if err := r.canStart(impostorCount); err != nil {
		return nil, err
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, newError(CodeInvalidState, "a secret word is required")
	}

	next := r.Clone()
	next.clearGame()
	next.Mode = GameModeClassic
	next.ImpostorCount = impostorCount
	next.beginPlaying(word, category)
	next.touch()
	return next, nil
}

// SubmitWord records a player's candidate word during collection.
func (r *Room) SubmitWord(playerID uuid.UUID, word string) (*Room, error) {
	if r.Status != RoomStatusCollectingWords {
		return nil, ErrInvalidState
	}
	if !r.HasPlayer(playerID) {
		return nil, ErrPlayerNotFound
	}
	if _, ok := r.SubmittedWords[playerID]; ok {
		return nil, newError(CodeInvalidState, "word already submitted")
	}

	word = strings.TrimSpace(word)
	if word == "" {
		return nil, newError(CodeInvalidState, "word must not be empty")
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return nil, newError(CodeInvalidState, "word must be at most %d characters", MaxWordLength)
	}

	next := r.Clone()
	next.SubmittedWords[playerID] = word
	next.touch()
	return next, nil
}

// MinWordsRequired is ceil(players/2).
func (r *Room) MinWordsRequired() int {
	return (len(r.Players) + 1) / 2
}

func (r *Room) CanForceStart() bool {
	return r.Status == RoomStatusCollectingWords && len(r.SubmittedWords) >= r.MinWordsRequired()
}

// StartGameFromCollecting picks the secret word uniformly among the
// submitted ones and starts playing with fresh roles.
func (r *Room) StartGameFromCollecting() (*Room, error) {
	if r.Status != RoomStatusCollectingWords {
		return nil, ErrInvalidState
	}
	if !r.CanForceStart() {
		return nil, newError(CodeInvalidState, "need at least %d submitted words, have %d",
			r.MinWordsRequired(), len(r.SubmittedWords))
	}
	if err := ValidateImpostorCount(len(r.Players), r.ImpostorCount); err != nil {
		return nil, err
	}

	// Map iteration order is not uniform, so pick from a stable list.
	submitters := make([]uuid.UUID, 0, len(r.SubmittedWords))
	for _, p := range r.Players {
		if _, ok := r.SubmittedWords[p.ID]; ok {
			submitters = append(submitters, p.ID)
		}
	}
	word := r.SubmittedWords[submitters[randomIntn(len(submitters))]]

	next := r.Clone()
	next.beginPlaying(word, RouletteCategory)
	next.touch()
	return next, nil
}

func (r *Room) NextRound() (*Room, error) {
	if r.Status != RoomStatusPlaying {
		return nil, ErrInvalidState
	}
	next := r.Clone()
	next.Round++
	next.touch()
	return next, nil
}

func (r *Room) FinishGame(condition WinCondition) (*Room, error) {
	if r.Status != RoomStatusPlaying && r.Status != RoomStatusVoting {
		return nil, ErrInvalidState
	}
	if condition != WinConditionImpostorCaught && condition != WinConditionImpostorSurvived {
		return nil, newError(CodeInvalidState, "unknown win condition %q", condition)
	}

	next := r.Clone()
	next.Status = RoomStatusFinished
	next.WinCondition = condition
	for i, p := range next.Players {
		next.Players[i] = p.ResetVote()
	}
	next.touch()
	return next, nil
}

// ResetToLobby starts over with the same roster and admin.
func (r *Room) ResetToLobby() (*Room, error) {
	if r.Status != RoomStatusFinished {
		return nil, ErrInvalidState
	}
	next := r.Clone()
	next.clearGame()
	next.touch()
	return next, nil
}

// beginPlaying draws fresh roles and enters round one.
func (r *Room) beginPlaying(word, category string) {
	r.Status = RoomStatusPlaying
	r.Word = word
	r.Category = category
	r.Round = 1
	r.WinCondition = WinConditionNone
	r.LastEliminatedID = nil
	r.drawRoles()
	for i, p := range r.Players {
		r.Players[i] = p.ResetForNewGame()
	}
}

func (r *Room) drawRoles() {
	ids := r.PlayerIDs()
	r.ImpostorIDs = SelectImpostors(ids, r.ImpostorCount)
	r.TurnOrder = Shuffle(ids)
}

// clearGame drops all round-scoped state and returns the room to the lobby.
func (r *Room) clearGame() {
	r.Status = RoomStatusLobby
	r.Word = ""
	r.Category = ""
	r.ImpostorIDs = nil
	r.ImpostorCount = 0
	r.TurnOrder = nil
	r.Round = 0
	r.WinCondition = WinConditionNone
	r.SubmittedWords = make(map[uuid.UUID]string)
	r.LastEliminatedID = nil
	for i, p := range r.Players {
		r.Players[i] = p.ResetForNewGame()
	}
}
