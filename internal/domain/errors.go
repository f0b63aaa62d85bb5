package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable identifier clients receive when a command is rejected.
type ErrorCode string

const (
	CodeRoomNotFound       ErrorCode = "ROOM_NOT_FOUND"
	CodeNotAdmin           ErrorCode = "NOT_ADMIN"
	CodeNotEnoughPlayers   ErrorCode = "NOT_ENOUGH_PLAYERS"
	CodeGameAlreadyStarted ErrorCode = "GAME_ALREADY_STARTED"
	CodeInvalidState       ErrorCode = "INVALID_STATE"
	CodeAlreadyVoted       ErrorCode = "ALREADY_VOTED"
	CodeInvalidVoteTarget  ErrorCode = "INVALID_VOTE_TARGET"
	CodePlayerNotFound     ErrorCode = "PLAYER_NOT_FOUND"
	CodeAlreadyInRoom      ErrorCode = "ALREADY_IN_ROOM"
	CodeMaxRoomsReached    ErrorCode = "MAX_ROOMS_REACHED"
	CodeNoWordAvailable    ErrorCode = "NO_WORD_AVAILABLE"
)

// Error is a rejected precondition. Two errors are considered the same by
// errors.Is when their codes match, so detailed variants still match the
// sentinels below.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Room errors
var (
	ErrRoomNotFound       = &Error{Code: CodeRoomNotFound, Message: "room not found"}
	ErrNotAdmin           = &Error{Code: CodeNotAdmin, Message: "only the room admin can perform this action"}
	ErrNotEnoughPlayers   = &Error{Code: CodeNotEnoughPlayers, Message: "not enough players to start"}
	ErrGameAlreadyStarted = &Error{Code: CodeGameAlreadyStarted, Message: "game has already started"}
	ErrInvalidState       = &Error{Code: CodeInvalidState, Message: "invalid room state for this action"}
	ErrAlreadyInRoom      = &Error{Code: CodeAlreadyInRoom, Message: "player is already in a room"}
	ErrMaxRoomsReached    = &Error{Code: CodeMaxRoomsReached, Message: "maximum number of rooms reached"}
	ErrNoWordAvailable    = &Error{Code: CodeNoWordAvailable, Message: "no word available for this category"}
)

// Player and voting errors
var (
	ErrPlayerNotFound    = &Error{Code: CodePlayerNotFound, Message: "player not found"}
	ErrAlreadyVoted      = &Error{Code: CodeAlreadyVoted, Message: "player has already voted"}
	ErrInvalidVoteTarget = &Error{Code: CodeInvalidVoteTarget, Message: "invalid vote target"}
)
