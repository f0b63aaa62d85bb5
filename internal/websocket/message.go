package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server
	MessageTypeCommand MessageType = "command"

	// Server to Client
	MessageTypeStateSync        MessageType = "state_sync"
	MessageTypePlayerJoined     MessageType = "player_joined"
	MessageTypePlayerLeft       MessageType = "player_left"
	MessageTypePlayerKicked     MessageType = "player_kicked"
	MessageTypeAdminChanged     MessageType = "admin_changed"
	MessageTypeGameStarted      MessageType = "game_started"
	MessageTypeWordSubmitted    MessageType = "word_submitted"
	MessageTypeRoundAdvanced    MessageType = "round_advanced"
	MessageTypeVotingStarted    MessageType = "voting_started"
	MessageTypeVoteTallyUpdated MessageType = "vote_tally_updated"
	MessageTypeVoteResult       MessageType = "vote_result"
	MessageTypeGameEnded        MessageType = "game_ended"
	MessageTypeReturnedToLobby  MessageType = "returned_to_lobby"
	MessageTypeLanguageChanged  MessageType = "language_changed"
	MessageTypeRoomDeleted      MessageType = "room_deleted"
	MessageTypeError            MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// ============================================================================
// COMMAND - Client → Server actions
// ============================================================================

type CommandAction string

const (
	CmdCreateRoom     CommandAction = "create_room"
	CmdJoinRoom       CommandAction = "join_room"
	CmdLeaveRoom      CommandAction = "leave_room"
	CmdKickPlayer     CommandAction = "kick_player"
	CmdChangeLanguage CommandAction = "change_language"
	CmdRename         CommandAction = "rename"
	CmdStartGame      CommandAction = "start_game"
	CmdSubmitWord     CommandAction = "submit_word"
	CmdForceStart     CommandAction = "force_start"
	CmdNextRound      CommandAction = "next_round"
	CmdStartVoting    CommandAction = "start_voting"
	CmdCastVote       CommandAction = "cast_vote"
	CmdConfirmVote    CommandAction = "confirm_vote"
	CmdPlayAgain      CommandAction = "play_again"
	CmdSyncState      CommandAction = "sync_state"
)

// Command is the envelope for all client→server actions
type Command struct {
	Action  CommandAction   `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command payloads

type CmdCreateRoomPayload struct {
	Language string `json:"language"`
}

type CmdJoinRoomPayload struct {
	Code string `json:"code"`
}

type CmdTargetPayload struct {
	TargetID uuid.UUID `json:"targetId"`
}

type CmdChangeLanguagePayload struct {
	Language string `json:"language"`
}

type CmdRenamePayload struct {
	DisplayName string `json:"displayName"`
}

type CmdStartGamePayload struct {
	Mode          domain.GameMode `json:"mode"`
	ImpostorCount int             `json:"impostorCount"`
	Category      string          `json:"category"`
}

type CmdSubmitWordPayload struct {
	Word string `json:"word"`
}

type CmdConfirmVotePayload struct {
	Eliminate bool `json:"eliminate"`
}

// Server to Client payloads

// StateSyncPayload carries the recipient's own view; Room is nil when the
// player is not in a room.
type StateSyncPayload struct {
	Room *domain.RoomView `json:"room"`
}

type PlayerJoinedPayload struct {
	PlayerID    uuid.UUID `json:"playerId"`
	DisplayName string    `json:"displayName"`
	Reconnected bool      `json:"reconnected"`
}

type PlayerLeftPayload struct {
	PlayerID uuid.UUID `json:"playerId"`
}

type PlayerKickedPayload struct {
	PlayerID uuid.UUID `json:"playerId"`
	KickedBy uuid.UUID `json:"kickedBy"`
}

type AdminChangedPayload struct {
	AdminID uuid.UUID `json:"adminId"`
}

type GameStartedPayload struct {
	Mode          domain.GameMode   `json:"mode"`
	Status        domain.RoomStatus `json:"status"`
	ImpostorCount int               `json:"impostorCount"`
	Category      string            `json:"category,omitempty"`
	TurnOrder     []uuid.UUID       `json:"turnOrder"`
}

type WordSubmittedPayload struct {
	PlayerID         uuid.UUID `json:"playerId"`
	SubmittedCount   int       `json:"submittedCount"`
	MinWordsRequired int       `json:"minWordsRequired"`
	CanForceStart    bool      `json:"canForceStart"`
}

type RoundAdvancedPayload struct {
	Round int `json:"round"`
}

type VotingStartedPayload struct {
	Round int `json:"round"`
}

type VoteTallyUpdatedPayload struct {
	VoterID uuid.UUID        `json:"voterId"`
	Tally   domain.VoteTally `json:"tally"`
}

type VoteResultPayload struct {
	Outcome domain.VoteOutcome `json:"outcome"`
}

type GameEndedPayload struct {
	WinCondition domain.WinCondition `json:"winCondition"`
	Word         string              `json:"word"`
	ImpostorIDs  []uuid.UUID         `json:"impostorIds"`
}

type LanguageChangedPayload struct {
	Language string `json:"language"`
}

type RoomDeletedPayload struct {
	RoomID uuid.UUID `json:"roomId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes that are not domain codes.
const (
	ErrCodeInvalidCommand = "INVALID_COMMAND"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeUnknownCommand = "UNKNOWN_COMMAND"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeTransient      = "TRANSIENT"
)
