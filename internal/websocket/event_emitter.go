package websocket

import (
	"slices"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventEmitter turns the results of game use cases into websocket traffic.
// It is called only after the room was saved. Every call ends with a
// state_sync so clients that dropped an event still converge.
type EventEmitter struct {
	hub *Hub
}

func NewEventEmitter(hub *Hub) *EventEmitter {
	return &EventEmitter{hub: hub}
}

// broadcast sends a message to all clients watching the room.
func (e *EventEmitter) broadcast(roomID uuid.UUID, msgType MessageType, payload interface{}) {
	state := e.hub.Room(roomID)
	if state == nil {
		return
	}
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(msgType)).Msg("failed to build event")
		return
	}
	state.Broadcast(msg)
}

// SyncRoom sends each subscribed client its own view of room.
func (e *EventEmitter) SyncRoom(room *domain.Room) {
	state := e.hub.Room(room.ID)
	if state == nil {
		return
	}
	for _, client := range state.Clients() {
		e.SyncClient(client, room)
	}
}

// SyncClient sends one client its view; a nil room tells it that it has none.
// A view older than one the client already got is dropped.
func (e *EventEmitter) SyncClient(client *Client, room *domain.Room) {
	if room == nil {
		e.syncView(client, nil)
		return
	}
	view := domain.NewRoomView(room, client.playerID)
	e.syncView(client, &view)
}

func (e *EventEmitter) syncView(client *Client, view *domain.RoomView) {
	msg, err := NewMessage(MessageTypeStateSync, StateSyncPayload{Room: view})
	if err != nil {
		log.Error().Err(err).Msg("failed to build state sync")
		return
	}
	if view == nil {
		client.Send(msg)
		return
	}
	client.sendSnapshot(view.ID, view.Version, msg)
}

// --- Membership events ---

func (e *EventEmitter) RoomCreated(room *domain.Room) {
	e.hub.attachPlayer(room.AdminID, room.ID)
	e.SyncRoom(room)
}

func (e *EventEmitter) PlayerJoined(result *service.JoinRoomResult, playerID uuid.UUID) {
	room := result.Room
	e.hub.attachPlayer(playerID, room.ID)

	player, _ := room.Player(playerID)
	e.broadcast(room.ID, MessageTypePlayerJoined, PlayerJoinedPayload{
		PlayerID:    playerID,
		DisplayName: player.DisplayName,
		Reconnected: result.Reconnected,
	})
	e.SyncRoom(room)
}

func (e *EventEmitter) PlayerLeft(result *service.LeaveRoomResult, playerID uuid.UUID) {
	if state := e.hub.Room(result.RoomID); state != nil {
		for _, client := range state.Clients() {
			if client.playerID == playerID {
				e.syncDeparted(client, result.Room)
			}
		}
	}
	e.hub.detachPlayer(playerID, result.RoomID)

	if result.Deleted {
		e.RoomDeleted(result.RoomID)
		return
	}

	e.broadcast(result.RoomID, MessageTypePlayerLeft, PlayerLeftPayload{PlayerID: playerID})
	if result.NewAdminID != nil {
		e.broadcast(result.RoomID, MessageTypeAdminChanged, AdminChangedPayload{AdminID: *result.NewAdminID})
	}
	e.departureOutcome(result.PreviousStatus, result.Room)
	e.SyncRoom(result.Room)
}

func (e *EventEmitter) PlayerKicked(result *service.KickPlayerResult) {
	room := result.Room
	// The kicked player's sockets are still subscribed and hear it first.
	e.broadcast(room.ID, MessageTypePlayerKicked, PlayerKickedPayload{
		PlayerID: result.KickedID,
		KickedBy: room.AdminID,
	})
	if state := e.hub.Room(room.ID); state != nil {
		for _, client := range state.Clients() {
			if client.playerID == result.KickedID {
				e.syncDeparted(client, room)
			}
		}
	}
	e.hub.detachPlayer(result.KickedID, room.ID)

	e.departureOutcome(result.PreviousStatus, room)
	e.SyncRoom(room)
}

// syncDeparted tells a socket it no longer has a room. The departure version
// is recorded so older snapshots of that room cannot follow it.
func (e *EventEmitter) syncDeparted(client *Client, room *domain.Room) {
	msg, err := NewMessage(MessageTypeStateSync, StateSyncPayload{})
	if err != nil {
		log.Error().Err(err).Msg("failed to build state sync")
		return
	}
	client.sendSnapshot(room.ID, room.Version, msg)
}

// departureOutcome reports a game that a departure ended or cancelled.
func (e *EventEmitter) departureOutcome(previous domain.RoomStatus, room *domain.Room) {
	inGame := previous != domain.RoomStatusLobby && previous != domain.RoomStatusFinished
	switch {
	case !inGame:
	case room.Status == domain.RoomStatusFinished:
		e.gameEnded(room)
	case room.Status == domain.RoomStatusLobby:
		e.broadcast(room.ID, MessageTypeReturnedToLobby, struct{}{})
	}
}

// ConnectionChanged is emitted when a player's first socket arrives or the
// last one goes away.
func (e *EventEmitter) ConnectionChanged(room *domain.Room) {
	e.SyncRoom(room)
}

func (e *EventEmitter) LanguageChanged(room *domain.Room) {
	e.broadcast(room.ID, MessageTypeLanguageChanged, LanguageChangedPayload{Language: room.Language})
	e.SyncRoom(room)
}

func (e *EventEmitter) PlayerRenamed(room *domain.Room) {
	e.SyncRoom(room)
}

// RoomDeleted tells whoever is still watching that the room is gone.
func (e *EventEmitter) RoomDeleted(roomID uuid.UUID) {
	msg, err := NewMessage(MessageTypeRoomDeleted, RoomDeletedPayload{RoomID: roomID})
	if err != nil {
		return
	}
	for _, client := range e.hub.closeRoom(roomID) {
		client.Send(msg)
		e.SyncClient(client, nil)
	}
}

// --- Game lifecycle events ---

func (e *EventEmitter) GameStarted(room *domain.Room) {
	e.broadcast(room.ID, MessageTypeGameStarted, GameStartedPayload{
		Mode:          room.Mode,
		Status:        room.Status,
		ImpostorCount: room.ImpostorCount,
		Category:      room.Category,
		TurnOrder:     slices.Clone(room.TurnOrder),
	})
	e.SyncRoom(room)
}

func (e *EventEmitter) WordSubmitted(result *service.SubmitWordResult, playerID uuid.UUID) {
	room := result.Room
	e.broadcast(room.ID, MessageTypeWordSubmitted, WordSubmittedPayload{
		PlayerID:         playerID,
		SubmittedCount:   len(room.SubmittedWords),
		MinWordsRequired: room.MinWordsRequired(),
		CanForceStart:    result.CanForceStart,
	})
	e.SyncRoom(room)
}

func (e *EventEmitter) RoundAdvanced(room *domain.Room) {
	e.broadcast(room.ID, MessageTypeRoundAdvanced, RoundAdvancedPayload{Round: room.Round})
	e.SyncRoom(room)
}

func (e *EventEmitter) VotingStarted(room *domain.Room) {
	e.broadcast(room.ID, MessageTypeVotingStarted, VotingStartedPayload{Round: room.Round})
	e.SyncRoom(room)
}

func (e *EventEmitter) VoteCast(result *service.CastVoteResult, voterID uuid.UUID) {
	e.broadcast(result.Room.ID, MessageTypeVoteTallyUpdated, VoteTallyUpdatedPayload{
		VoterID: voterID,
		Tally:   result.Tally,
	})
	e.SyncRoom(result.Room)
}

func (e *EventEmitter) VoteConfirmed(result *service.ConfirmVoteResult) {
	room := result.Room
	e.broadcast(room.ID, MessageTypeVoteResult, VoteResultPayload{Outcome: result.Outcome})
	if room.Status == domain.RoomStatusFinished {
		e.gameEnded(room)
	}
	e.SyncRoom(room)
}

func (e *EventEmitter) ReturnedToLobby(room *domain.Room) {
	e.broadcast(room.ID, MessageTypeReturnedToLobby, struct{}{})
	e.SyncRoom(room)
}

func (e *EventEmitter) gameEnded(room *domain.Room) {
	e.broadcast(room.ID, MessageTypeGameEnded, GameEndedPayload{
		WinCondition: room.WinCondition,
		Word:         room.Word,
		ImpostorIDs:  slices.Clone(room.ImpostorIDs),
	})
}

// --- Error events ---

func (e *EventEmitter) SendError(client *Client, code, message string) {
	client.sendError(code, message)
}
