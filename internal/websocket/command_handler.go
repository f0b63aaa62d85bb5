package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// commandTimeout bounds one command including its save retries.
const commandTimeout = 10 * time.Second

// CommandHandler runs client commands through the GameService and hands
// the results to the EventEmitter. It is stateless and shared by all clients.
type CommandHandler struct {
	game   *service.GameService
	events *EventEmitter
}

func NewCommandHandler(game *service.GameService, events *EventEmitter) *CommandHandler {
	return &CommandHandler{game: game, events: events}
}

// Connect marks the player connected and subscribes the socket to the
// player's room, if any.
func (ch *CommandHandler) Connect(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	room, err := ch.game.SetConnected(ctx, client.playerID, true)
	if errors.Is(err, domain.ErrRoomNotFound) {
		ch.events.SyncClient(client, nil)
		return
	}
	if err != nil {
		ch.fail(client, "connect", err)
		return
	}

	ch.events.hub.attach(client, room.ID)
	ch.events.ConnectionChanged(room)
}

// Disconnect unsubscribes the socket and, when it was the player's last one
// in the room, marks the player disconnected.
func (ch *CommandHandler) Disconnect(client *Client) {
	roomID := client.RoomID()
	ch.events.hub.detach(client)
	if state := ch.events.hub.Room(roomID); state != nil && state.HasPlayer(client.playerID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	room, err := ch.game.SetConnected(ctx, client.playerID, false)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("player_id", client.playerID.String()).Msg("failed to mark player disconnected")
		return
	}
	ch.events.ConnectionChanged(room)
}

// Handle processes one command message.
func (ch *CommandHandler) Handle(client *Client, cmd *Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	player := client.playerID

	switch cmd.Action {
	case CmdSyncState:
		view, err := ch.game.GetRoomView(ctx, player)
		if errors.Is(err, domain.ErrRoomNotFound) {
			ch.events.SyncClient(client, nil)
			return
		}
		if err != nil {
			ch.fail(client, string(cmd.Action), err)
			return
		}
		ch.events.syncView(client, view)

	case CmdCreateRoom:
		var p CmdCreateRoomPayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		room, err := ch.game.CreateRoom(ctx, service.CreateRoomInput{
			PlayerID:    player,
			DisplayName: client.displayName,
			Language:    p.Language,
		})
		if ch.check(client, cmd, err) {
			ch.events.RoomCreated(room)
		}

	case CmdJoinRoom:
		var p CmdJoinRoomPayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		result, err := ch.game.JoinRoom(ctx, service.JoinRoomInput{
			Code:        p.Code,
			PlayerID:    player,
			DisplayName: client.displayName,
		})
		if ch.check(client, cmd, err) {
			ch.events.PlayerJoined(result, player)
		}

	case CmdLeaveRoom:
		result, err := ch.game.LeaveRoom(ctx, player)
		if ch.check(client, cmd, err) {
			ch.events.PlayerLeft(result, player)
		}

	case CmdKickPlayer:
		var p CmdTargetPayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		result, err := ch.game.KickPlayer(ctx, service.KickPlayerInput{AdminID: player, TargetID: p.TargetID})
		if ch.check(client, cmd, err) {
			ch.events.PlayerKicked(result)
		}

	case CmdChangeLanguage:
		var p CmdChangeLanguagePayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		room, err := ch.game.ChangeLanguage(ctx, player, p.Language)
		if ch.check(client, cmd, err) {
			ch.events.LanguageChanged(room)
		}

	case CmdRename:
		var p CmdRenamePayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		room, err := ch.game.RenamePlayer(ctx, player, p.DisplayName)
		if ch.check(client, cmd, err) {
			ch.events.PlayerRenamed(room)
		}

	case CmdStartGame:
		var p CmdStartGamePayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		room, err := ch.game.StartGame(ctx, service.StartGameInput{
			AdminID:       player,
			Mode:          p.Mode,
			ImpostorCount: p.ImpostorCount,
			Category:      p.Category,
		})
		if ch.check(client, cmd, err) {
			ch.events.GameStarted(room)
		}

	case CmdSubmitWord:
		var p CmdSubmitWordPayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		result, err := ch.game.SubmitWord(ctx, player, p.Word)
		if ch.check(client, cmd, err) {
			ch.events.WordSubmitted(result, player)
		}

	case CmdForceStart:
		room, err := ch.game.ForceStart(ctx, player)
		if ch.check(client, cmd, err) {
			ch.events.GameStarted(room)
		}

	case CmdNextRound:
		room, err := ch.game.NextRound(ctx, player)
		if ch.check(client, cmd, err) {
			ch.events.RoundAdvanced(room)
		}

	case CmdStartVoting:
		room, err := ch.game.StartVoting(ctx, player)
		if ch.check(client, cmd, err) {
			ch.events.VotingStarted(room)
		}

	case CmdCastVote:
		var p CmdTargetPayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		result, err := ch.game.CastVote(ctx, service.CastVoteInput{VoterID: player, TargetID: p.TargetID})
		if ch.check(client, cmd, err) {
			ch.events.VoteCast(result, player)
		}

	case CmdConfirmVote:
		var p CmdConfirmVotePayload
		if !ch.decode(client, cmd, &p) {
			return
		}
		result, err := ch.game.ConfirmVote(ctx, service.ConfirmVoteInput{AdminID: player, Eliminate: p.Eliminate})
		if ch.check(client, cmd, err) {
			ch.events.VoteConfirmed(result)
		}

	case CmdPlayAgain:
		room, err := ch.game.PlayAgain(ctx, player)
		if ch.check(client, cmd, err) {
			ch.events.ReturnedToLobby(room)
		}

	default:
		log.Debug().Str("action", string(cmd.Action)).Msg("unknown command action")
		client.sendError(ErrCodeUnknownCommand, "Unknown command action")
	}
}

// decode unmarshals the command payload into v. A missing payload leaves v
// zero-valued.
func (ch *CommandHandler) decode(client *Client, cmd *Command, v interface{}) bool {
	if len(cmd.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		client.sendError(ErrCodeInvalidPayload, "Invalid "+string(cmd.Action)+" payload")
		return false
	}
	return true
}

// check reports whether the command succeeded, sending the error otherwise.
func (ch *CommandHandler) check(client *Client, cmd *Command, err error) bool {
	if err == nil {
		return true
	}
	ch.fail(client, string(cmd.Action), err)
	return false
}

// fail sends domain errors back verbatim. Anything else is logged with its
// stack and reported as transient.
func (ch *CommandHandler) fail(client *Client, action string, err error) {
	if code, ok := domain.CodeOf(err); ok {
		client.sendError(string(code), err.Error())
		return
	}
	log.Error().Stack().Err(err).
		Str("action", action).
		Str("player_id", client.playerID.String()).
		Msg("command failed")
	client.sendError(ErrCodeTransient, "Temporary failure, please retry")
}
