package handlers

import (
	"net/http"
	"strings"

	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/service"
	"github.com/dom/impostor-game/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// RoomHandler exposes the game use cases over REST. Every successful
// mutation is also pushed to the room's websocket clients.
type RoomHandler struct {
	game   *service.GameService
	events *websocket.EventEmitter
	cfg    *config.Config
}

func NewRoomHandler(game *service.GameService, events *websocket.EventEmitter, cfg *config.Config) *RoomHandler {
	return &RoomHandler{
		game:   game,
		events: events,
		cfg:    cfg,
	}
}

type CreateRoomRequest struct {
	Language string `json:"language"`
}

type TargetRequest struct {
	TargetID uuid.UUID `json:"targetId"`
}

type LanguageRequest struct {
	Language string `json:"language"`
}

type RenameRequest struct {
	DisplayName string `json:"displayName"`
}

type StartGameRequest struct {
	Mode          domain.GameMode `json:"mode"`
	ImpostorCount int             `json:"impostorCount"`
	Category      string          `json:"category"`
}

type SubmitWordRequest struct {
	Word string `json:"word"`
}

type ConfirmVoteRequest struct {
	Eliminate bool `json:"eliminate"`
}

type RoomResponse struct {
	Room         domain.RoomView `json:"room"`
	WebsocketURL string          `json:"websocketUrl,omitempty"`
}

type JoinRoomResponse struct {
	Room        domain.RoomView `json:"room"`
	Reconnected bool            `json:"reconnected"`
}

type LeaveRoomResponse struct {
	Deleted    bool       `json:"deleted"`
	NewAdminID *uuid.UUID `json:"newAdminId,omitempty"`
}

type SubmitWordResponse struct {
	Room          domain.RoomView `json:"room"`
	CanForceStart bool            `json:"canForceStart"`
}

type VoteResponse struct {
	Room     domain.RoomView  `json:"room"`
	Tally    domain.VoteTally `json:"tally"`
	AllVoted bool             `json:"allVoted"`
}

type ConfirmVoteResponse struct {
	Room    domain.RoomView    `json:"room"`
	Outcome domain.VoteOutcome `json:"outcome"`
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.game.CreateRoom(r.Context(), service.CreateRoomInput{
		PlayerID:    identity.UserID,
		DisplayName: identity.DisplayName,
		Language:    req.Language,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.RoomCreated(room)

	writeJSON(w, http.StatusCreated, RoomResponse{
		Room:         domain.NewRoomView(room, identity.UserID),
		WebsocketURL: "/api/v1/ws",
	})
}

func (h *RoomHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.game.GetRoomView(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RoomResponse{Room: *view})
}

// QRCode renders the join link of a room as a PNG.
func (h *RoomHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	room, err := h.game.GetRoomByCode(r.Context(), strings.ToUpper(chi.URLParam(r, "code")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	png, err := qrcode.Encode(h.joinURL(room.Code), qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(png)
}

func (h *RoomHandler) joinURL(code string) string {
	return h.cfg.PublicURL + "/join/" + code
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	result, err := h.game.JoinRoom(r.Context(), service.JoinRoomInput{
		Code:        chi.URLParam(r, "code"),
		PlayerID:    identity.UserID,
		DisplayName: identity.DisplayName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.PlayerJoined(result, identity.UserID)

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		Room:        domain.NewRoomView(result.Room, identity.UserID),
		Reconnected: result.Reconnected,
	})
}

func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	result, err := h.game.LeaveRoom(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.PlayerLeft(result, identity.UserID)

	writeJSON(w, http.StatusOK, LeaveRoomResponse{Deleted: result.Deleted, NewAdminID: result.NewAdminID})
}

func (h *RoomHandler) Kick(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req TargetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.game.KickPlayer(r.Context(), service.KickPlayerInput{AdminID: identity.UserID, TargetID: req.TargetID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.PlayerKicked(result)

	h.writeRoom(w, result.Room, identity.UserID)
}

func (h *RoomHandler) ChangeLanguage(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req LanguageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.game.ChangeLanguage(r.Context(), identity.UserID, req.Language)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.LanguageChanged(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) Rename(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.game.RenamePlayer(r.Context(), identity.UserID, req.DisplayName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.PlayerRenamed(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req StartGameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.game.StartGame(r.Context(), service.StartGameInput{
		AdminID:       identity.UserID,
		Mode:          req.Mode,
		ImpostorCount: req.ImpostorCount,
		Category:      req.Category,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.GameStarted(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) SubmitWord(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req SubmitWordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.game.SubmitWord(r.Context(), identity.UserID, req.Word)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.WordSubmitted(result, identity.UserID)

	writeJSON(w, http.StatusOK, SubmitWordResponse{
		Room:          domain.NewRoomView(result.Room, identity.UserID),
		CanForceStart: result.CanForceStart,
	})
}

func (h *RoomHandler) ForceStart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	room, err := h.game.ForceStart(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.GameStarted(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) NextRound(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	room, err := h.game.NextRound(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.RoundAdvanced(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	room, err := h.game.StartVoting(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.VotingStarted(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) Vote(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req TargetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.game.CastVote(r.Context(), service.CastVoteInput{VoterID: identity.UserID, TargetID: req.TargetID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.VoteCast(result, identity.UserID)

	writeJSON(w, http.StatusOK, VoteResponse{
		Room:     domain.NewRoomView(result.Room, identity.UserID),
		Tally:    result.Tally,
		AllVoted: result.AllVoted,
	})
}

func (h *RoomHandler) ConfirmVote(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req ConfirmVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.game.ConfirmVote(r.Context(), service.ConfirmVoteInput{AdminID: identity.UserID, Eliminate: req.Eliminate})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.VoteConfirmed(result)

	writeJSON(w, http.StatusOK, ConfirmVoteResponse{
		Room:    domain.NewRoomView(result.Room, identity.UserID),
		Outcome: result.Outcome,
	})
}

func (h *RoomHandler) PlayAgain(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	room, err := h.game.PlayAgain(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.events.ReturnedToLobby(room)

	h.writeRoom(w, room, identity.UserID)
}

func (h *RoomHandler) writeRoom(w http.ResponseWriter, room *domain.Room, viewerID uuid.UUID) {
	writeJSON(w, http.StatusOK, RoomResponse{Room: domain.NewRoomView(room, viewerID)})
}
