package domain_test

import (
	"testing"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomView_Sanitization(t *testing.T) {
	lobby, ids := newLobby(t, 4)
	impostor, crew := ids[3], ids[0]

	playing, err := lobby.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	playing = withImpostors(playing, impostor)

	voting, err := playing.StartVoting()
	require.NoError(t, err)

	finished, err := voting.FinishGame(domain.WinConditionImpostorSurvived)
	require.NoError(t, err)

	tests := []struct {
		name           string
		room           *domain.Room
		viewer         uuid.UUID
		wantWord       string
		wantImpostor   bool
		wantImpostorID []uuid.UUID
	}{
		{name: "Lobby", room: lobby, viewer: crew},
		{name: "PlayingCrew", room: playing, viewer: crew, wantWord: "volcano"},
		{name: "PlayingImpostor", room: playing, viewer: impostor, wantImpostor: true, wantImpostorID: []uuid.UUID{impostor}},
		{name: "VotingCrew", room: voting, viewer: crew, wantWord: "volcano"},
		{name: "VotingImpostor", room: voting, viewer: impostor, wantImpostor: true, wantImpostorID: []uuid.UUID{impostor}},
		{name: "FinishedCrew", room: finished, viewer: crew, wantWord: "volcano", wantImpostorID: []uuid.UUID{impostor}},
		{name: "FinishedImpostor", room: finished, viewer: impostor, wantWord: "volcano", wantImpostor: true, wantImpostorID: []uuid.UUID{impostor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := domain.NewRoomView(tt.room, tt.viewer)

			assert.Equal(t, tt.wantWord, view.Word)
			assert.Equal(t, tt.wantImpostor, view.IsImpostor)
			assert.Equal(t, tt.wantImpostorID, view.ImpostorIDs)
			if tt.room.Status != domain.RoomStatusLobby {
				assert.Equal(t, "nature", view.Category, "category hint is shared by both roles")
			}

			for _, p := range view.Players {
				if p.IsImpostor {
					assert.Equal(t, impostor, p.ID)
					assert.True(t, tt.room.Status == domain.RoomStatusFinished || p.ID == tt.viewer,
						"impostor flag leaked to %s", tt.name)
				}
			}
		})
	}
}

func TestNewRoomView_CollectingHidesWords(t *testing.T) {
	room, ids := newLobby(t, 3)
	room, err := room.StartCollecting(1)
	require.NoError(t, err)
	room, err = room.SubmitWord(ids[0], "anchor")
	require.NoError(t, err)

	for _, viewer := range ids {
		view := domain.NewRoomView(room, viewer)
		assert.Empty(t, view.Word)
		assert.False(t, view.IsImpostor, "roles are secret until the word is chosen")
		assert.Empty(t, view.ImpostorIDs)
		assert.Equal(t, 1, view.SubmittedCount)
		assert.Equal(t, 2, view.MinWordsRequired)
		assert.Equal(t, viewer == ids[0], view.HasSubmitted)
	}
}

func TestNewRoomView_VotingIncludesTally(t *testing.T) {
	room, ids := newLobby(t, 3)
	room, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	room, err = room.StartVoting()
	require.NoError(t, err)
	room, err = room.CastVote(ids[0], ids[1])
	require.NoError(t, err)

	view := domain.NewRoomView(room, ids[2])
	require.NotNil(t, view.Tally)
	assert.Equal(t, 1, view.Tally.VotesCast)
	assert.Equal(t, ids[1], *view.Players[0].VotedFor)
	assert.True(t, view.Players[0].IsAdmin)
}
