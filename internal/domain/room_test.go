package domain_test

import (
	"fmt"
	"testing"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLobby returns a lobby with n players; the first one is the admin.
func newLobby(t *testing.T, n int) (*domain.Room, []uuid.UUID) {
	t.Helper()

	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}

	room, err := domain.NewRoom(uuid.New(), "ABCD", ids[0], "Player 1", "")
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		room, err = room.AddPlayer(ids[i], fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
	}
	return room, ids
}

// withImpostors pins the impostor set so scenarios are deterministic.
func withImpostors(room *domain.Room, ids ...uuid.UUID) *domain.Room {
	next := room.Clone()
	next.ImpostorIDs = ids
	return next
}

func TestNewRoom(t *testing.T) {
	admin := uuid.New()
	room, err := domain.NewRoom(uuid.New(), "abcd", admin, "  Alice  ", "")
	require.NoError(t, err)

	assert.Equal(t, "ABCD", room.Code)
	assert.Equal(t, domain.RoomStatusLobby, room.Status)
	assert.Equal(t, domain.DefaultLanguage, room.Language)
	assert.Equal(t, admin, room.AdminID)
	require.Len(t, room.Players, 1)
	assert.Equal(t, "Alice", room.Players[0].DisplayName)
	assert.True(t, room.Players[0].Connected)

	_, err = domain.NewRoom(uuid.New(), "ABCD", admin, "   ", "en")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRoom_TransitionsDoNotMutateReceiver(t *testing.T) {
	room, ids := newLobby(t, 4)
	before := room.Clone()

	next, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	_, err = next.StartVoting()
	require.NoError(t, err)
	_, err = room.RemovePlayer(ids[1])
	require.NoError(t, err)

	if diff := cmp.Diff(before, room); diff != "" {
		t.Errorf("receiver mutated (-before +after):\n%s", diff)
	}
	assert.Equal(t, domain.RoomStatusPlaying, next.Status)
}

func TestRoom_AddPlayer(t *testing.T) {
	t.Run("Reconnect_IsNotDuplicate", func(t *testing.T) {
		room, ids := newLobby(t, 3)
		room, err := room.DisconnectPlayer(ids[1])
		require.NoError(t, err)

		room, err = room.AddPlayer(ids[1], "Renamed")
		require.NoError(t, err)

		assert.Len(t, room.Players, 3)
		p, ok := room.Player(ids[1])
		require.True(t, ok)
		assert.True(t, p.Connected)
		assert.Equal(t, "Renamed", p.DisplayName)
	})

	t.Run("NewPlayerAfterStart_Rejected", func(t *testing.T) {
		room, _ := newLobby(t, 3)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)

		_, err = room.AddPlayer(uuid.New(), "Late")
		assert.ErrorIs(t, err, domain.ErrGameAlreadyStarted)
	})

	t.Run("MemberReconnectsMidGame", func(t *testing.T) {
		room, ids := newLobby(t, 3)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)
		room, err = room.DisconnectPlayer(ids[2])
		require.NoError(t, err)

		room, err = room.AddPlayer(ids[2], "Player 3")
		require.NoError(t, err)
		p, _ := room.Player(ids[2])
		assert.True(t, p.Connected)
	})

	t.Run("NameTooLong", func(t *testing.T) {
		room, _ := newLobby(t, 1)
		_, err := room.AddPlayer(uuid.New(), "abcdefghijklmnopqrstuvwxyz")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestRoom_RemovePlayer(t *testing.T) {
	t.Run("AdminTransfersInJoinOrder", func(t *testing.T) {
		room, ids := newLobby(t, 4)

		room, err := room.RemovePlayer(ids[0])
		require.NoError(t, err)

		assert.Equal(t, ids[1], room.AdminID)
		assert.Len(t, room.Players, 3)
	})

	t.Run("UnknownPlayer", func(t *testing.T) {
		room, _ := newLobby(t, 3)
		_, err := room.RemovePlayer(uuid.New())
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("LastPlayerLeavesEmptyRoom", func(t *testing.T) {
		room, ids := newLobby(t, 1)
		room, err := room.RemovePlayer(ids[0])
		require.NoError(t, err)
		assert.True(t, room.IsEmpty())
	})

	t.Run("ClearsEveryCollection", func(t *testing.T) {
		room, ids := newLobby(t, 5)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)
		room = withImpostors(room, ids[4])
		room, err = room.StartVoting()
		require.NoError(t, err)
		room, err = room.CastVote(ids[0], ids[3])
		require.NoError(t, err)

		room, err = room.RemovePlayer(ids[3])
		require.NoError(t, err)

		assert.False(t, room.HasPlayer(ids[3]))
		assert.NotContains(t, room.TurnOrder, ids[3])
		voter, _ := room.Player(ids[0])
		assert.False(t, voter.HasVoted, "ballot against the leaver must be cleared")
		assert.Equal(t, domain.RoomStatusVoting, room.Status)
	})

	t.Run("TooFewPlayersMidGame_ResetsToLobby", func(t *testing.T) {
		room, ids := newLobby(t, 3)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)

		room, err = room.RemovePlayer(ids[2])
		require.NoError(t, err)

		assert.Equal(t, domain.RoomStatusLobby, room.Status)
		assert.Empty(t, room.Word)
		assert.Empty(t, room.ImpostorIDs)
		assert.Empty(t, room.TurnOrder)
	})

	t.Run("ImpostorLeaves_CrewWins", func(t *testing.T) {
		room, ids := newLobby(t, 4)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)
		room = withImpostors(room, ids[3])

		room, err = room.RemovePlayer(ids[3])
		require.NoError(t, err)

		assert.Equal(t, domain.RoomStatusFinished, room.Status)
		assert.Equal(t, domain.WinConditionImpostorCaught, room.WinCondition)
	})
}

func TestRoom_RenameAndLanguage(t *testing.T) {
	room, ids := newLobby(t, 3)

	room, err := room.RenamePlayer(ids[1], "Bob")
	require.NoError(t, err)
	p, _ := room.Player(ids[1])
	assert.Equal(t, "Bob", p.DisplayName)

	room, err = room.ChangeLanguage("ES")
	require.NoError(t, err)
	assert.Equal(t, "es", room.Language)

	started, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	_, err = started.ChangeLanguage("fr")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = started.RenamePlayer(ids[1], "Robert")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRoom_StartGame(t *testing.T) {
	t.Run("NotEnoughPlayers", func(t *testing.T) {
		room, _ := newLobby(t, 2)
		_, err := room.StartGame("volcano", "nature", 1)
		assert.ErrorIs(t, err, domain.ErrNotEnoughPlayers)
	})

	t.Run("AlreadyStarted", func(t *testing.T) {
		room, _ := newLobby(t, 3)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)
		_, err = room.StartGame("volcano", "nature", 1)
		assert.ErrorIs(t, err, domain.ErrGameAlreadyStarted)
	})

	t.Run("SixPlayers_ImpostorCounts", func(t *testing.T) {
		room, _ := newLobby(t, 6)

		started, err := room.StartGame("volcano", "nature", 2)
		require.NoError(t, err)
		assert.Len(t, started.ImpostorIDs, 2)

		_, err = room.StartGame("volcano", "nature", 4)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("ImpostorCountBounds", func(t *testing.T) {
		room, _ := newLobby(t, 14)
		_, err := room.StartGame("volcano", "nature", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		_, err = room.StartGame("volcano", "nature", 7)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		_, err = room.StartGame("volcano", "nature", 6)
		assert.NoError(t, err)
	})

	t.Run("ImpostorSetAndTurnOrder", func(t *testing.T) {
		for n := domain.MinPlayers; n <= 12; n++ {
			for k := domain.MinImpostors; k <= domain.MaxImpostors && k*domain.MinPlayersPerImpostor <= n; k++ {
				room, ids := newLobby(t, n)
				started, err := room.StartGame("volcano", "nature", k)
				require.NoError(t, err, "n=%d k=%d", n, k)

				assert.Len(t, started.ImpostorIDs, k)
				seen := map[uuid.UUID]bool{}
				for _, id := range started.ImpostorIDs {
					assert.Contains(t, ids, id)
					assert.False(t, seen[id], "impostor drawn twice")
					seen[id] = true
				}
				assert.ElementsMatch(t, ids, started.TurnOrder)
				assert.Equal(t, 1, started.Round)
				assert.Equal(t, domain.GameModeClassic, started.Mode)
			}
		}
	})
}

func TestRoom_ImpostorSelectionIsUniform(t *testing.T) {
	const (
		players = 5
		trials  = 10000
	)
	room, ids := newLobby(t, players)

	counts := map[uuid.UUID]int{}
	for range trials {
		started, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)
		counts[started.ImpostorIDs[0]]++
	}

	// Chi-squared with 4 degrees of freedom; 18.47 is the 0.1% critical value.
	expected := float64(trials) / players
	chi2 := 0.0
	for _, id := range ids {
		d := float64(counts[id]) - expected
		chi2 += d * d / expected
	}
	assert.Less(t, chi2, 18.47, "impostor frequencies %v", counts)
}

func TestRoom_Roulette(t *testing.T) {
	room, ids := newLobby(t, 5)

	room, err := room.StartCollecting(1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusCollectingWords, room.Status)
	assert.Equal(t, domain.GameModeRoulette, room.Mode)
	assert.Equal(t, 3, room.MinWordsRequired())
	assert.Empty(t, room.ImpostorIDs, "no impostor before the word is chosen")
	assert.ElementsMatch(t, ids, room.TurnOrder)

	words := []string{"  anchor ", "bicycle", "cactus"}
	for i, w := range words[:2] {
		room, err = room.SubmitWord(ids[i], w)
		require.NoError(t, err)
	}

	_, err = room.SubmitWord(ids[0], "again")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.False(t, room.CanForceStart())
	_, err = room.StartGameFromCollecting()
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	room, err = room.SubmitWord(ids[2], words[2])
	require.NoError(t, err)
	assert.Equal(t, "anchor", room.SubmittedWords[ids[0]])

	started, err := room.StartGameFromCollecting()
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusPlaying, started.Status)
	assert.Contains(t, []string{"anchor", "bicycle", "cactus"}, started.Word)
	assert.Equal(t, domain.RouletteCategory, started.Category)
	assert.Len(t, started.ImpostorIDs, 1)
}

func TestRoom_SubmitWordValidation(t *testing.T) {
	room, ids := newLobby(t, 3)
	_, err := room.SubmitWord(ids[0], "early")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	room, err = room.StartCollecting(1)
	require.NoError(t, err)

	_, err = room.SubmitWord(ids[0], "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = room.SubmitWord(ids[0], "this word is definitely longer than forty characters")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = room.SubmitWord(uuid.New(), "stranger")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestRoom_RoundsAndVoting(t *testing.T) {
	room, ids := newLobby(t, 4)
	room, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	order := room.TurnOrder

	room, err = room.NextRound()
	require.NoError(t, err)
	assert.Equal(t, 2, room.Round)
	assert.Equal(t, order, room.TurnOrder)

	_, err = room.CastVote(ids[0], ids[1])
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	room, err = room.StartVoting()
	require.NoError(t, err)
	_, err = room.NextRound()
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	t.Run("InvalidTargets", func(t *testing.T) {
		_, err := room.CastVote(ids[0], ids[0])
		assert.ErrorIs(t, err, domain.ErrInvalidVoteTarget)
		_, err = room.CastVote(ids[0], uuid.New())
		assert.ErrorIs(t, err, domain.ErrInvalidVoteTarget)
		_, err = room.CastVote(uuid.New(), ids[0])
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("SecondVote_RejectedAndTallyUnchanged", func(t *testing.T) {
		voted, err := room.CastVote(ids[0], ids[1])
		require.NoError(t, err)
		before := voted.CalculateVotes()

		_, err = voted.CastVote(ids[0], ids[2])
		assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
		assert.Equal(t, before, voted.CalculateVotes())
		assert.Equal(t, 1, before.Counts[ids[1]])
	})

	t.Run("ContinueResetsBallots", func(t *testing.T) {
		voted, err := room.CastVote(ids[0], ids[1])
		require.NoError(t, err)

		next, err := voted.ContinueAfterVoting()
		require.NoError(t, err)
		assert.Equal(t, domain.RoomStatusPlaying, next.Status)
		assert.Equal(t, 3, next.Round)
		for _, p := range next.Players {
			assert.False(t, p.HasVoted)
			assert.Nil(t, p.VotedFor)
		}
	})
}

func TestRoom_CalculateVotes(t *testing.T) {
	room, ids := newLobby(t, 6)
	room, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	room, err = room.StartVoting()
	require.NoError(t, err)

	tally := room.CalculateVotes()
	assert.Equal(t, 6, tally.ActivePlayers)
	assert.Equal(t, 4, tally.Threshold)
	assert.True(t, tally.IsTie, "no votes is a tie")
	assert.Nil(t, tally.LeaderID)

	for _, voter := range ids[1:4] {
		room, err = room.CastVote(voter, ids[0])
		require.NoError(t, err)
	}
	room, err = room.CastVote(ids[0], ids[5])
	require.NoError(t, err)

	tally = room.CalculateVotes()
	assert.Equal(t, 5, tally.VotesCast)
	require.NotNil(t, tally.LeaderID)
	assert.Equal(t, ids[0], *tally.LeaderID)
	assert.False(t, tally.ThresholdReached)
	assert.False(t, tally.AllVoted)

	room, err = room.CastVote(ids[4], ids[0])
	require.NoError(t, err)
	room, err = room.CastVote(ids[5], ids[1])
	require.NoError(t, err)
	tally = room.CalculateVotes()
	assert.True(t, tally.ThresholdReached)
	assert.True(t, tally.AllVoted)
}

func TestRoom_ResolveVoting(t *testing.T) {
	setup := func(t *testing.T) (*domain.Room, []uuid.UUID) {
		room, ids := newLobby(t, 5)
		room, err := room.StartGame("volcano", "nature", 1)
		require.NoError(t, err)
		room = withImpostors(room, ids[4])
		room, err = room.StartVoting()
		require.NoError(t, err)
		return room, ids
	}

	t.Run("UniqueLeaderEliminated", func(t *testing.T) {
		room, ids := setup(t)
		room, _ = room.CastVote(ids[0], ids[1])
		room, _ = room.CastVote(ids[2], ids[1])
		room, _ = room.CastVote(ids[3], ids[2])

		next, outcome, err := room.ResolveVoting(true)
		require.NoError(t, err)

		require.NotNil(t, outcome.EliminatedID)
		assert.Equal(t, ids[1], *outcome.EliminatedID)
		assert.False(t, outcome.WasImpostor)
		assert.Equal(t, domain.WinConditionNone, outcome.WinCondition)
		assert.Equal(t, domain.RoomStatusPlaying, next.Status)
		p, _ := next.Player(ids[1])
		assert.True(t, p.Eliminated)
		assert.Equal(t, ids[1], *next.LastEliminatedID)
	})

	t.Run("BelowThreshold_AdminStillEliminates", func(t *testing.T) {
		room, ids := setup(t)
		room, _ = room.CastVote(ids[0], ids[1])
		require.False(t, room.CalculateVotes().ThresholdReached)

		_, outcome, err := room.ResolveVoting(true)
		require.NoError(t, err)
		require.NotNil(t, outcome.EliminatedID)
		assert.Equal(t, ids[1], *outcome.EliminatedID)
	})

	t.Run("TieForMax_NoElimination", func(t *testing.T) {
		room, ids := setup(t)
		room, _ = room.CastVote(ids[0], ids[1])
		room, _ = room.CastVote(ids[1], ids[0])

		next, outcome, err := room.ResolveVoting(true)
		require.NoError(t, err)
		assert.True(t, outcome.IsTie)
		assert.Nil(t, outcome.EliminatedID)
		assert.Equal(t, domain.RoomStatusPlaying, next.Status)
		for _, p := range next.Players {
			assert.False(t, p.Eliminated)
		}
	})

	t.Run("ZeroVotes_NoElimination", func(t *testing.T) {
		room, _ := setup(t)
		next, outcome, err := room.ResolveVoting(true)
		require.NoError(t, err)
		assert.True(t, outcome.IsTie)
		assert.Nil(t, outcome.EliminatedID)
		assert.Equal(t, 2, next.Round)
	})

	t.Run("AdminDeclines", func(t *testing.T) {
		room, ids := setup(t)
		room, _ = room.CastVote(ids[0], ids[1])
		_, outcome, err := room.ResolveVoting(false)
		require.NoError(t, err)
		assert.Nil(t, outcome.EliminatedID)
	})

	t.Run("NotVoting", func(t *testing.T) {
		room, _ := newLobby(t, 3)
		_, _, err := room.ResolveVoting(true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestRoom_CheckWinCondition(t *testing.T) {
	tests := []struct {
		name       string
		players    int
		impostors  []int
		eliminated []int
		want       domain.WinCondition
	}{
		{name: "NoneEliminated", players: 5, impostors: []int{0}, want: domain.WinConditionNone},
		{name: "SoleImpostorOut", players: 5, impostors: []int{0}, eliminated: []int{0}, want: domain.WinConditionImpostorCaught},
		{name: "OneOfTwoImpostorsOut", players: 6, impostors: []int{0, 1}, eliminated: []int{0}, want: domain.WinConditionNone},
		{name: "BothImpostorsOut", players: 6, impostors: []int{0, 1}, eliminated: []int{0, 1}, want: domain.WinConditionImpostorCaught},
		{name: "OneCrewLeft", players: 4, impostors: []int{0}, eliminated: []int{1, 2}, want: domain.WinConditionImpostorSurvived},
		{name: "TwoCrewLeft", players: 5, impostors: []int{0}, eliminated: []int{1, 2}, want: domain.WinConditionNone},
		{name: "MultiImpostorSurvive", players: 6, impostors: []int{0, 1}, eliminated: []int{2, 3, 4}, want: domain.WinConditionImpostorSurvived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, ids := newLobby(t, tt.players)
			room, err := room.StartGame("volcano", "nature", len(tt.impostors))
			require.NoError(t, err)

			impostors := make([]uuid.UUID, len(tt.impostors))
			for i, idx := range tt.impostors {
				impostors[i] = ids[idx]
			}
			room = withImpostors(room, impostors...)

			for _, idx := range tt.eliminated {
				room, err = room.EliminatePlayer(ids[idx])
				require.NoError(t, err)
			}
			assert.Equal(t, domain.RoomStatusPlaying, room.Status, "elimination alone never ends the game")
			assert.Equal(t, tt.want, room.CheckWinCondition())
		})
	}
}

func TestRoom_ResetToLobbyMatchesFreshRoom(t *testing.T) {
	room, ids := newLobby(t, 4)
	room, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	room = withImpostors(room, ids[3])
	room, err = room.StartVoting()
	require.NoError(t, err)
	for _, voter := range ids[:3] {
		room, err = room.CastVote(voter, ids[3])
		require.NoError(t, err)
	}
	room, _, err = room.ResolveVoting(true)
	require.NoError(t, err)
	require.Equal(t, domain.RoomStatusFinished, room.Status)

	_, err = room.NextRound()
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	reset, err := room.ResetToLobby()
	require.NoError(t, err)

	fresh, _ := newLobby(t, 4)
	ignore := cmpopts.IgnoreFields(domain.Room{}, "ID", "Code", "AdminID", "Players", "CreatedAt", "LastActivityAt", "Version")
	if diff := cmp.Diff(fresh, reset, ignore, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("reset room differs from fresh room (-fresh +reset):\n%s", diff)
	}
	assert.Equal(t, ids[0], reset.AdminID)
	for _, p := range reset.Players {
		assert.False(t, p.Eliminated)
		assert.False(t, p.HasVoted)
	}

	again, err := reset.StartGame("glacier", "nature", 1)
	require.NoError(t, err)
	assert.Len(t, again.ImpostorIDs, 1)
	assert.Equal(t, 1, again.Round)
	assert.Nil(t, again.LastEliminatedID)
	assert.Equal(t, domain.WinConditionNone, again.WinCondition)
}

func TestScenario_ClassicImpostorCaught(t *testing.T) {
	room, ids := newLobby(t, 3)
	a, b, c := ids[0], ids[1], ids[2]

	room, err := room.StartGame("volcano", "nature", 1)
	require.NoError(t, err)
	room = withImpostors(room, a)

	room, err = room.StartVoting()
	require.NoError(t, err)
	room, err = room.CastVote(b, a)
	require.NoError(t, err)
	room, err = room.CastVote(c, a)
	require.NoError(t, err)

	room, outcome, err := room.ResolveVoting(true)
	require.NoError(t, err)

	assert.Equal(t, a, *outcome.EliminatedID)
	assert.True(t, outcome.WasImpostor)
	assert.Equal(t, domain.WinConditionImpostorCaught, outcome.WinCondition)
	assert.Equal(t, domain.RoomStatusFinished, room.Status)

	for _, viewer := range ids {
		view := domain.NewRoomView(room, viewer)
		assert.Equal(t, "volcano", view.Word)
		assert.Equal(t, []uuid.UUID{a}, view.ImpostorIDs)
	}
}
