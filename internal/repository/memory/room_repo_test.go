package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/dom/impostor-game/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom(t *testing.T, code string) *domain.Room {
	t.Helper()
	room, err := domain.NewRoom(uuid.New(), code, uuid.New(), "Admin", "en")
	require.NoError(t, err)
	return room
}

func TestRoomRepository_SaveAndFind(t *testing.T) {
	repo := memory.NewRoomRepository()
	ctx := context.Background()

	room := newRoom(t, "WXYZ")
	require.NoError(t, repo.Save(ctx, room))
	assert.Equal(t, int64(1), room.Version)

	byID, err := repo.FindByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Code, byID.Code)

	byCode, err := repo.FindByCode(ctx, "wxyz")
	require.NoError(t, err)
	assert.Equal(t, room.ID, byCode.ID)

	byPlayer, err := repo.FindByPlayerID(ctx, room.AdminID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, byPlayer.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Returned rooms are copies.
	byID.Players[0].DisplayName = "Mallory"
	again, err := repo.FindByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", again.Players[0].DisplayName)
}

func TestRoomRepository_CompareAndSwap(t *testing.T) {
	repo := memory.NewRoomRepository()
	ctx := context.Background()

	room := newRoom(t, "ABCD")
	require.NoError(t, repo.Save(ctx, room))

	first, err := repo.FindByID(ctx, room.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, room.ID)
	require.NoError(t, err)

	first, err = first.AddPlayer(uuid.New(), "Bob")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err = second.AddPlayer(uuid.New(), "Carol")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, second), repository.ErrConflict)

	stored, err := repo.FindByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Players, 2)
	assert.Equal(t, int64(2), stored.Version)
}

func TestRoomRepository_UniqueConstraints(t *testing.T) {
	repo := memory.NewRoomRepository()
	ctx := context.Background()

	room := newRoom(t, "ABCD")
	require.NoError(t, repo.Save(ctx, room))

	t.Run("DuplicateCode", func(t *testing.T) {
		assert.ErrorIs(t, repo.Save(ctx, newRoom(t, "ABCD")), repository.ErrConflict)
		taken, err := repo.IsCodeTaken(ctx, "abcd")
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("PlayerInTwoRooms", func(t *testing.T) {
		other, err := domain.NewRoom(uuid.New(), "EFGH", room.AdminID, "Admin", "en")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, other), repository.ErrConflict)
	})

	t.Run("StaleDeleteIsRejected", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, room.ID, room.Version-1), repository.ErrConflict)
		_, err := repo.FindByID(ctx, room.ID)
		assert.NoError(t, err)
	})

	t.Run("DeletedRoomFreesIndexes", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, room.ID, room.Version))
		require.NoError(t, repo.Delete(ctx, room.ID, room.Version), "deleting twice is harmless")
		taken, err := repo.IsCodeTaken(ctx, "ABCD")
		require.NoError(t, err)
		assert.False(t, taken)
		_, err = repo.FindByPlayerID(ctx, room.AdminID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRoomRepository_RemovedPlayerIsUnindexed(t *testing.T) {
	repo := memory.NewRoomRepository()
	ctx := context.Background()

	room := newRoom(t, "ABCD")
	bob := uuid.New()
	room, err := room.AddPlayer(bob, "Bob")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, room))

	room, err = room.RemovePlayer(bob)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, room))

	_, err = repo.FindByPlayerID(ctx, bob)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoomRepository_FindInactive(t *testing.T) {
	repo := memory.NewRoomRepository()
	ctx := context.Background()

	idle := newRoom(t, "IDLE")
	idle, err := idle.DisconnectPlayer(idle.AdminID)
	require.NoError(t, err)
	idle.LastActivityAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, idle))

	connected := newRoom(t, "CONN")
	connected.LastActivityAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, connected))

	fresh := newRoom(t, "NEWR")
	fresh, err = fresh.DisconnectPlayer(fresh.AdminID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, fresh))

	rooms, err := repo.FindInactive(ctx, time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, idle.ID, rooms[0].ID)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
