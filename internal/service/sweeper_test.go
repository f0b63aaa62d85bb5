package service

import (
	"context"
	"testing"
	"time"

	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/dom/impostor-game/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveRoom(t *testing.T, rooms repository.RoomRepository, code string, connected bool) *domain.Room {
	t.Helper()
	admin := uuid.New()
	room, err := domain.NewRoom(uuid.New(), code, admin, "Admin", "en")
	require.NoError(t, err)
	if !connected {
		room, err = room.DisconnectPlayer(admin)
		require.NoError(t, err)
	}
	require.NoError(t, rooms.Save(context.Background(), room))
	return room
}

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	rooms := memory.NewRoomRepository()
	cfg := &config.Config{RoomInactivity: 30 * time.Minute, SweepInterval: time.Minute, StoreTimeout: time.Second}

	idle := saveRoom(t, rooms, "IDLE", false)
	busy := saveRoom(t, rooms, "BUSY", true)

	sweeper := NewSweeper(rooms, cfg)
	var notified []uuid.UUID
	sweeper.OnDelete(func(room *domain.Room) {
		notified = append(notified, room.ID)
	})

	t.Run("RecentRoomsSurvive", func(t *testing.T) {
		deleted, err := sweeper.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Empty(t, deleted)
	})

	t.Run("IdleDisconnectedRoomsAreDeleted", func(t *testing.T) {
		sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }

		deleted, err := sweeper.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{idle.ID}, deleted)
		assert.Equal(t, deleted, notified)

		_, err = rooms.FindByID(ctx, idle.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = rooms.FindByID(ctx, busy.ID)
		assert.NoError(t, err, "a room with a connected player is never swept")
	})
}

// reconnectingRooms lets a player come back right after the sweeper's query.
type reconnectingRooms struct {
	repository.RoomRepository
	afterFind func(ctx context.Context)
}

func (r *reconnectingRooms) FindInactive(ctx context.Context, since time.Time) ([]*domain.Room, error) {
	rooms, err := r.RoomRepository.FindInactive(ctx, since)
	if err == nil && r.afterFind != nil {
		r.afterFind(ctx)
	}
	return rooms, err
}

func TestSweeper_KeepsRoomReconnectedDuringSweep(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{RoomInactivity: 30 * time.Minute, StoreTimeout: time.Second, SaveRetries: 5}
	rooms := &reconnectingRooms{RoomRepository: memory.NewRoomRepository()}
	game := NewGameService(rooms, nil, cfg)

	idle := saveRoom(t, rooms, "BACK", false)
	rooms.afterFind = func(ctx context.Context) {
		_, err := game.SetConnected(ctx, idle.AdminID, true)
		require.NoError(t, err)
	}

	sweeper := NewSweeper(rooms, cfg)
	sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }
	var notified []uuid.UUID
	sweeper.OnDelete(func(room *domain.Room) {
		notified = append(notified, room.ID)
	})

	deleted, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Empty(t, notified)

	room, err := rooms.FindByID(ctx, idle.ID)
	require.NoError(t, err, "the reconnected room must survive the sweep")
	assert.Equal(t, 1, room.ConnectedCount())
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	cfg := &config.Config{RoomInactivity: time.Minute, SweepInterval: 5 * time.Millisecond, StoreTimeout: time.Second}
	sweeper := NewSweeper(memory.NewRoomRepository(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
