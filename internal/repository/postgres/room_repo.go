package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// roomModel is the persisted form of a domain.Room. Collections live in
// jsonb columns; membership is mirrored into room_members so that a unique
// index enforces one room per player.
type roomModel struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key"`
	Code             string         `gorm:"size:8;uniqueIndex;not null"`
	AdminID          uuid.UUID      `gorm:"type:uuid;not null"`
	Status           string         `gorm:"size:32;not null;index"`
	Language         string         `gorm:"size:16;not null"`
	Mode             string         `gorm:"size:16;not null"`
	Word             string         `gorm:"size:64"`
	Category         string         `gorm:"size:64"`
	ImpostorCount    int            `gorm:"not null;default:0"`
	Round            int            `gorm:"not null;default:0"`
	WinCondition     string         `gorm:"size:32"`
	Players          datatypes.JSON `gorm:"type:jsonb;not null"`
	ImpostorIDs      datatypes.JSON `gorm:"type:jsonb"`
	TurnOrder        datatypes.JSON `gorm:"type:jsonb"`
	SubmittedWords   datatypes.JSON `gorm:"type:jsonb"`
	LastEliminatedID *uuid.UUID     `gorm:"type:uuid"`
	ConnectedCount   int            `gorm:"not null;default:0"`
	Version          int64          `gorm:"not null"`
	CreatedAt        time.Time
	LastActivityAt   time.Time `gorm:"not null;index"`
}

func (roomModel) TableName() string {
	return "rooms"
}

type roomMemberModel struct {
	PlayerID uuid.UUID `gorm:"type:uuid;primary_key"`
	RoomID   uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (roomMemberModel) TableName() string {
	return "room_members"
}

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *roomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	var model roomModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "find room by id")
	}
	return model.toDomain()
}

func (r *roomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var model roomModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", strings.ToUpper(code)).Error; err != nil {
		return nil, translateError(err, "find room by code")
	}
	return model.toDomain()
}

func (r *roomRepository) FindByPlayerID(ctx context.Context, playerID uuid.UUID) (*domain.Room, error) {
	var model roomModel
	err := r.db.WithContext(ctx).
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.player_id = ?", playerID).
		First(&model).Error
	if err != nil {
		return nil, translateError(err, "find room by player")
	}
	return model.toDomain()
}

// Save inserts when Version is 0 and otherwise updates only if the stored
// version still matches. Membership rows are rewritten in the same
// transaction.
func (r *roomRepository) Save(ctx context.Context, room *domain.Room) error {
	model, err := newRoomModel(room)
	if err != nil {
		return err
	}
	model.Version = room.Version + 1

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if room.Version == 0 {
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(&roomModel{}).
				Where("id = ? AND version = ?", room.ID, room.Version).
				Select("*").
				Updates(model)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repository.ErrConflict
			}
			if err := tx.Where("room_id = ?", room.ID).Delete(&roomMemberModel{}).Error; err != nil {
				return err
			}
		}

		if len(room.Players) == 0 {
			return nil
		}
		members := make([]roomMemberModel, len(room.Players))
		for i, p := range room.Players {
			members[i] = roomMemberModel{PlayerID: p.ID, RoomID: room.ID}
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return translateError(err, "save room")
	}

	room.Version = model.Version
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&roomModel{}, "id = ? AND version = ?", id, version)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&roomModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return repository.ErrConflict
			}
			return nil
		}
		return tx.Where("room_id = ?", id).Delete(&roomMemberModel{}).Error
	})
	return translateError(err, "delete room")
}

func (r *roomRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&roomModel{}).Count(&count).Error; err != nil {
		return 0, translateError(err, "count rooms")
	}
	return count, nil
}

func (r *roomRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&roomModel{}).Where("code = ?", strings.ToUpper(code)).Count(&count).Error
	if err != nil {
		return false, translateError(err, "check room code")
	}
	return count > 0, nil
}

func (r *roomRepository) FindInactive(ctx context.Context, since time.Time) ([]*domain.Room, error) {
	var models []roomModel
	err := r.db.WithContext(ctx).
		Where("last_activity_at < ? AND connected_count = 0", since).
		Order("last_activity_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, translateError(err, "find inactive rooms")
	}

	rooms := make([]*domain.Room, 0, len(models))
	for i := range models {
		room, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func newRoomModel(room *domain.Room) (*roomModel, error) {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return nil, errors.Wrap(err, "marshal players")
	}
	impostors, err := json.Marshal(room.ImpostorIDs)
	if err != nil {
		return nil, errors.Wrap(err, "marshal impostors")
	}
	turnOrder, err := json.Marshal(room.TurnOrder)
	if err != nil {
		return nil, errors.Wrap(err, "marshal turn order")
	}
	submitted, err := json.Marshal(room.SubmittedWords)
	if err != nil {
		return nil, errors.Wrap(err, "marshal submitted words")
	}

	return &roomModel{
		ID:               room.ID,
		Code:             room.Code,
		AdminID:          room.AdminID,
		Status:           string(room.Status),
		Language:         room.Language,
		Mode:             string(room.Mode),
		Word:             room.Word,
		Category:         room.Category,
		ImpostorCount:    room.ImpostorCount,
		Round:            room.Round,
		WinCondition:     string(room.WinCondition),
		Players:          datatypes.JSON(players),
		ImpostorIDs:      datatypes.JSON(impostors),
		TurnOrder:        datatypes.JSON(turnOrder),
		SubmittedWords:   datatypes.JSON(submitted),
		LastEliminatedID: room.LastEliminatedID,
		ConnectedCount:   room.ConnectedCount(),
		CreatedAt:        room.CreatedAt,
		LastActivityAt:   room.LastActivityAt,
	}, nil
}

func (m *roomModel) toDomain() (*domain.Room, error) {
	room := &domain.Room{
		ID:               m.ID,
		Code:             m.Code,
		AdminID:          m.AdminID,
		Status:           domain.RoomStatus(m.Status),
		Language:         m.Language,
		Mode:             domain.GameMode(m.Mode),
		Word:             m.Word,
		Category:         m.Category,
		ImpostorCount:    m.ImpostorCount,
		Round:            m.Round,
		WinCondition:     domain.WinCondition(m.WinCondition),
		LastEliminatedID: m.LastEliminatedID,
		CreatedAt:        m.CreatedAt,
		LastActivityAt:   m.LastActivityAt,
		Version:          m.Version,
	}

	fields := []struct {
		raw  datatypes.JSON
		dest any
	}{
		{m.Players, &room.Players},
		{m.ImpostorIDs, &room.ImpostorIDs},
		{m.TurnOrder, &room.TurnOrder},
		{m.SubmittedWords, &room.SubmittedWords},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return nil, errors.Wrapf(err, "decode room %s", m.ID)
		}
	}
	if room.SubmittedWords == nil {
		room.SubmittedWords = make(map[uuid.UUID]string)
	}
	return room, nil
}
