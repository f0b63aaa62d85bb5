package postgres

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	return translateError(r.db.WithContext(ctx).Create(session).Error, "create session")
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error) {
	var session domain.UserSession
	if err := r.db.WithContext(ctx).Take(&session, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "get session")
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Delete(&domain.UserSession{}, "id = ?", id).Error, "delete session")
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Delete(&domain.UserSession{}, "user_id = ?", userID).Error, "delete sessions")
}
