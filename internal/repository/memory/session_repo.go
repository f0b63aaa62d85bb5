package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/google/uuid"
)

type sessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]domain.UserSession
}

func NewSessionRepository() *sessionRepository {
	return &sessionRepository{sessions: make(map[uuid.UUID]domain.UserSession)}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	r.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}
