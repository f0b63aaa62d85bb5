package service_test

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockWordRepository struct {
	mock.Mock
}

func (m *mockWordRepository) GetRandomWord(ctx context.Context, category, language string) (*domain.Word, error) {
	args := m.Called(ctx, category, language)
	word, _ := args.Get(0).(*domain.Word)
	return word, args.Error(1)
}

func (m *mockWordRepository) Categories(ctx context.Context, language string) ([]domain.Category, error) {
	args := m.Called(ctx, language)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}
