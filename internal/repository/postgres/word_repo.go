package postgres

import (
	"context"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type wordRepository struct {
	db *gorm.DB
}

func NewWordRepository(db *gorm.DB) *wordRepository {
	return &wordRepository{db: db}
}

func (r *wordRepository) GetRandomWord(ctx context.Context, category, language string) (*domain.Word, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}

	q := r.db.WithContext(ctx).Where("approved = ? AND language = ?", true, language)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var word domain.Word
	if err := q.Order("RANDOM()").First(&word).Error; err != nil {
		return nil, translateError(err, "get random word")
	}
	return &word, nil
}

func (r *wordRepository) Categories(ctx context.Context, language string) ([]domain.Category, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}

	var categories []domain.Category
	err := r.db.WithContext(ctx).
		Model(&domain.Word{}).
		Select("category AS name, COUNT(*) AS count").
		Where("approved = ? AND language = ?", true, language).
		Group("category").
		Order("category ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, translateError(err, "list categories")
	}
	return categories, nil
}

// UpsertMany inserts words, refreshing category and approval of existing ones.
func (r *wordRepository) UpsertMany(ctx context.Context, words []*domain.Word) error {
	if len(words) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "text"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "approved"}),
	}).Create(words).Error, "upsert words")
}

var _ repository.WordRepository = (*wordRepository)(nil)
