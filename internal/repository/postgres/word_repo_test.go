package postgres_test

import (
	"context"
	"testing"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/dom/impostor-game/internal/repository/postgres"
	"github.com/dom/impostor-game/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewWordRepository(testDB.DB)
	ctx := context.Background()

	words := []*domain.Word{
		{Text: "penguin", Category: "animals", Language: "en", Approved: true},
		{Text: "owl", Category: "animals", Language: "en", Approved: true},
		{Text: "pizza", Category: "food", Language: "en", Approved: true},
		{Text: "paella", Category: "comida", Language: "es", Approved: true},
	}
	require.NoError(t, repo.UpsertMany(ctx, words))

	// Re-seeding moves a word without duplicating it.
	require.NoError(t, repo.UpsertMany(ctx, []*domain.Word{
		{Text: "owl", Category: "birds", Language: "en", Approved: true},
	}))

	t.Run("ByCategory", func(t *testing.T) {
		word, err := repo.GetRandomWord(ctx, "animals", "en")
		require.NoError(t, err)
		assert.Equal(t, "penguin", word.Text)
	})

	t.Run("AnyCategory", func(t *testing.T) {
		word, err := repo.GetRandomWord(ctx, "", "es")
		require.NoError(t, err)
		assert.Equal(t, "paella", word.Text)
	})

	t.Run("NoWord", func(t *testing.T) {
		_, err := repo.GetRandomWord(ctx, "cars", "en")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Categories", func(t *testing.T) {
		categories, err := repo.Categories(ctx, "en")
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{
			{Name: "animals", Count: 1},
			{Name: "birds", Count: 1},
			{Name: "food", Count: 1},
		}, categories)
	})
}
