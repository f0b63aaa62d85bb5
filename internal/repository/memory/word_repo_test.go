package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dom/impostor-game/internal/repository"
	"github.com/dom/impostor-game/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDictionary = `
en:
  animals: [cat, "  dog  ", ""]
  food: [pizza]
ES:
  comida: [paella]
`

func TestLoadDictionary(t *testing.T) {
	dict, err := memory.LoadDictionary(strings.NewReader(testDictionary))
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "dog"}, dict["en"]["animals"])
	assert.Equal(t, []string{"paella"}, dict["es"]["comida"])

	_, err = memory.LoadDictionary(strings.NewReader("en: [not, a, map]"))
	assert.Error(t, err)
}

func TestLoadDictionaryFile_Default(t *testing.T) {
	dict, err := memory.LoadDictionaryFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, dict["en"])
	assert.NotEmpty(t, dict["es"])
}

func TestWordRepository(t *testing.T) {
	dict, err := memory.LoadDictionary(strings.NewReader(testDictionary))
	require.NoError(t, err)
	repo := memory.NewWordRepository(dict)
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
		language string
		want     []string
		wantErr  error
	}{
		{name: "Category", category: "food", language: "en", want: []string{"pizza"}},
		{name: "AnyCategory", language: "en", want: []string{"cat", "dog", "pizza"}},
		{name: "DefaultLanguage", category: "animals", want: []string{"cat", "dog"}},
		{name: "OtherLanguage", language: "es", want: []string{"paella"}},
		{name: "UnknownCategory", category: "cars", language: "en", wantErr: repository.ErrNotFound},
		{name: "UnknownLanguage", language: "fr", wantErr: repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, err := repo.GetRandomWord(ctx, tt.category, tt.language)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, tt.want, word.Text)
			assert.True(t, word.Approved)
		})
	}

	categories, err := repo.Categories(ctx, "en")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "animals", categories[0].Name)
	assert.Equal(t, 2, categories[0].Count)
}

func TestDictionary_Words(t *testing.T) {
	dict, err := memory.LoadDictionary(strings.NewReader(testDictionary))
	require.NoError(t, err)

	words := dict.Words()
	require.Len(t, words, 4)

	var texts []string
	for _, w := range words {
		assert.True(t, w.Approved)
		texts = append(texts, w.Language+"/"+w.Category+"/"+w.Text)
	}
	assert.Equal(t, []string{"en/animals/cat", "en/animals/dog", "en/food/pizza", "es/comida/paella"}, texts)
}
