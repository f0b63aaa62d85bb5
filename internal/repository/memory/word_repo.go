package memory

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed words.yaml
var defaultDictionary []byte

// Dictionary maps language -> category -> words.
type Dictionary map[string]map[string][]string

// LoadDictionary decodes a YAML dictionary.
func LoadDictionary(r io.Reader) (Dictionary, error) {
	var dict Dictionary
	if err := yaml.NewDecoder(r).Decode(&dict); err != nil {
		return nil, errors.Wrap(err, "decode word dictionary")
	}

	normalized := make(Dictionary, len(dict))
	for lang, categories := range dict {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if normalized[lang] == nil {
			normalized[lang] = make(map[string][]string)
		}
		for category, words := range categories {
			for _, w := range words {
				if w = strings.TrimSpace(w); w != "" {
					normalized[lang][category] = append(normalized[lang][category], w)
				}
			}
		}
	}
	return normalized, nil
}

// LoadDictionaryFile reads path, or the built-in dictionary when path is empty.
func LoadDictionaryFile(path string) (Dictionary, error) {
	if path == "" {
		return LoadDictionary(bytes.NewReader(defaultDictionary))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open word dictionary %s", path)
	}
	defer f.Close()
	return LoadDictionary(f)
}

// Words flattens the dictionary into approved words, sorted for stable seeding.
func (d Dictionary) Words() []*domain.Word {
	var words []*domain.Word
	for lang, categories := range d {
		for category, texts := range categories {
			for _, text := range texts {
				words = append(words, &domain.Word{
					Text:     text,
					Category: category,
					Language: lang,
					Approved: true,
				})
			}
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Language != words[j].Language {
			return words[i].Language < words[j].Language
		}
		return words[i].Text < words[j].Text
	})
	return words
}

type wordRepository struct {
	dict Dictionary
}

func NewWordRepository(dict Dictionary) *wordRepository {
	return &wordRepository{dict: dict}
}

func (r *wordRepository) GetRandomWord(ctx context.Context, category, language string) (*domain.Word, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}
	categories := r.dict[language]

	type candidate struct{ text, category string }
	var pool []candidate
	for name, words := range categories {
		if category != "" && name != category {
			continue
		}
		for _, w := range words {
			pool = append(pool, candidate{text: w, category: name})
		}
	}
	if len(pool) == 0 {
		return nil, repository.ErrNotFound
	}

	pick := pool[rand.IntN(len(pool))]
	return &domain.Word{
		Text:     pick.text,
		Category: pick.category,
		Language: language,
		Approved: true,
	}, nil
}

func (r *wordRepository) Categories(ctx context.Context, language string) ([]domain.Category, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}

	categories := make([]domain.Category, 0, len(r.dict[language]))
	for name, words := range r.dict[language] {
		categories = append(categories, domain.Category{Name: name, Count: len(words)})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}
