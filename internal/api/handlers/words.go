package handlers

import (
	"net/http"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/service"
)

type WordHandler struct {
	game *service.GameService
}

func NewWordHandler(game *service.GameService) *WordHandler {
	return &WordHandler{game: game}
}

type CategoriesResponse struct {
	Language   string            `json:"language"`
	Categories []domain.Category `json:"categories"`
}

func (h *WordHandler) Categories(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")
	if language == "" {
		language = domain.DefaultLanguage
	}

	categories, err := h.game.Categories(r.Context(), language)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CategoriesResponse{Language: language, Categories: categories})
}
