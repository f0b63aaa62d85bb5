package api

import (
	"net/http"

	"github.com/dom/impostor-game/internal/api/handlers"
	"github.com/dom/impostor-game/internal/api/middleware"
	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/service"
	"github.com/dom/impostor-game/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth)
	roomHandler := handlers.NewRoomHandler(services.Game, hub.Events(), cfg)
	wordHandler := handlers.NewWordHandler(services.Game)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.AllowedOrigins)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/guest", authHandler.Guest)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Get("/words/categories", wordHandler.Categories)

		// Anyone holding the code may render its join link.
		r.Get("/rooms/{code}/qr", roomHandler.QRCode)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", roomHandler.Create)
				r.Get("/me", roomHandler.Me)
				r.Post("/{code}/join", roomHandler.Join)

				// The remaining actions target the caller's current room.
				r.Post("/leave", roomHandler.Leave)
				r.Post("/kick", roomHandler.Kick)
				r.Post("/language", roomHandler.ChangeLanguage)
				r.Post("/rename", roomHandler.Rename)
				r.Post("/start", roomHandler.Start)
				r.Post("/words", roomHandler.SubmitWord)
				r.Post("/force-start", roomHandler.ForceStart)
				r.Post("/next-round", roomHandler.NextRound)
				r.Post("/voting", roomHandler.StartVoting)
				r.Post("/vote", roomHandler.Vote)
				r.Post("/confirm-vote", roomHandler.ConfirmVote)
				r.Post("/play-again", roomHandler.PlayAgain)
			})
		})

		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
