package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/impostor-game/internal/api"
	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/logger"
	"github.com/dom/impostor-game/internal/repository"
	"github.com/dom/impostor-game/internal/repository/memory"
	"github.com/dom/impostor-game/internal/repository/postgres"
	"github.com/dom/impostor-game/internal/service"
	"github.com/dom/impostor-game/internal/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("production")
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := newRepositories(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	services := service.NewServices(repos, cfg)

	hub := websocket.NewHub(services.Game, cfg)
	go hub.Run()

	services.Sweeper.OnDelete(func(room *domain.Room) {
		hub.Events().RoomDeleted(room.ID)
	})
	go services.Sweeper.Run(ctx)

	router := api.NewRouter(services, hub, cfg)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("server stopped")
}

// newRepositories uses Postgres when DATABASE_URL is set and in-memory
// storage otherwise. The dictionary is loaded either way; with Postgres it
// is upserted so a fresh database has words to play with.
func newRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, error) {
	dict, err := memory.LoadDictionaryFile(cfg.WordsFile)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, rooms and users are kept in memory")
		return &repository.Repositories{
			User:    memory.NewUserRepository(),
			Session: memory.NewSessionRepository(),
			Room:    memory.NewRoomRepository(),
			Word:    memory.NewWordRepository(dict),
		}, nil
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	words := postgres.NewWordRepository(db)
	if err := words.UpsertMany(ctx, dict.Words()); err != nil {
		return nil, errors.Wrap(err, "seed words")
	}

	return postgres.NewRepositories(db), nil
}
