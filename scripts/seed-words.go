//go:build ignore

// Seeds the words table from a YAML dictionary.
//
//	go run scripts/seed-words.go -file words.yaml
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dom/impostor-game/internal/logger"
	"github.com/dom/impostor-game/internal/repository/memory"
	"github.com/dom/impostor-game/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "", "YAML dictionary (default: built-in)")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init("development")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	dict, err := memory.LoadDictionaryFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionary")
	}

	db, err := postgres.NewConnection(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	words := dict.Words()
	if err := postgres.NewWordRepository(db).UpsertMany(ctx, words); err != nil {
		log.Fatal().Err(err).Msg("failed to seed words")
	}

	log.Info().Int("words", len(words)).Int("languages", len(dict)).Msg("dictionary seeded")
}
