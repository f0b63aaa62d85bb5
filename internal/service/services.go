package service

import (
	"github.com/dom/impostor-game/internal/config"
	"github.com/dom/impostor-game/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Game    *GameService
	Sweeper *Sweeper
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(repos.User, repos.Session, cfg),
		Game:    NewGameService(repos.Room, repos.Word, cfg),
		Sweeper: NewSweeper(repos.Room, cfg),
	}
}
