package auth

import (
	"aldoge_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AuthRoutesManager struct {
	logger      *gecho.Logger
	authService *services.AuthService
}

func NewAuthRoutesManager(logger *gecho.Logger, authService *services.AuthService) *AuthRoutesManager {
	return &AuthRoutesManager{
		logger:      logger,
		authService: authService,
	}
}

func (arm *AuthRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", arm.Login)
	})
}
