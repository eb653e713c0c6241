package service

import (
	"log/slog"

	"github.com/arcade-hub/internal/auth"
	"github.com/arcade-hub/internal/mailer"
)

// ArcadeService provides the business logic for games, users and
// leaderboard reconciliation
type ArcadeService struct {
	store  Store
	cache  Cache
	auth   *auth.Service
	mailer mailer.Mailer
	hub    Broadcaster
	logger *slog.Logger

	resetURLBase string
}

// NewArcadeService creates a new service
func NewArcadeService(
	store Store,
	cache Cache,
	authService *auth.Service,
	m mailer.Mailer,
	resetURLBase string,
	logger *slog.Logger,
) *ArcadeService {
	return &ArcadeService{
		store:        store,
		cache:        cache,
		auth:         authService,
		mailer:       m,
		resetURLBase: resetURLBase,
		logger:       logger,
	}
}

// SetHub attaches the websocket hub used for leaderboard broadcasts
func (s *ArcadeService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// Auth exposes the token verifier for middleware use
func (s *ArcadeService) Auth() *auth.Service {
	return s.auth
}
