package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/arcade-hub/internal/domain"
)

// CreateGame registers a new playable game
func (s *ArcadeService) CreateGame(ctx context.Context, req domain.CreateGameRequest) (*domain.Game, error) {
	if strings.TrimSpace(req.Name) == "" || req.Type == "" || req.Link == "" || req.ImageURL == "" {
		return nil, domain.ErrInvalidRequest
	}

	gameType, ok := domain.NormalizeGameType(req.Type)
	if !ok {
		return nil, domain.ErrInvalidRequest
	}

	order := req.SortOrder
	if order == "" {
		order = domain.SortOrderDesc
	}
	if !order.Valid() {
		return nil, domain.ErrInvalidRequest
	}

	game := &domain.Game{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Type:      gameType,
		Link:      req.Link,
		ImageURL:  req.ImageURL,
		SortOrder: order,
		TopScores: []domain.ScoreEntry{},
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// ListGames returns all games
func (s *ArcadeService) ListGames(ctx context.Context) ([]domain.Game, error) {
	return s.store.ListGames(ctx)
}

// GetGame returns a game by id
func (s *ArcadeService) GetGame(ctx context.Context, gameID string) (*domain.Game, error) {
	return s.store.GetGame(ctx, gameID)
}

// UpdateGame applies a partial update to a game
func (s *ArcadeService) UpdateGame(ctx context.Context, gameID string, upd domain.UpdateGameRequest) (*domain.Game, error) {
	if upd.Empty() {
		return nil, domain.ErrInvalidRequest
	}
	if upd.Type != nil {
		gameType, ok := domain.NormalizeGameType(*upd.Type)
		if !ok {
			return nil, domain.ErrInvalidRequest
		}
		t := string(gameType)
		upd.Type = &t
	}
	if upd.SortOrder != nil && !upd.SortOrder.Valid() {
		return nil, domain.ErrInvalidRequest
	}
	return s.store.UpdateGame(ctx, gameID, upd)
}

// DeleteGame removes a game and its cached leaderboard. Personal bests
// referencing the game are removed as well, keeping the deletion policy
// symmetric with the user cascade.
func (s *ArcadeService) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.store.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.cache.DeleteGame(ctx, gameID); err != nil {
		s.logger.Warn("failed to delete cached leaderboard", "game_id", gameID, "error", err)
	}
	return nil
}
