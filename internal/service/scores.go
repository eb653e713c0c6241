package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arcade-hub/internal/domain"
)

// SubmitScore reconciles a play session's final score into the game's
// top-ten list and the user's personal-best record.
//
// The returned bool reports whether the submission changed anything: a
// tied or worse score for a user already on the board is accepted but
// leaves all state untouched.
//
// The two persistence writes (game leaderboard, personal best) are not a
// single transaction. Each write is individually atomic and the
// personal-best upsert is idempotent, so a retry after a partial failure
// converges; two concurrent submissions for the same game can still race
// on read-modify-write with last-write-wins on the leaderboard.
func (s *ArcadeService) SubmitScore(ctx context.Context, sub domain.ScoreSubmission) (bool, *domain.Game, error) {
	if !domain.ValidScore(sub.Score) {
		return false, nil, domain.ErrInvalidScore
	}

	game, err := s.store.GetGame(ctx, sub.GameID)
	if err != nil {
		return false, nil, err
	}

	user, err := s.store.GetUser(ctx, sub.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.cleanupStaleUser(ctx, game, sub.UserID)
			return false, nil, domain.ErrUserNotFound
		}
		return false, nil, fmt.Errorf("resolving user: %w", err)
	}

	updated := domain.ApplyScore(game, user.ID, user.Username, sub.Score)
	if !updated {
		return false, game, nil
	}

	if err := s.store.ReplaceTopScores(ctx, game.ID, game.TopScores); err != nil {
		return false, nil, fmt.Errorf("persisting top scores: %w", err)
	}

	// The personal best updates independently of whether the entry
	// survived the top-ten truncation.
	if err := s.store.UpsertPersonalBest(ctx, user.ID, game.ID, sub.Score, game.SortOrder); err != nil {
		return false, nil, fmt.Errorf("persisting personal best: %w", err)
	}

	if err := s.store.RecordEvent(ctx, domain.ScoreEvent{
		GameID:    game.ID,
		UserID:    user.ID,
		Score:     sub.Score,
		EventType: domain.EventTypeSubmit,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Warn("failed to record score event", "error", err)
	}

	s.refreshMirror(ctx, game)

	return true, game, nil
}

// cleanupStaleUser prunes leaderboard entries referencing a user that no
// longer exists. Submissions carrying a dead user id double as a cleanup
// signal, so the pruning is deliberate, not a silent error side effect.
func (s *ArcadeService) cleanupStaleUser(ctx context.Context, game *domain.Game, userID string) {
	if !domain.PruneUser(game, userID) {
		return
	}

	s.logger.Warn("stale leaderboard reference removed",
		"game_id", game.ID,
		"user_id", userID,
	)

	if err := s.store.PullUserFromTopScores(ctx, game.ID, userID); err != nil {
		s.logger.Error("failed to prune stale leaderboard entry", "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, domain.ScoreEvent{
		GameID:    game.ID,
		UserID:    userID,
		EventType: domain.EventTypeStaleCleanup,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Warn("failed to record cleanup event", "error", err)
	}
	if err := s.cache.RemoveUser(ctx, game.ID, userID); err != nil {
		s.logger.Warn("failed to prune cached leaderboard entry", "error", err)
	}
}

// refreshMirror pushes the reconciled leaderboard to the Redis mirror and
// the websocket hub. Both are best-effort.
func (s *ArcadeService) refreshMirror(ctx context.Context, game *domain.Game) {
	if err := s.cache.MirrorTopScores(ctx, game.ID, game.TopScores); err != nil {
		s.logger.Warn("failed to mirror top scores", "game_id", game.ID, "error", err)
	}
	if s.hub != nil {
		s.hub.BroadcastLeaderboard(game.ID, game.TopScores)
	}
}

// GetLeaderboard returns a game's leaderboard with user display fields
// resolved, collapsed to one entry per user and ordered best-to-worst.
// An empty board is a valid result, not an error.
func (s *ArcadeService) GetLeaderboard(ctx context.Context, gameID string) (*domain.Leaderboard, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.LeaderboardRows(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard rows: %w", err)
	}

	rows = domain.CollapseBestPerUser(rows, game.SortOrder)
	domain.SortLeaderboard(rows, game.SortOrder)
	if rows == nil {
		rows = []domain.LeaderboardRow{}
	}

	return &domain.Leaderboard{
		GameName:    game.Name,
		Leaderboard: rows,
	}, nil
}

// GetCachedTop serves the top n entries from the Redis mirror, falling
// back to the authoritative store when the mirror is cold
func (s *ArcadeService) GetCachedTop(ctx context.Context, gameID string, n int) ([]domain.ScoreEntry, error) {
	if n <= 0 || n > domain.TopScoreLimit {
		n = domain.TopScoreLimit
	}

	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	entries, err := s.cache.GetTop(ctx, gameID, game.SortOrder, n)
	if err != nil {
		s.logger.Warn("leaderboard cache read failed, using store", "game_id", gameID, "error", err)
	}
	if len(entries) == 0 {
		entries = game.TopScores
		if len(entries) > n {
			entries = entries[:n]
		}
	}
	if entries == nil {
		entries = []domain.ScoreEntry{}
	}
	return entries, nil
}
