package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arcade-hub/internal/domain"
)

// CreateGame inserts a new game
func (r *Repository) CreateGame(ctx context.Context, game *domain.Game) error {
	query := `
		INSERT INTO games (id, name, type, link, image_url, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	game.CreatedAt = now
	game.UpdatedAt = now
	_, err := r.pool.Exec(ctx, query,
		game.ID,
		game.Name,
		string(game.Type),
		game.Link,
		game.ImageURL,
		string(game.SortOrder),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateGame
		}
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// GetGame retrieves a game and its leaderboard entries
func (r *Repository) GetGame(ctx context.Context, gameID string) (*domain.Game, error) {
	query := `
		SELECT id, name, type, link, image_url, sort_order, created_at, updated_at
		FROM games
		WHERE id = $1
	`
	var game domain.Game
	err := r.pool.QueryRow(ctx, query, gameID).Scan(
		&game.ID,
		&game.Name,
		&game.Type,
		&game.Link,
		&game.ImageURL,
		&game.SortOrder,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("getting game: %w", err)
	}

	entries, err := r.topScores(ctx, gameID)
	if err != nil {
		return nil, err
	}
	game.TopScores = entries
	domain.SortTopScores(game.TopScores, game.SortOrder)

	return &game, nil
}

// ListGames retrieves all games with their leaderboards
func (r *Repository) ListGames(ctx context.Context) ([]domain.Game, error) {
	query := `
		SELECT id, name, type, link, image_url, sort_order, created_at, updated_at
		FROM games
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var game domain.Game
		err := rows.Scan(
			&game.ID,
			&game.Name,
			&game.Type,
			&game.Link,
			&game.ImageURL,
			&game.SortOrder,
			&game.CreatedAt,
			&game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	for i := range games {
		entries, err := r.topScores(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].TopScores = entries
		domain.SortTopScores(games[i].TopScores, games[i].SortOrder)
	}
	return games, nil
}

// GameIDs returns the ids and sort orders of all games (for mirror sync)
func (r *Repository) GameIDs(ctx context.Context) (map[string]domain.SortOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sort_order FROM games`)
	if err != nil {
		return nil, fmt.Errorf("listing game ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]domain.SortOrder)
	for rows.Next() {
		var id string
		var order domain.SortOrder
		if err := rows.Scan(&id, &order); err != nil {
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		ids[id] = order
	}
	return ids, nil
}

// UpdateGame applies a partial update and returns the updated game
func (r *Repository) UpdateGame(ctx context.Context, gameID string, upd domain.UpdateGameRequest) (*domain.Game, error) {
	query := `
		UPDATE games
		SET name = COALESCE($2, name),
			type = COALESCE($3, type),
			link = COALESCE($4, link),
			image_url = COALESCE($5, image_url),
			sort_order = COALESCE($6, sort_order),
			updated_at = $7
		WHERE id = $1
	`
	var order *string
	if upd.SortOrder != nil {
		s := string(*upd.SortOrder)
		order = &s
	}
	result, err := r.pool.Exec(ctx, query, gameID, upd.Name, upd.Type, upd.Link, upd.ImageURL, order, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateGame
		}
		return nil, fmt.Errorf("updating game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrGameNotFound
	}
	return r.GetGame(ctx, gameID)
}

// DeleteGame removes a game. Leaderboard entries and personal bests go
// with it via foreign keys.
func (r *Repository) DeleteGame(ctx context.Context, gameID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}

// ReplaceTopScores atomically swaps a game's leaderboard for the given
// entries. The game row is locked for the duration of the transaction so
// two replacements cannot interleave.
func (r *Repository) ReplaceTopScores(ctx context.Context, gameID string, entries []domain.ScoreEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrGameNotFound
		}
		return fmt.Errorf("locking game: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM top_scores WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("clearing top scores: %w", err)
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO top_scores (game_id, user_id, username, score, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			gameID, e.UserID, e.Username, e.Score, now,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("inserting top score: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing top scores: %w", err)
	}
	return nil
}

// PullUserFromTopScores removes one user's entry from one game's leaderboard
func (r *Repository) PullUserFromTopScores(ctx context.Context, gameID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM top_scores WHERE game_id = $1 AND user_id = $2`,
		gameID, userID,
	)
	if err != nil {
		return fmt.Errorf("pulling user from top scores: %w", err)
	}
	return nil
}

// LeaderboardRows returns a game's leaderboard entries with the user
// display fields resolved. Entries whose user no longer exists are dropped
// by the join.
func (r *Repository) LeaderboardRows(ctx context.Context, gameID string) ([]domain.LeaderboardRow, error) {
	query := `
		SELECT ts.user_id, u.username, u.name, ts.score
		FROM top_scores ts
		JOIN users u ON u.id = ts.user_id
		WHERE ts.game_id = $1
	`
	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardRow
	for rows.Next() {
		var row domain.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Name, &row.Score); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}

// topScores loads the raw leaderboard entries for a game
func (r *Repository) topScores(ctx context.Context, gameID string) ([]domain.ScoreEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, username, score FROM top_scores WHERE game_id = $1`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var e domain.ScoreEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score); err != nil {
			return nil, fmt.Errorf("scanning top score: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
