package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcade-hub/internal/config"
	"github.com/arcade-hub/internal/domain"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			type VARCHAR(20) NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			sort_order VARCHAR(10) NOT NULL DEFAULT 'desc',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL UNIQUE,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			reset_token VARCHAR(128),
			reset_token_expiry TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// user_id carries no foreign key on purpose: a deleted user may
		// leave stale leaderboard rows behind, and score submission is
		// responsible for pruning them.
		`CREATE TABLE IF NOT EXISTS top_scores (
			game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			username VARCHAR(64) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(game_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS personal_bests (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			best_score DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS score_events (
			id BIGSERIAL PRIMARY KEY,
			game_id UUID NOT NULL,
			user_id UUID NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			event_type VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_top_scores_game ON top_scores(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_personal_bests_user ON personal_bests(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_score_events_user ON score_events(user_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// RecordEvent records a score event for auditing
func (r *Repository) RecordEvent(ctx context.Context, event domain.ScoreEvent) error {
	query := `
		INSERT INTO score_events (game_id, user_id, score, event_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		event.GameID,
		event.UserID,
		event.Score,
		event.EventType,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
