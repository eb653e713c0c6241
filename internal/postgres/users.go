package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arcade-hub/internal/domain"
)

const userColumns = `id, username, name, email, phone, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, name, email, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUser
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser retrieves a user and their personal bests
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, err
	}

	bests, err := r.personalBests(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.GameScores = bests
	return user, nil
}

// GetUserByUsername retrieves a user by their unique username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// GetUserByEmail retrieves a user by their unique email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByResetToken retrieves the user holding a still-valid reset token
func (r *Repository) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1 AND reset_token_expiry > $2`,
		token, time.Now()))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves all users (password hashes stay internal)
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// UpdateUser applies a partial profile update and returns the updated user
func (r *Repository) UpdateUser(ctx context.Context, userID string, upd domain.UpdateUserRequest) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			updated_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, userID, upd.Name, upd.Email, upd.Phone, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.GetUser(ctx, userID)
}

// SetResetToken stores a password-reset token with its expiry
func (r *Repository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = $4 WHERE id = $1`,
		userID, token, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("setting reset token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetPassword replaces the password hash and clears any reset token
func (r *Repository) SetPassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpsertPersonalBest records a score as the user's best for a game unless
// the stored best is already at least as good. GREATEST/LEAST makes the
// write idempotent, so a retry after a partial failure is harmless.
func (r *Repository) UpsertPersonalBest(ctx context.Context, userID, gameID string, score float64, order domain.SortOrder) error {
	keep := "GREATEST"
	if order == domain.SortOrderAsc {
		keep = "LEAST"
	}
	query := fmt.Sprintf(`
		INSERT INTO personal_bests (user_id, game_id, best_score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, game_id)
		DO UPDATE SET best_score = %s(personal_bests.best_score, $3), updated_at = $4
	`, keep)
	_, err := r.pool.Exec(ctx, query, userID, gameID, score, time.Now())
	if err != nil {
		return fmt.Errorf("upserting personal best: %w", err)
	}
	return nil
}

// DeleteUser removes a user and, in the same transaction, pulls their
// entries from every game's leaderboard. The persistence layer has no
// cascading path from users to top_scores, so the cascade lives here.
func (r *Repository) DeleteUser(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM top_scores WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("pulling user from leaderboards: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing user deletion: %w", err)
	}
	return nil
}

// personalBests loads the user's per-game best scores
func (r *Repository) personalBests(ctx context.Context, userID string) ([]domain.GameScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT game_id, best_score FROM personal_bests WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying personal bests: %w", err)
	}
	defer rows.Close()

	var bests []domain.GameScore
	for rows.Next() {
		var gs domain.GameScore
		if err := rows.Scan(&gs.GameID, &gs.HighestScore); err != nil {
			return nil, fmt.Errorf("scanning personal best: %w", err)
		}
		bests = append(bests, gs)
	}
	return bests, nil
}
