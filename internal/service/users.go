package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcade-hub/internal/domain"
)

// Register creates a new user account
func (s *ArcadeService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if req.Username == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, domain.ErrInvalidRequest
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		GameScores:   []domain.GameScore{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and issues a session token
func (s *ArcadeService) Login(ctx context.Context, req domain.LoginRequest) (string, *domain.User, error) {
	if req.Username == "" || req.Password == "" {
		return "", nil, domain.ErrInvalidRequest
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("resolving user: %w", err)
	}
	if !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ForgotPassword generates a reset token and mails the reset link
func (s *ArcadeService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrInvalidRequest
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, expiry, err := s.auth.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.store.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/%s", s.resetURLBase, token)
	body := fmt.Sprintf("Click the following link to reset your password: %s", resetURL)
	if err := s.mailer.Send(user.Email, "Password Reset Request", body); err != nil {
		return fmt.Errorf("sending reset mail: %w", err)
	}
	return nil
}

// ResetPassword completes a password reset using a previously mailed token
func (s *ArcadeService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrInvalidRequest
	}

	user, err := s.store.GetUserByResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.SetPassword(ctx, user.ID, hash)
}

// ListUsers returns all users
func (s *ArcadeService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

// GetUser returns a user by id
func (s *ArcadeService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateUser applies a partial profile update
func (s *ArcadeService) UpdateUser(ctx context.Context, userID string, upd domain.UpdateUserRequest) (*domain.User, error) {
	if upd.Empty() {
		return nil, domain.ErrInvalidRequest
	}
	return s.store.UpdateUser(ctx, userID, upd)
}

// DeleteUser removes an account. The store deletes the user and pulls
// their entries from every game's leaderboard in one transaction; the
// cached mirrors are then cleaned up best-effort.
func (s *ArcadeService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	games, err := s.store.GameIDs(ctx)
	if err != nil {
		s.logger.Warn("failed to list games for cache cleanup", "error", err)
		return nil
	}
	ids := make([]string, 0, len(games))
	for id := range games {
		ids = append(ids, id)
	}
	if err := s.cache.RemoveUserEverywhere(ctx, ids, userID); err != nil {
		s.logger.Warn("failed to clean cached leaderboards", "user_id", userID, "error", err)
	}
	return nil
}
