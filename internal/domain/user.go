package domain

import "time"

// GameScore is a user's personal best for a single game.
// A user has at most one entry per game.
type GameScore struct {
	GameID       string  `json:"gameId"`
	HighestScore float64 `json:"highestScore"`
}

// User represents a registered player
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Name         string      `json:"name,omitempty"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	PasswordHash string      `json:"-"`
	GameScores   []GameScore `json:"gameScores"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// RegisterRequest is the payload for creating a new account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest is the payload for authenticating
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest carries the profile fields a user may change
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Empty reports whether the update carries no changes
func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil
}

// ForgotPasswordRequest starts the password-reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password-reset flow
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
