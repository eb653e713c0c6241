package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/arcade-hub/internal/config"
	"github.com/arcade-hub/internal/domain"
)

// Service handles password hashing and token issuance
type Service struct {
	secret        []byte
	tokenTTL      time.Duration
	bcryptCost    int
	resetTokenTTL time.Duration
}

// NewService creates a new auth service
func NewService(cfg *config.AuthConfig) *Service {
	return &Service{
		secret:        []byte(cfg.JWTSecret),
		tokenTTL:      cfg.TokenTTL,
		bcryptCost:    cfg.BcryptCost,
		resetTokenTTL: cfg.ResetTokenTTL,
	}
}

// HashPassword hashes a plaintext password with bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a stored hash
func (s *Service) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims are the JWT claims carried by a session token
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed session token for a user
func (s *Service) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// NewResetToken generates a random password-reset token and its expiry
func (s *Service) NewResetToken() (string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("generating reset token: %w", err)
	}
	return hex.EncodeToString(buf), time.Now().Add(s.resetTokenTTL), nil
}
