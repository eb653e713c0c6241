package service

import (
	"context"
	"time"

	"github.com/arcade-hub/internal/domain"
)

// Store is the persistence surface the service needs. *postgres.Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	CreateGame(ctx context.Context, game *domain.Game) error
	GetGame(ctx context.Context, gameID string) (*domain.Game, error)
	ListGames(ctx context.Context) ([]domain.Game, error)
	GameIDs(ctx context.Context) (map[string]domain.SortOrder, error)
	UpdateGame(ctx context.Context, gameID string, upd domain.UpdateGameRequest) (*domain.Game, error)
	DeleteGame(ctx context.Context, gameID string) error

	ReplaceTopScores(ctx context.Context, gameID string, entries []domain.ScoreEntry) error
	PullUserFromTopScores(ctx context.Context, gameID, userID string) error
	LeaderboardRows(ctx context.Context, gameID string) ([]domain.LeaderboardRow, error)
	UpsertPersonalBest(ctx context.Context, userID, gameID string, score float64, order domain.SortOrder) error
	RecordEvent(ctx context.Context, event domain.ScoreEvent) error

	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, userID string, upd domain.UpdateUserRequest) (*domain.User, error)
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error
}

// Cache is the read-side leaderboard mirror. All cache writes are
// best-effort: a failure degrades reads, never correctness.
type Cache interface {
	MirrorTopScores(ctx context.Context, gameID string, entries []domain.ScoreEntry) error
	GetTop(ctx context.Context, gameID string, order domain.SortOrder, n int) ([]domain.ScoreEntry, error)
	RemoveUser(ctx context.Context, gameID, userID string) error
	RemoveUserEverywhere(ctx context.Context, gameIDs []string, userID string) error
	DeleteGame(ctx context.Context, gameID string) error
}

// Broadcaster pushes leaderboard updates to connected websocket clients
type Broadcaster interface {
	BroadcastLeaderboard(gameID string, entries []domain.ScoreEntry)
}
