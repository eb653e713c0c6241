package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/arcade-hub/internal/config"
	"github.com/arcade-hub/internal/domain"
)

// Cache mirrors each game's top-ten leaderboard into a Redis sorted set
// for cheap reads and realtime broadcasts. Postgres stays authoritative;
// every write here is best-effort and repaired by the sync worker.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCache creates a new Redis leaderboard cache
func NewCache(cfg *config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) scoresKey(gameID string) string {
	return fmt.Sprintf("game:%s:topscores", gameID)
}

func (c *Cache) namesKey(gameID string) string {
	return fmt.Sprintf("game:%s:usernames", gameID)
}

// MirrorTopScores replaces a game's cached leaderboard with the given
// entries. The swap runs in one pipeline so readers never see a half
// rebuilt board.
func (c *Cache) MirrorTopScores(ctx context.Context, gameID string, entries []domain.ScoreEntry) error {
	scoresKey := c.scoresKey(gameID)
	namesKey := c.namesKey(gameID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, scoresKey)
	pipe.Del(ctx, namesKey)
	for _, e := range entries {
		pipe.ZAdd(ctx, scoresKey, redis.Z{
			Score:  e.Score,
			Member: e.UserID,
		})
		pipe.HSet(ctx, namesKey, e.UserID, e.Username)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirroring top scores: %w", err)
	}
	return nil
}

// GetTop returns the best n cached entries for a game, best-first per the
// game's ranking direction
func (c *Cache) GetTop(ctx context.Context, gameID string, order domain.SortOrder, n int) ([]domain.ScoreEntry, error) {
	scoresKey := c.scoresKey(gameID)

	var results []redis.Z
	var err error
	if order == domain.SortOrderAsc {
		results, err = c.client.ZRangeWithScores(ctx, scoresKey, 0, int64(n-1)).Result()
	} else {
		results, err = c.client.ZRevRangeWithScores(ctx, scoresKey, 0, int64(n-1)).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached top scores: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, z := range results {
		ids[i] = z.Member.(string)
	}
	names, err := c.client.HMGet(ctx, c.namesKey(gameID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("getting cached usernames: %w", err)
	}

	entries := make([]domain.ScoreEntry, len(results))
	for i, z := range results {
		entry := domain.ScoreEntry{
			UserID: ids[i],
			Score:  z.Score,
		}
		if i < len(names) {
			if name, ok := names[i].(string); ok {
				entry.Username = name
			}
		}
		entries[i] = entry
	}
	return entries, nil
}

// RemoveUser drops one user from one game's cached leaderboard
func (c *Cache) RemoveUser(ctx context.Context, gameID, userID string) error {
	pipe := c.client.Pipeline()
	pipe.ZRem(ctx, c.scoresKey(gameID), userID)
	pipe.HDel(ctx, c.namesKey(gameID), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing user from cache: %w", err)
	}
	return nil
}

// RemoveUserEverywhere drops one user from every given game's cache.
// Called after an account deletion cascade.
func (c *Cache) RemoveUserEverywhere(ctx context.Context, gameIDs []string, userID string) error {
	pipe := c.client.Pipeline()
	for _, gameID := range gameIDs {
		pipe.ZRem(ctx, c.scoresKey(gameID), userID)
		pipe.HDel(ctx, c.namesKey(gameID), userID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing user from caches: %w", err)
	}
	return nil
}

// DeleteGame removes a game's cached leaderboard entirely
func (c *Cache) DeleteGame(ctx context.Context, gameID string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.scoresKey(gameID))
	pipe.Del(ctx, c.namesKey(gameID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting cached leaderboard: %w", err)
	}
	return nil
}
