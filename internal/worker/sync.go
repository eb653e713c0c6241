package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arcade-hub/internal/config"
	"github.com/arcade-hub/internal/postgres"
	"github.com/arcade-hub/internal/redis"
)

// SyncWorker periodically rebuilds the Redis leaderboard mirrors from the
// authoritative store. Score submission updates the mirror best-effort,
// so this worker is the reconciliation path that repairs any drift (and
// repopulates Redis after a restart).
type SyncWorker struct {
	store   *postgres.Repository
	cache   *redis.Cache
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	store *postgres.Repository,
	cache *redis.Cache,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll rebuilds every game's mirror
func (w *SyncWorker) syncAll(ctx context.Context) {
	w.logger.Info("starting mirror sync cycle")
	startTime := time.Now()

	games, err := w.store.GameIDs(ctx)
	if err != nil {
		w.logger.Error("failed to list games for sync", "error", err)
		return
	}

	syncedCount := 0
	errorCount := 0

	for gameID := range games {
		if err := w.SyncGame(ctx, gameID); err != nil {
			w.logger.Error("failed to sync game mirror",
				"game_id", gameID,
				"error", err,
			)
			errorCount++
		} else {
			syncedCount++
		}
	}

	w.logger.Info("mirror sync cycle completed",
		"duration", time.Since(startTime),
		"synced", syncedCount,
		"errors", errorCount,
	)
}

// SyncGame rebuilds one game's mirror from the authoritative store
func (w *SyncWorker) SyncGame(ctx context.Context, gameID string) error {
	game, err := w.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	return w.cache.MirrorTopScores(ctx, gameID, game.TopScores)
}

// SyncAllOnce rebuilds all mirrors immediately. Called at startup so
// Redis serves correct boards right away.
func (w *SyncWorker) SyncAllOnce(ctx context.Context) error {
	w.logger.Info("rebuilding all leaderboard mirrors")

	games, err := w.store.GameIDs(ctx)
	if err != nil {
		return err
	}

	for gameID := range games {
		if err := w.SyncGame(ctx, gameID); err != nil {
			w.logger.Error("failed to rebuild game mirror",
				"game_id", gameID,
				"error", err,
			)
			// Continue with other games
		}
	}

	w.logger.Info("leaderboard mirrors rebuilt", "count", len(games))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
