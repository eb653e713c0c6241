// Package servicetest provides in-memory fakes of the service's
// persistence and cache surfaces, for exercising the service and HTTP
// layers without PostgreSQL or Redis.
package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/arcade-hub/internal/domain"
)

// Store is an in-memory store. Games and users are returned as copies,
// like a real load. All exported fields are guarded by Mu.
type Store struct {
	Mu     sync.Mutex
	Games  map[string]*domain.Game
	Users  map[string]*domain.User
	Events []domain.ScoreEvent

	ResetTokens  map[string]string // token -> userID
	TokenExpiry  map[string]time.Time
	PulledUsers  []string // "gameID/userID" pairs seen by PullUserFromTopScores
	DeletedUsers []string
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		Games:       make(map[string]*domain.Game),
		Users:       make(map[string]*domain.User),
		ResetTokens: make(map[string]string),
		TokenExpiry: make(map[string]time.Time),
	}
}

func copyGame(g *domain.Game) *domain.Game {
	cp := *g
	cp.TopScores = append([]domain.ScoreEntry(nil), g.TopScores...)
	return &cp
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.GameScores = append([]domain.GameScore(nil), u.GameScores...)
	return &cp
}

func (s *Store) CreateGame(_ context.Context, game *domain.Game) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	for _, g := range s.Games {
		if g.Name == game.Name {
			return domain.ErrDuplicateGame
		}
	}
	s.Games[game.ID] = copyGame(game)
	return nil
}

func (s *Store) GetGame(_ context.Context, gameID string) (*domain.Game, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	g, ok := s.Games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return copyGame(g), nil
}

func (s *Store) ListGames(_ context.Context) ([]domain.Game, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make([]domain.Game, 0, len(s.Games))
	for _, g := range s.Games {
		out = append(out, *copyGame(g))
	}
	return out, nil
}

func (s *Store) GameIDs(_ context.Context) (map[string]domain.SortOrder, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make(map[string]domain.SortOrder, len(s.Games))
	for id, g := range s.Games {
		out[id] = g.SortOrder
	}
	return out, nil
}

func (s *Store) UpdateGame(_ context.Context, gameID string, upd domain.UpdateGameRequest) (*domain.Game, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	g, ok := s.Games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	if upd.Name != nil {
		g.Name = *upd.Name
	}
	if upd.Type != nil {
		g.Type = domain.GameType(*upd.Type)
	}
	if upd.Link != nil {
		g.Link = *upd.Link
	}
	if upd.ImageURL != nil {
		g.ImageURL = *upd.ImageURL
	}
	if upd.SortOrder != nil {
		g.SortOrder = *upd.SortOrder
	}
	return copyGame(g), nil
}

func (s *Store) DeleteGame(_ context.Context, gameID string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if _, ok := s.Games[gameID]; !ok {
		return domain.ErrGameNotFound
	}
	delete(s.Games, gameID)
	return nil
}

func (s *Store) ReplaceTopScores(_ context.Context, gameID string, entries []domain.ScoreEntry) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	g, ok := s.Games[gameID]
	if !ok {
		return domain.ErrGameNotFound
	}
	g.TopScores = append([]domain.ScoreEntry(nil), entries...)
	return nil
}

func (s *Store) PullUserFromTopScores(_ context.Context, gameID, userID string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.PulledUsers = append(s.PulledUsers, gameID+"/"+userID)
	if g, ok := s.Games[gameID]; ok {
		domain.PruneUser(g, userID)
	}
	return nil
}

func (s *Store) LeaderboardRows(_ context.Context, gameID string) ([]domain.LeaderboardRow, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	g, ok := s.Games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	var rows []domain.LeaderboardRow
	for _, e := range g.TopScores {
		row := domain.LeaderboardRow{UserID: e.UserID, Username: e.Username, Score: e.Score}
		if u, ok := s.Users[e.UserID]; ok {
			row.Name = u.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) UpsertPersonalBest(_ context.Context, userID, gameID string, score float64, order domain.SortOrder) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	u, ok := s.Users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	domain.ApplyPersonalBest(u, gameID, score, order)
	return nil
}

func (s *Store) RecordEvent(_ context.Context, event domain.ScoreEvent) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Events = append(s.Events, event)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	for _, u := range s.Users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrDuplicateUser
		}
	}
	s.Users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*domain.User, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	u, ok := s.Users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	for _, u := range s.Users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) GetUserByResetToken(_ context.Context, token string) (*domain.User, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	userID, ok := s.ResetTokens[token]
	if !ok || time.Now().After(s.TokenExpiry[token]) {
		return nil, domain.ErrInvalidToken
	}
	u, ok := s.Users[userID]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return copyUser(u), nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make([]domain.User, 0, len(s.Users))
	for _, u := range s.Users {
		out = append(out, *copyUser(u))
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, userID string, upd domain.UpdateUserRequest) (*domain.User, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	u, ok := s.Users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	return copyUser(u), nil
}

func (s *Store) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.ResetTokens[token] = userID
	s.TokenExpiry[token] = expiry
	return nil
}

func (s *Store) SetPassword(_ context.Context, userID, passwordHash string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	u, ok := s.Users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	for token, id := range s.ResetTokens {
		if id == userID {
			delete(s.ResetTokens, token)
			delete(s.TokenExpiry, token)
		}
	}
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if _, ok := s.Users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.Users, userID)
	for _, g := range s.Games {
		domain.PruneUser(g, userID)
	}
	s.DeletedUsers = append(s.DeletedUsers, userID)
	return nil
}

// Cache is an in-memory leaderboard mirror recording every operation
type Cache struct {
	Mu      sync.Mutex
	Mirrors map[string][]domain.ScoreEntry
	Removed []string // "gameID/userID"
	Deleted []string
	TopErr  error
}

// NewCache creates an empty in-memory cache
func NewCache() *Cache {
	return &Cache{Mirrors: make(map[string][]domain.ScoreEntry)}
}

func (c *Cache) MirrorTopScores(_ context.Context, gameID string, entries []domain.ScoreEntry) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Mirrors[gameID] = append([]domain.ScoreEntry(nil), entries...)
	return nil
}

func (c *Cache) GetTop(_ context.Context, gameID string, _ domain.SortOrder, n int) ([]domain.ScoreEntry, error) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if c.TopErr != nil {
		return nil, c.TopErr
	}
	entries := c.Mirrors[gameID]
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (c *Cache) RemoveUser(_ context.Context, gameID, userID string) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Removed = append(c.Removed, gameID+"/"+userID)
	return nil
}

func (c *Cache) RemoveUserEverywhere(_ context.Context, gameIDs []string, userID string) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	for _, id := range gameIDs {
		c.Removed = append(c.Removed, id+"/"+userID)
	}
	return nil
}

func (c *Cache) DeleteGame(_ context.Context, gameID string) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Deleted = append(c.Deleted, gameID)
	delete(c.Mirrors, gameID)
	return nil
}

// Mailer records outgoing mail instead of sending it
type Mailer struct {
	Mu   sync.Mutex
	Sent []string // recipients
	Body string
	Err  error
}

func (m *Mailer) Send(to, _, body string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, to)
	m.Body = body
	return nil
}

// Broadcaster counts leaderboard broadcasts per game
type Broadcaster struct {
	Mu         sync.Mutex
	Broadcasts map[string]int
}

func (b *Broadcaster) BroadcastLeaderboard(gameID string, _ []domain.ScoreEntry) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Broadcasts == nil {
		b.Broadcasts = make(map[string]int)
	}
	b.Broadcasts[gameID]++
}
