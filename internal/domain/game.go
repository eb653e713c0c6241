package domain

import (
	"strings"
	"time"
)

// SortOrder represents the ranking direction for a game's leaderboard
type SortOrder string

const (
	// SortOrderDesc means a higher score is better (the default)
	SortOrderDesc SortOrder = "desc"
	// SortOrderAsc means a lower score is better (e.g. move-count games)
	SortOrderAsc SortOrder = "asc"
)

// Valid reports whether the sort order is one of the known values
func (o SortOrder) Valid() bool {
	return o == SortOrderDesc || o == SortOrderAsc
}

// GameType represents how a game is played
type GameType string

const (
	GameTypeSingleplayer GameType = "Singleplayer"
	GameTypeMultiplayer  GameType = "Multiplayer"
)

// NormalizeGameType canonicalizes free-form type input ("multiPLAYER" -> "Multiplayer")
func NormalizeGameType(s string) (GameType, bool) {
	if s == "" {
		return "", false
	}
	t := GameType(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
	if t != GameTypeSingleplayer && t != GameTypeMultiplayer {
		return "", false
	}
	return t, true
}

// TopScoreLimit caps the number of entries kept on a game's leaderboard
const TopScoreLimit = 10

// ScoreEntry is a single leaderboard entry on a game
type ScoreEntry struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

// Game represents a playable arcade game and its leaderboard
type Game struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      GameType     `json:"type"`
	Link      string       `json:"link"`
	ImageURL  string       `json:"imgUrl"`
	SortOrder SortOrder    `json:"sortOrder"`
	TopScores []ScoreEntry `json:"topScores"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CreateGameRequest is the payload for registering a new game
type CreateGameRequest struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Link      string    `json:"link"`
	ImageURL  string    `json:"imgUrl"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

// UpdateGameRequest carries the fields a game update may change.
// Nil pointers mean "leave as is".
type UpdateGameRequest struct {
	Name      *string    `json:"name,omitempty"`
	Type      *string    `json:"type,omitempty"`
	Link      *string    `json:"link,omitempty"`
	ImageURL  *string    `json:"imgUrl,omitempty"`
	SortOrder *SortOrder `json:"sortOrder,omitempty"`
}

// Empty reports whether the update carries no changes at all
func (r UpdateGameRequest) Empty() bool {
	return r.Name == nil && r.Type == nil && r.Link == nil && r.ImageURL == nil && r.SortOrder == nil
}

// LeaderboardRow is a resolved leaderboard entry returned by queries,
// with the user's display fields joined in
type LeaderboardRow struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// Leaderboard is the result of a leaderboard query
type Leaderboard struct {
	GameName    string           `json:"gameName"`
	Leaderboard []LeaderboardRow `json:"leaderboard"`
}

// ScoreSubmission is a request to record a play session's final score
type ScoreSubmission struct {
	GameID string  `json:"gameId"`
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
}

// Score event types recorded for auditing
const (
	EventTypeSubmit       = "submit"
	EventTypeStaleCleanup = "stale_cleanup"
)

// ScoreEvent is an audit record of a submission or cleanup
type ScoreEvent struct {
	GameID    string    `json:"game_id"`
	UserID    string    `json:"user_id"`
	Score     float64   `json:"score"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}
