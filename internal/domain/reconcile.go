package domain

import (
	"math"
	"sort"
)

// Better reports whether score a is strictly better than score b under the
// given ranking direction. Ties are never better: only strict improvements
// replace an existing entry.
func Better(a, b float64, order SortOrder) bool {
	if order == SortOrderAsc {
		return a < b
	}
	return a > b
}

// ValidScore reports whether a submitted score is a finite number
func ValidScore(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, 0)
}

// SortTopScores orders entries best-first for the given ranking direction.
// The sort is stable so equal scores keep their insertion order.
func SortTopScores(entries []ScoreEntry, order SortOrder) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Better(entries[i].Score, entries[j].Score, order)
	})
}

// ApplyScore reconciles a new score into the game's leaderboard.
//
// If the user already holds an entry it is replaced only when the new score
// is strictly better; otherwise nothing changes and false is returned. A
// first-ever score is appended unconditionally. The list is then re-sorted
// and truncated to TopScoreLimit, so a fresh entry that does not make the
// top ten is evicted immediately; the submission still counts as applied.
func ApplyScore(g *Game, userID, username string, score float64) bool {
	for i := range g.TopScores {
		if g.TopScores[i].UserID != userID {
			continue
		}
		if !Better(score, g.TopScores[i].Score, g.SortOrder) {
			return false
		}
		g.TopScores[i].Score = score
		g.TopScores[i].Username = username
		capTopScores(g)
		return true
	}

	g.TopScores = append(g.TopScores, ScoreEntry{
		UserID:   userID,
		Username: username,
		Score:    score,
	})
	capTopScores(g)
	return true
}

// PruneUser removes every leaderboard entry held by the given user.
// Used when a submission references a user that no longer exists.
func PruneUser(g *Game, userID string) bool {
	kept := g.TopScores[:0]
	removed := false
	for _, e := range g.TopScores {
		if e.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	g.TopScores = kept
	return removed
}

func capTopScores(g *Game) {
	SortTopScores(g.TopScores, g.SortOrder)
	if len(g.TopScores) > TopScoreLimit {
		g.TopScores = g.TopScores[:TopScoreLimit]
	}
}

// ApplyPersonalBest reconciles a score into the user's own record for the
// game. The same ranking direction decides improvement, independently of
// whether the entry survived the game's top-ten truncation.
func ApplyPersonalBest(u *User, gameID string, score float64, order SortOrder) bool {
	for i := range u.GameScores {
		if u.GameScores[i].GameID != gameID {
			continue
		}
		if !Better(score, u.GameScores[i].HighestScore, order) {
			return false
		}
		u.GameScores[i].HighestScore = score
		return true
	}
	u.GameScores = append(u.GameScores, GameScore{GameID: gameID, HighestScore: score})
	return true
}

// CollapseBestPerUser keeps only each user's best row. Stored leaderboards
// are deduplicated by construction, but legacy data may violate that, so
// queries collapse before sorting. The input slice is reused.
func CollapseBestPerUser(rows []LeaderboardRow, order SortOrder) []LeaderboardRow {
	best := make(map[string]int, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if i, ok := best[row.UserID]; ok {
			if Better(row.Score, out[i].Score, order) {
				out[i] = row
			}
			continue
		}
		best[row.UserID] = len(out)
		out = append(out, row)
	}
	return out
}

// SortLeaderboard orders resolved rows best-to-worst for display
func SortLeaderboard(rows []LeaderboardRow, order SortOrder) {
	sort.SliceStable(rows, func(i, j int) bool {
		return Better(rows[i].Score, rows[j].Score, order)
	})
}
