package domain

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetter(t *testing.T) {
	tests := []struct {
		name  string
		a, b  float64
		order SortOrder
		want  bool
	}{
		{"higher wins desc", 200, 100, SortOrderDesc, true},
		{"lower loses desc", 100, 200, SortOrderDesc, false},
		{"tie is not better desc", 100, 100, SortOrderDesc, false},
		{"lower wins asc", 12.5, 30, SortOrderAsc, true},
		{"higher loses asc", 30, 12.5, SortOrderAsc, false},
		{"tie is not better asc", 30, 30, SortOrderAsc, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Better(tt.a, tt.b, tt.order))
		})
	}
}

func TestValidScore(t *testing.T) {
	assert.True(t, ValidScore(0))
	assert.True(t, ValidScore(-5))
	assert.True(t, ValidScore(99999.25))
	assert.False(t, ValidScore(math.NaN()))
	assert.False(t, ValidScore(math.Inf(1)))
	assert.False(t, ValidScore(math.Inf(-1)))
}

func newTestGame(order SortOrder) *Game {
	return &Game{
		ID:        "4a1e1c9e-0000-0000-0000-000000000001",
		Name:      "Snake",
		Type:      GameTypeSingleplayer,
		SortOrder: order,
	}
}

func TestApplyScoreFirstEntry(t *testing.T) {
	g := newTestGame(SortOrderDesc)

	updated := ApplyScore(g, "u1", "alice", 100)

	require.True(t, updated)
	require.Len(t, g.TopScores, 1)
	assert.Equal(t, "u1", g.TopScores[0].UserID)
	assert.Equal(t, "alice", g.TopScores[0].Username)
	assert.Equal(t, 100.0, g.TopScores[0].Score)
}

func TestApplyScoreReplacesOnlyWhenStrictlyBetter(t *testing.T) {
	g := newTestGame(SortOrderDesc)
	ApplyScore(g, "u1", "alice", 100)

	// Worse score: no change
	updated := ApplyScore(g, "u1", "alice", 50)
	assert.False(t, updated)
	assert.Equal(t, 100.0, g.TopScores[0].Score)

	// Tied score: no change
	updated = ApplyScore(g, "u1", "alice", 100)
	assert.False(t, updated)
	assert.Equal(t, 100.0, g.TopScores[0].Score)

	// Better score: replaced in place, still one entry per user
	updated = ApplyScore(g, "u1", "alice", 150)
	assert.True(t, updated)
	require.Len(t, g.TopScores, 1)
	assert.Equal(t, 150.0, g.TopScores[0].Score)
}

func TestApplyScoreAscendingOrder(t *testing.T) {
	g := newTestGame(SortOrderAsc)
	ApplyScore(g, "u1", "alice", 45.2)

	// A slower time is worse
	updated := ApplyScore(g, "u1", "alice", 60)
	assert.False(t, updated)

	// A faster time is better
	updated = ApplyScore(g, "u1", "alice", 30.5)
	assert.True(t, updated)
	assert.Equal(t, 30.5, g.TopScores[0].Score)
}

func TestApplyScoreSortsBestFirst(t *testing.T) {
	g := newTestGame(SortOrderDesc)
	ApplyScore(g, "u1", "alice", 100)
	ApplyScore(g, "u2", "bob", 300)
	ApplyScore(g, "u3", "carol", 200)

	require.Len(t, g.TopScores, 3)
	assert.Equal(t, "u2", g.TopScores[0].UserID)
	assert.Equal(t, "u3", g.TopScores[1].UserID)
	assert.Equal(t, "u1", g.TopScores[2].UserID)

	asc := newTestGame(SortOrderAsc)
	ApplyScore(asc, "u1", "alice", 100)
	ApplyScore(asc, "u2", "bob", 300)
	ApplyScore(asc, "u3", "carol", 200)

	assert.Equal(t, "u1", asc.TopScores[0].UserID)
	assert.Equal(t, "u3", asc.TopScores[1].UserID)
	assert.Equal(t, "u2", asc.TopScores[2].UserID)
}

func TestApplyScoreCapsAtTopScoreLimit(t *testing.T) {
	g := newTestGame(SortOrderDesc)
	for i := 0; i < TopScoreLimit; i++ {
		ApplyScore(g, fmt.Sprintf("u%d", i), fmt.Sprintf("player%d", i), float64(100*(i+1)))
	}
	require.Len(t, g.TopScores, TopScoreLimit)

	// A new player better than the current worst evicts them
	updated := ApplyScore(g, "newcomer", "dave", 150)
	assert.True(t, updated)
	require.Len(t, g.TopScores, TopScoreLimit)
	assert.Equal(t, "newcomer", g.TopScores[TopScoreLimit-1].UserID)

	for _, e := range g.TopScores {
		assert.NotEqual(t, "u0", e.UserID, "worst entry should have been evicted")
	}
}

func TestApplyScoreWorseThanFullBoard(t *testing.T) {
	g := newTestGame(SortOrderDesc)
	for i := 0; i < TopScoreLimit; i++ {
		ApplyScore(g, fmt.Sprintf("u%d", i), fmt.Sprintf("player%d", i), float64(100*(i+1)))
	}

	// A new player worse than everyone is appended then truncated away
	updated := ApplyScore(g, "newcomer", "dave", 1)
	assert.True(t, updated)
	require.Len(t, g.TopScores, TopScoreLimit)
	for _, e := range g.TopScores {
		assert.NotEqual(t, "newcomer", e.UserID)
	}
}

func TestApplyScoreOneEntryPerUser(t *testing.T) {
	g := newTestGame(SortOrderDesc)
	ApplyScore(g, "u1", "alice", 100)
	ApplyScore(g, "u2", "bob", 50)
	ApplyScore(g, "u1", "alice", 200)
	ApplyScore(g, "u1", "alice", 300)

	require.Len(t, g.TopScores, 2)
	seen := map[string]int{}
	for _, e := range g.TopScores {
		seen[e.UserID]++
	}
	assert.Equal(t, 1, seen["u1"])
	assert.Equal(t, 1, seen["u2"])
	assert.Equal(t, 300.0, g.TopScores[0].Score)
}

func TestPruneUser(t *testing.T) {
	g := newTestGame(SortOrderDesc)
	ApplyScore(g, "u1", "alice", 100)
	ApplyScore(g, "u2", "bob", 200)

	assert.True(t, PruneUser(g, "u2"))
	require.Len(t, g.TopScores, 1)
	assert.Equal(t, "u1", g.TopScores[0].UserID)

	// Pruning an absent user is a no-op
	assert.False(t, PruneUser(g, "ghost"))
	assert.Len(t, g.TopScores, 1)
}

func TestApplyPersonalBest(t *testing.T) {
	u := &User{ID: "u1", Username: "alice"}

	assert.True(t, ApplyPersonalBest(u, "g1", 100, SortOrderDesc))
	require.Len(t, u.GameScores, 1)
	assert.Equal(t, 100.0, u.GameScores[0].HighestScore)

	// Worse and tied scores change nothing
	assert.False(t, ApplyPersonalBest(u, "g1", 50, SortOrderDesc))
	assert.False(t, ApplyPersonalBest(u, "g1", 100, SortOrderDesc))
	assert.Equal(t, 100.0, u.GameScores[0].HighestScore)

	// Better score updates in place
	assert.True(t, ApplyPersonalBest(u, "g1", 250, SortOrderDesc))
	require.Len(t, u.GameScores, 1)
	assert.Equal(t, 250.0, u.GameScores[0].HighestScore)

	// A second game gets its own entry, with its own direction
	assert.True(t, ApplyPersonalBest(u, "g2", 45, SortOrderAsc))
	assert.True(t, ApplyPersonalBest(u, "g2", 30, SortOrderAsc))
	assert.False(t, ApplyPersonalBest(u, "g2", 60, SortOrderAsc))
	require.Len(t, u.GameScores, 2)
}

func TestCollapseBestPerUser(t *testing.T) {
	duplicated := func() []LeaderboardRow {
		return []LeaderboardRow{
			{UserID: "u1", Username: "alice", Score: 100},
			{UserID: "u2", Username: "bob", Score: 300},
			{UserID: "u1", Username: "alice", Score: 250},
		}
	}

	best := CollapseBestPerUser(duplicated(), SortOrderDesc)
	require.Len(t, best, 2)

	byUser := map[string]float64{}
	for _, r := range best {
		byUser[r.UserID] = r.Score
	}
	assert.Equal(t, 250.0, byUser["u1"])
	assert.Equal(t, 300.0, byUser["u2"])

	bestAsc := CollapseBestPerUser(duplicated(), SortOrderAsc)
	byUser = map[string]float64{}
	for _, r := range bestAsc {
		byUser[r.UserID] = r.Score
	}
	assert.Equal(t, 100.0, byUser["u1"])
}

func TestSortLeaderboard(t *testing.T) {
	rows := []LeaderboardRow{
		{UserID: "u1", Score: 100},
		{UserID: "u2", Score: 300},
		{UserID: "u3", Score: 200},
	}

	SortLeaderboard(rows, SortOrderDesc)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, "u1", rows[2].UserID)

	SortLeaderboard(rows, SortOrderAsc)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, "u2", rows[2].UserID)
}

func TestNormalizeGameType(t *testing.T) {
	tests := []struct {
		in   string
		want GameType
		ok   bool
	}{
		{"singleplayer", GameTypeSingleplayer, true},
		{"SINGLEPLAYER", GameTypeSingleplayer, true},
		{"multiPLAYER", GameTypeMultiplayer, true},
		{"Multiplayer", GameTypeMultiplayer, true},
		{"coop", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeGameType(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestSortOrderValid(t *testing.T) {
	assert.True(t, SortOrderDesc.Valid())
	assert.True(t, SortOrderAsc.Valid())
	assert.False(t, SortOrder("sideways").Valid())
	assert.False(t, SortOrder("").Valid())
}
