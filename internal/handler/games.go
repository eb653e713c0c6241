package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/arcade-hub/internal/domain"
)

// CreateGame handles game registration
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.CreateGame(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, game)
}

// ListGames returns all games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.ListGames(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if games == nil {
		games = []domain.Game{}
	}
	h.writeJSON(w, http.StatusOK, games)
}

// GetGame returns a single game by id
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, game)
}

// UpdateGame applies a partial update to a game
func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req domain.UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.UpdateGame(r.Context(), gameID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game updated successfully",
		"game":    game,
	})
}

// DeleteGame removes a game
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.service.DeleteGame(r.Context(), gameID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Game deleted successfully"})
}

// scoreRequest is the score submission payload. The score is a pointer so
// a missing field is distinguishable from an explicit zero.
type scoreRequest struct {
	UserID string   `json:"userId"`
	Score  *float64 `json:"score"`
}

// SubmitScore handles score submission for a game
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrInvalidRequest)
		return
	}
	if req.Score == nil {
		h.writeError(w, domain.ErrInvalidRequest)
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		h.writeError(w, domain.ErrInvalidID)
		return
	}

	updated, game, err := h.service.SubmitScore(r.Context(), domain.ScoreSubmission{
		GameID: gameID,
		UserID: req.UserID,
		Score:  *req.Score,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	message := "Score updated successfully"
	if !updated {
		// A tied or worse score is accepted but changes nothing
		message = "New score is not an improvement, no update made"
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"updated": updated,
		"game":    game,
	})
}

// GetLeaderboard returns a game's leaderboard, best-to-worst
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	lb, err := h.service.GetLeaderboard(r.Context(), gameID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(lb.Leaderboard) == 0 {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":     "No scores available yet",
			"gameName":    lb.GameName,
			"leaderboard": lb.Leaderboard,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, lb)
}

// GetCachedTop returns the top N entries from the leaderboard mirror
func (h *Handler) GetCachedTop(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.service.GetCachedTop(r.Context(), gameID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"topScores": entries})
}
