package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-hub/internal/auth"
	"github.com/arcade-hub/internal/config"
	"github.com/arcade-hub/internal/domain"
	"github.com/arcade-hub/internal/service"
	"github.com/arcade-hub/internal/service/servicetest"
	"github.com/arcade-hub/internal/websocket"
)

type testServer struct {
	router http.Handler
	svc    *service.ArcadeService
	store  *servicetest.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := auth.NewService(&config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		BcryptCost:    4,
		ResetTokenTTL: time.Hour,
	})
	store := servicetest.NewStore()
	svc := service.NewArcadeService(store, servicetest.NewCache(), authSvc, &servicetest.Mailer{}, "http://localhost:5173/reset-password", logger)

	h := NewHandler(svc, websocket.NewHub(logger), logger)
	return &testServer{router: h.Router(), svc: svc, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *testServer) createGame(t *testing.T, name string) *domain.Game {
	t.Helper()
	game, err := s.svc.CreateGame(context.Background(), domain.CreateGameRequest{
		Name:     name,
		Type:     "singleplayer",
		Link:     "https://arcade.local/" + name,
		ImageURL: "https://arcade.local/" + name + ".png",
	})
	require.NoError(t, err)
	return game
}

func (s *testServer) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := s.svc.Register(context.Background(), domain.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Phone:    "555-0100",
		Password: "hunter2",
	})
	require.NoError(t, err)
	return user
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateGameEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/games", map[string]interface{}{
		"name":   "snake",
		"type":   "singleplayer",
		"link":   "https://arcade.local/snake",
		"imgUrl": "https://arcade.local/snake.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "snake", body["name"])
	assert.Equal(t, "desc", body["sortOrder"])
	assert.NotEmpty(t, body["id"])

	// Same name again conflicts
	rec = srv.do(t, http.MethodPost, "/api/games", map[string]interface{}{
		"name":   "snake",
		"type":   "singleplayer",
		"link":   "https://arcade.local/snake",
		"imgUrl": "https://arcade.local/snake.png",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", decodeBody(t, rec)["code"])
}

func TestCreateGameMissingFields(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/games", map[string]interface{}{"name": "incomplete"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeBody(t, rec)["code"])
}

func TestGetGameErrors(t *testing.T) {
	srv := newTestServer(t)

	// Malformed id never reaches the store
	rec := srv.do(t, http.MethodGet, "/api/games/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decodeBody(t, rec)["code"])

	// Well-formed but unknown id
	rec = srv.do(t, http.MethodGet, "/api/games/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["code"])
}

func TestSubmitScoreEndpoint(t *testing.T) {
	srv := newTestServer(t)
	game := srv.createGame(t, "snake")
	user := srv.createUser(t, "alice")

	scoreURL := fmt.Sprintf("/api/games/%s/scores", game.ID)

	rec := srv.do(t, http.MethodPost, scoreURL, map[string]interface{}{
		"userId": user.ID,
		"score":  100,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["updated"])
	assert.Equal(t, "Score updated successfully", body["message"])

	// A tied score is accepted but changes nothing
	rec = srv.do(t, http.MethodPost, scoreURL, map[string]interface{}{
		"userId": user.ID,
		"score":  100,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["updated"])
	assert.Equal(t, "New score is not an improvement, no update made", body["message"])
}

func TestSubmitScoreValidation(t *testing.T) {
	srv := newTestServer(t)
	game := srv.createGame(t, "snake")
	user := srv.createUser(t, "alice")

	scoreURL := fmt.Sprintf("/api/games/%s/scores", game.ID)

	// Missing score field
	rec := srv.do(t, http.MethodPost, scoreURL, map[string]interface{}{"userId": user.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed user id
	rec = srv.do(t, http.MethodPost, scoreURL, map[string]interface{}{
		"userId": "not-a-uuid",
		"score":  100,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decodeBody(t, rec)["code"])

	// Unknown user on a real game
	rec = srv.do(t, http.MethodPost, scoreURL, map[string]interface{}{
		"userId": uuid.NewString(),
		"score":  100,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLeaderboardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	game := srv.createGame(t, "snake")
	user := srv.createUser(t, "alice")

	lbURL := fmt.Sprintf("/api/games/%s/leaderboard", game.ID)

	// Empty board is a 200 with an explanatory message
	rec := srv.do(t, http.MethodGet, lbURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "No scores available yet", body["message"])

	_, _, err := srv.svc.SubmitScore(context.Background(), domain.ScoreSubmission{
		GameID: game.ID, UserID: user.ID, Score: 42,
	})
	require.NoError(t, err)

	rec = srv.do(t, http.MethodGet, lbURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "snake", body["gameName"])
	rows := body["leaderboard"].([]interface{})
	require.Len(t, rows, 1)
	entry := rows[0].(map[string]interface{})
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, 42.0, entry["score"])
}

func TestGetCachedTopEndpoint(t *testing.T) {
	srv := newTestServer(t)
	game := srv.createGame(t, "snake")
	user := srv.createUser(t, "alice")

	_, _, err := srv.svc.SubmitScore(context.Background(), domain.ScoreSubmission{
		GameID: game.ID, UserID: user.ID, Score: 42,
	})
	require.NoError(t, err)

	rec := srv.do(t, http.MethodGet, fmt.Sprintf("/api/games/%s/top?limit=5", game.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	entries := body["topScores"].([]interface{})
	require.Len(t, entries, 1)
}

func TestUpdateAndDeleteGameEndpoints(t *testing.T) {
	srv := newTestServer(t)
	game := srv.createGame(t, "snake")

	rec := srv.do(t, http.MethodPut, "/api/games/"+game.ID, map[string]interface{}{
		"name":      "snake-2",
		"sortOrder": "asc",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)["game"].(map[string]interface{})
	assert.Equal(t, "snake-2", updated["name"])
	assert.Equal(t, "asc", updated["sortOrder"])

	// Empty update body is rejected
	rec = srv.do(t, http.MethodPut, "/api/games/"+game.ID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/games/"+game.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/games/"+game.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/users/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"phone":    "555-0100",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, rec.Body.String(), "hunter2")

	rec = srv.do(t, http.MethodPost, "/api/users/login", map[string]interface{}{
		"username": "alice",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])

	rec = srv.do(t, http.MethodPost, "/api/users/login", map[string]interface{}{
		"username": "alice",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, rec)["code"])
}

func TestRegisterDuplicateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.createUser(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/users/register", map[string]interface{}{
		"username": "alice",
		"email":    "elsewhere@example.com",
		"phone":    "555-0101",
		"password": "pw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", decodeBody(t, rec)["code"])
}

func TestPasswordResetEndpoints(t *testing.T) {
	srv := newTestServer(t)
	user := srv.createUser(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/users/forgot-password", map[string]interface{}{
		"email": user.Email,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	srv.store.Mu.Lock()
	var token string
	for tok := range srv.store.ResetTokens {
		token = tok
	}
	srv.store.Mu.Unlock()
	require.NotEmpty(t, token)

	rec = srv.do(t, http.MethodPost, "/api/users/reset-password", map[string]interface{}{
		"token":       token,
		"newPassword": "new-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// A bogus token is rejected
	rec = srv.do(t, http.MethodPost, "/api/users/reset-password", map[string]interface{}{
		"token":       "bogus",
		"newPassword": "whatever",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["code"])
}

func TestDeleteUserEndpoint(t *testing.T) {
	srv := newTestServer(t)
	game := srv.createGame(t, "snake")
	user := srv.createUser(t, "alice")

	_, _, err := srv.svc.SubmitScore(context.Background(), domain.ScoreSubmission{
		GameID: game.ID, UserID: user.ID, Score: 100,
	})
	require.NoError(t, err)

	rec := srv.do(t, http.MethodDelete, "/api/users/"+user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/users/"+user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Their leaderboard entry went with them
	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/games/%s/leaderboard", game.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No scores available yet", decodeBody(t, rec)["message"])
}

func TestListEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// Empty lists serialize as [], not null
	rec := srv.do(t, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = srv.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(bytes.TrimSpace(rec.Body.Bytes())))

	srv.createGame(t, "snake")
	srv.createUser(t, "alice")

	rec = srv.do(t, http.MethodGet, "/api/games", nil)
	var games []domain.Game
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	assert.Len(t, games, 1)

	rec = srv.do(t, http.MethodGet, "/api/users", nil)
	var users []domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestCORSPreflights(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/games", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
