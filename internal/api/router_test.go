package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codequest_admin/internal/app/service"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/domain/repository"
	"codequest_admin/internal/platform/logging"
	"codequest_admin/internal/platform/metrics"
	"codequest_admin/internal/platform/tokenstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "admin@codequest.io"
	testPassword = "arena-admin"
	testOrigin   = "http://localhost:5173"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithTokens(t, tokenstore.NewMemoryStore())
	return srv
}

func newTestServerWithTokens(t *testing.T, tokens tokenstore.Store) (*httptest.Server, *service.SessionManager) {
	t.Helper()
	hash, err := security.HashPassword(testPassword)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	repository.SeedDemoData(store, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	logger := logging.Discard()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	issuer := security.NewTokenIssuer([]byte("router-test"), time.Hour)
	sessions := service.NewSessionManager(func(string) repository.RoomStore { return store }, nil, m, logger)
	identity := service.NewLocalIdentity(testEmail, "Admin User", hash, tokens)
	auth := service.NewAuthService(identity, tokens, issuer, sessions, logger)

	srv := httptest.NewServer(NewRouter(issuer, auth, sessions, m, logger, []string{testOrigin}))
	t.Cleanup(srv.Close)
	return srv, sessions
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := call(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		service.LoginRequest{Email: testEmail, Password: testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out service.AuthResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Error
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := call(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv := newTestServer(t)

	resp, body := call(t, srv, http.MethodGet, "/api/v1/room", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authorization token required", errorMessage(t, body))

	resp, _ = call(t, srv, http.MethodGet, "/api/v1/room", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenStoreOutageKeepsSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	srv, _ := newTestServerWithTokens(t, tokenstore.NewRedisStore(rdb))
	token := login(t, srv)

	resp, body := call(t, srv, http.MethodPost, "/api/v1/rooms/demo-room/select", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	mr.SetError("LOADING Redis is loading the dataset in memory")
	resp, body = call(t, srv, http.MethodGet, "/api/v1/room", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotContains(t, errorMessage(t, body), "Session expired")

	mr.SetError("")
	resp, body = call(t, srv, http.MethodGet, "/api/v1/room", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.NotNil(t, snap.CurrentRoom, "the selected room survives the outage")
	assert.Equal(t, "demo-room", snap.CurrentRoom.ID)
}

func TestSessionsCarryTokenExpiry(t *testing.T) {
	srv, sessions := newTestServerWithTokens(t, tokenstore.NewMemoryStore())
	token := login(t, srv)
	require.Equal(t, 1, sessions.Len())
	assert.Empty(t, sessions.Expired(time.Now()))

	// a session dropped while its token is still valid is reopened by the
	// next request with that token's expiry
	require.Len(t, sessions.Expired(time.Now().Add(2*time.Hour)), 1)
	resp, body := call(t, srv, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Equal(t, 1, sessions.Len())
	assert.Empty(t, sessions.Expired(time.Now()))
	assert.Len(t, sessions.Expired(time.Now().Add(2*time.Hour)), 1)
	assert.Zero(t, sessions.Len())
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		body    interface{}
		status  int
		message string
	}{
		{"malformed", "{", http.StatusBadRequest, "Invalid request payload"},
		{"missing fields", map[string]string{}, http.StatusBadRequest, "email is required"},
		{"bad email", map[string]string{"email": "admin", "password": "x"}, http.StatusBadRequest, "email must be a valid email"},
		{"wrong password", map[string]string{"email": testEmail, "password": "nope"}, http.StatusUnauthorized, "invalid email or password"},
	}
	for _, tt := range tests {
		resp, body := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", tt.body)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)
		assert.Contains(t, errorMessage(t, body), tt.message, tt.name)
	}
}

func TestAdminFlow(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp, body := call(t, srv, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var admin model.Admin
	require.NoError(t, json.Unmarshal(body, &admin))
	assert.Equal(t, testEmail, admin.Email)

	resp, body = call(t, srv, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash struct {
		Stats model.AdminStats `json:"stats"`
		Rooms []model.Room     `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.Equal(t, 1, dash.Stats.LiveGames)
	require.Len(t, dash.Rooms, 1)

	resp, _ = call(t, srv, http.MethodPost, "/api/v1/room/pause", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/rooms/demo-room/select", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.NotNil(t, snap.CurrentRoom)
	assert.Len(t, snap.Teams, 5)

	resp, _ = call(t, srv, http.MethodPost, "/api/v1/room/start", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/pause", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, model.RoomPaused, snap.CurrentRoom.Status)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/teams/team-1/ban", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "reason is required", errorMessage(t, body))

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/teams/team-1/ban", token, map[string]string{"reason": "Sharing answers"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var team model.Team
	require.NoError(t, json.Unmarshal(body, &team))
	assert.Equal(t, model.TeamBanned, team.Status)

	resp, body = call(t, srv, http.MethodGet, "/api/v1/room/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []model.LeaderboardEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	assert.Len(t, entries, 3)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/unlock", token, map[string]string{"teamId": "team-2", "questionId": "q-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = call(t, srv, http.MethodPost, "/api/v1/room/trades/trade-1/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/trades/trade-2/cancel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trade model.Trade
	require.NoError(t, json.Unmarshal(body, &trade))
	assert.Equal(t, model.TradeCancelled, trade.Status)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/trading/toggle", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"tradingEnabled": false}`, string(body))

	resp, _ = call(t, srv, http.MethodPost, "/api/v1/room/questions", token, map[string]string{"title": "Late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestQuestionRoutes(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp, body := call(t, srv, http.MethodPost, "/api/v1/rooms", token, model.RoomConfig{Name: "Finals", StartingPoints: 200})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var room model.Room
	require.NoError(t, json.Unmarshal(body, &room))
	assert.Equal(t, model.RoomNotStarted, room.Status)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/questions", token, map[string]interface{}{"points": 10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "title is required", errorMessage(t, body))

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/questions", token, map[string]interface{}{"title": "Two Sum", "points": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var q model.Question
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Equal(t, 1, q.Order)

	resp, _ = call(t, srv, http.MethodPost, "/api/v1/room/questions", token, map[string]interface{}{"title": "Clash", "order": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = call(t, srv, http.MethodPatch, "/api/v1/room/questions/"+q.ID, token, map[string]interface{}{"points": 150})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Equal(t, 150, q.Points)
	assert.Equal(t, "Two Sum", q.Title)

	resp, _ = call(t, srv, http.MethodDelete, "/api/v1/room/questions/"+q.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = call(t, srv, http.MethodGet, "/api/v1/room/questions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = call(t, srv, http.MethodDelete, "/api/v1/rooms/"+room.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = call(t, srv, http.MethodGet, "/api/v1/room", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"currentRoom":null`)
}

func TestLeaderboardExports(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)
	resp, _ := call(t, srv, http.MethodPost, "/api/v1/rooms/demo-room/select", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, srv, http.MethodGet, "/api/v1/room/leaderboard/export.csv", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="leaderboard-demo-arena-`)
	assert.True(t, strings.HasPrefix(string(body), "Rank,Team Name,Points,Questions Solved\n1,SyntaxSurfers,610,5\n"))

	resp, body = call(t, srv, http.MethodGet, "/api/v1/room/leaderboard/chart.png", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	resp, _ = call(t, srv, http.MethodGet, "/api/v1/room/leaderboard/export.xlsx", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = call(t, srv, http.MethodPost, "/api/v1/room/leaderboard/freeze", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"leaderboardFrozen": true}`, string(body))
}

func TestLogoutEndsSession(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp, _ := call(t, srv, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, srv, http.MethodGet, "/api/v1/room", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Session expired, please log in again", errorMessage(t, body))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)
	call(t, srv, http.MethodPost, "/api/v1/room/start", token, nil)

	resp, body := call(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `codequest_admin_transitions_total{operation="start_game",result="rejected"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}
