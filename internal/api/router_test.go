package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/services/tetris"
)

const testSecret = "test-secret"

type testServer struct {
	handler http.Handler
	sm      *tetris.SessionManager
	repo    database.ResultRepository
}

func newTestServer() *testServer {
	return newTestServerWithRules(tetris.DefaultRules())
}

func newTestServerWithRules(rules tetris.Rules) *testServer {
	repo := database.NewMemoryResultRepository()
	sm := tetris.NewSessionManager(rules, 0, repo)
	return &testServer{
		handler: NewRouter(RouterConfig{
			SessionManager: sm,
			ResultRepo:     repo,
			JWTSecret:      testSecret,
			AllowedOrigins: []string{"http://localhost:3000"},
		}),
		sm:   sm,
		repo: repo,
	}
}

func (s *testServer) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, sub, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestPublicEndpoint(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodGet, "/api/public", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "public content")
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/sessions", `{"start_level": 3}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		SessionID string          `json:"session_id"`
		PlayerID  string          `json:"player_id"`
		Snapshot  tetris.Snapshot `json:"snapshot"`
	}
	decode(t, rec, &created)
	assert.NotEmpty(t, created.SessionID)
	assert.True(t, strings.HasPrefix(created.PlayerID, "guest-"))
	assert.Equal(t, 3, created.Snapshot.Level)
	assert.NotEmpty(t, rec.Header().Get("X-Guest-ID"))

	path := "/api/sessions/" + created.SessionID
	rec = s.do(http.MethodPost, path+"/input", `{"type":"key_down","action":"move_left"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(http.MethodPost, path+"/input", `{"type":"key_down","action":"hard_drop"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.sm.Step()

	rec = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap tetris.Snapshot
	decode(t, rec, &snap)
	require.NotNil(t, snap.CurrentPiece)
	assert.Equal(t, 3, snap.CurrentPiece.X)
	assert.Len(t, snap.Board, tetris.DefaultRules().Rows)

	rec = s.do(http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, path+"/input", `{"type":"key_down","action":"pause"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSession_UsesConfiguredStartLevel(t *testing.T) {
	rules := tetris.DefaultRules()
	rules.StartLevel = 10
	s := newTestServerWithRules(rules)

	for _, body := range []string{"", "{}"} {
		rec := s.do(http.MethodPost, "/api/sessions", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created struct {
			Snapshot tetris.Snapshot `json:"snapshot"`
		}
		decode(t, rec, &created)
		assert.Equal(t, 10, created.Snapshot.Level, "body %q", body)
	}

	rec := s.do(http.MethodPost, "/api/sessions", `{"start_level": 0}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Snapshot tetris.Snapshot `json:"snapshot"`
	}
	decode(t, rec, &created)
	assert.Equal(t, 0, created.Snapshot.Level)
}

func TestCreateSession_WithToken(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/sessions", "", map[string]string{
		"Authorization": "Bearer " + signToken(t, "user-42", testSecret),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, "user-42", created["player_id"])

	rec = s.do(http.MethodPost, "/api/sessions", "", map[string]string{
		"Authorization": "Bearer " + signToken(t, "user-42", "wrong-secret"),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/sessions", "", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuestIDIsReused(t *testing.T) {
	s := newTestServer()
	guest := "3f1c1c3e-8d4b-4a57-9b7c-6a1f7a0e2d11"

	rec := s.do(http.MethodPost, "/api/sessions", "{}", map[string]string{"X-Guest-ID": guest})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, "guest-"+guest, created["player_id"])
}

func TestResultsEndpoints(t *testing.T) {
	s := newTestServer()
	_, err := s.repo.CreateResult(nil, "alice", 1200, 10, 1)
	require.NoError(t, err)
	_, err = s.repo.CreateResult(nil, "bob", 300, 3, 0)
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/results?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var top struct {
		Success bool `json:"success"`
		Results []struct {
			UserID string `json:"user_id"`
			Score  int    `json:"score"`
			Rank   int    `json:"rank"`
		} `json:"results"`
	}
	decode(t, rec, &top)
	assert.True(t, top.Success)
	require.Len(t, top.Results, 1)
	assert.Equal(t, "alice", top.Results[0].UserID)
	assert.Equal(t, 1, top.Results[0].Rank)

	rec = s.do(http.MethodGet, "/api/results/user/bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user struct {
		Result *struct {
			Rank int `json:"rank"`
		} `json:"result"`
	}
	decode(t, rec, &user)
	require.NotNil(t, user.Result)
	assert.Equal(t, 2, user.Result.Rank)

	rec = s.do(http.MethodGet, "/api/results/user/nobody", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":null`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodOptions, "/api/sessions", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(http.MethodOptions, "/api/sessions", "", map[string]string{
		"Origin":                        "http://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_UnknownSession(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodGet, "/api/ws/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocket_StreamsFrames(t *testing.T) {
	s := newTestServer()
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	id, err := s.sm.CreateSession("player-1", nil)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var frame tetris.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, id, frame.Snapshot.SessionID)
	assert.Empty(t, frame.Events)

	s.sm.Step()
	require.NoError(t, conn.ReadJSON(&frame))
	require.Len(t, frame.Events, 1)
	assert.Equal(t, tetris.EventPieceSpawned, frame.Events[0].Type)
}
