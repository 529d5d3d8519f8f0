package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/undercover/internal/game/random"
	"github.com/palemoky/undercover/internal/game/room"
	"github.com/palemoky/undercover/internal/game/vote"
	"github.com/palemoky/undercover/internal/server/storage"
	"github.com/palemoky/undercover/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, lb LeaderboardReader) (*gin.Engine, *room.RoomManager) {
	t.Helper()
	rm := room.NewRoomManager(room.Options{Random: random.NewSeeded(1, 2)})
	r := gin.New()
	deps := Deps{Rooms: rm, Online: func() int { return 3 }, Origins: []string{"*"}}
	if lb != nil {
		deps.Leaderboard = lb
	}
	RegisterRoutes(r, deps)
	return r, rm
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "http://frontend.test")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func startedGame(t *testing.T, rm *room.RoomManager) {
	t.Helper()
	_, err := rm.CreateRoom("r1", "host", "Host")
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := rm.JoinRoom("r1", id, id)
		require.NoError(t, err)
	}
	_, err = rm.StartGame("host", "r1", nil, 1)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	r, rm := newTestRouter(t, nil)
	startedGame(t, rm)

	w := get(t, r, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["online"])
	assert.EqualValues(t, 1, body["rooms"])
	assert.EqualValues(t, 1, body["active_games"])
}

func TestGetRoom(t *testing.T) {
	t.Parallel()
	r, rm := newTestRouter(t, nil)
	startedGame(t, rm)

	w := get(t, r, "/api/rooms/r1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var got room.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "r1", got.ID)
	assert.True(t, got.Started)
	assert.Len(t, got.Players, 4)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/rooms/missing").Code)
}

func TestGetGraph(t *testing.T) {
	t.Parallel()
	r, rm := newTestRouter(t, nil)
	startedGame(t, rm)

	_, _, err := rm.SubmitVote("r1", "p1", "p2")
	require.NoError(t, err)
	_, _, err = rm.SubmitVote("r1", "p2", "p1")
	require.NoError(t, err)

	w := get(t, r, "/api/rooms/r1/graph")
	require.Equal(t, http.StatusOK, w.Code)

	var got GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "r1", got.RoomID)
	assert.Equal(t, []vote.Link{
		{Source: "p1", Target: "p2", Weight: 1},
		{Source: "p2", Target: "p1", Weight: 1},
	}, got.Links)
	assert.Equal(t, []string{"p1", "p2"}, got.IDs)
	assert.Equal(t, [][]int{{0, 1}, {1, 0}}, got.Matrix)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/rooms/missing/graph").Code)
}

func TestLeaderboard_Disabled(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/api/leaderboard").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/api/players/p1/stats").Code)
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	entries := []storage.LeaderboardEntry{
		{Rank: 1, PlayerID: "p1", PlayerName: "Alice", Score: 50, Wins: 3, WinRate: 75},
	}

	tests := []struct {
		name     string
		query    string
		limit    int
		result   []storage.LeaderboardEntry
		err      error
		wantCode int
		wantLen  int
	}{
		{name: "default limit", query: "", limit: defaultLeaderboardLimit, result: entries, wantCode: http.StatusOK, wantLen: 1},
		{name: "custom limit", query: "?limit=5", limit: 5, result: entries, wantCode: http.StatusOK, wantLen: 1},
		{name: "capped limit", query: "?limit=1000", limit: maxLeaderboardLimit, result: nil, wantCode: http.StatusOK, wantLen: 0},
		{name: "invalid limit", query: "?limit=abc", wantCode: http.StatusBadRequest},
		{name: "storage error", query: "", limit: defaultLeaderboardLimit, err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lb := new(testutil.MockLeaderboard)
			if tt.limit > 0 {
				lb.On("GetLeaderboard", mock.Anything, tt.limit).Return(tt.result, tt.err)
			}
			r, _ := newTestRouter(t, lb)

			w := get(t, r, "/api/leaderboard"+tt.query)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				var got []storage.LeaderboardEntry
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Len(t, got, tt.wantLen)
			}
			lb.AssertExpectations(t)
		})
	}
}

func TestPlayerStats(t *testing.T) {
	t.Parallel()

	lb := new(testutil.MockLeaderboard)
	lb.On("GetPlayerStats", mock.Anything, "p1").Return(&storage.PlayerStats{PlayerID: "p1", Score: 35, Wins: 2}, nil)
	lb.On("GetPlayerRank", mock.Anything, "p1").Return(int64(4), nil)
	lb.On("GetPlayerStats", mock.Anything, "ghost").Return(nil, nil)
	r, _ := newTestRouter(t, lb)

	w := get(t, r, "/api/players/p1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "p1", got["player_id"])
	assert.EqualValues(t, 35, got["score"])
	assert.EqualValues(t, 4, got["rank"])

	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/players/ghost/stats").Code)
	lb.AssertExpectations(t)
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	t.Parallel()
	rm := room.NewRoomManager(room.Options{})
	r := gin.New()
	RegisterRoutes(r, Deps{Rooms: rm, Origins: []string{"http://allowed.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/x", nil)
	req.Header.Set("Origin", "http://allowed.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://allowed.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/rooms/x", nil)
	req.Header.Set("Origin", "http://evil.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
