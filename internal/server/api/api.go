// Package api 只读 HTTP 接口：健康检查、房间快照、投票关系图与排行榜
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/game/room"
	"github.com/palemoky/undercover/internal/game/vote"
	"github.com/palemoky/undercover/internal/server/storage"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	requestTimeout          = 3 * time.Second
)

// RoomReader 房间查询
type RoomReader interface {
	GetRoom(roomID string) (*room.Room, bool)
	ListRooms() []*room.Room
	GetActiveGamesCount() int
}

// LeaderboardReader 排行榜查询
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerID string) (int64, error)
}

// Deps 接口依赖，Leaderboard 为 nil 时排行榜接口返回 503
type Deps struct {
	Rooms       RoomReader
	Leaderboard LeaderboardReader
	Online      func() int
	Origins     []string
}

// GraphResponse 投票关系图
type GraphResponse struct {
	RoomID string      `json:"room_id"`
	Round  int         `json:"round"`
	Links  []vote.Link `json:"links"`
	IDs    []string    `json:"ids"`
	Matrix [][]int     `json:"matrix"`
}

// PlayerStatsResponse 玩家战绩
type PlayerStatsResponse struct {
	*storage.PlayerStats
	Rank int64 `json:"rank"`
}

type routes struct {
	Deps
}

// RegisterRoutes 注册路由
func RegisterRoutes(r gin.IRouter, deps Deps) {
	h := &routes{Deps: deps}

	r.GET("/health", h.health)

	g := r.Group("/api")
	g.Use(corsMiddleware(deps.Origins))
	g.GET("/rooms/:id", h.getRoom)
	g.GET("/rooms/:id/graph", h.getGraph)
	g.GET("/leaderboard", h.getLeaderboard)
	g.GET("/players/:id/stats", h.getPlayerStats)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Origin"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func (h *routes) health(c *gin.Context) {
	online := 0
	if h.Online != nil {
		online = h.Online()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"online":       online,
		"rooms":        len(h.Rooms.ListRooms()),
		"active_games": h.Rooms.GetActiveGamesCount(),
	})
}

func (h *routes) getRoom(c *gin.Context) {
	r, ok := h.Rooms.GetRoom(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *routes) getGraph(c *gin.Context) {
	r, ok := h.Rooms.GetRoom(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	ids, matrix := vote.Matrix(r.Votes)
	c.JSON(http.StatusOK, GraphResponse{
		RoomID: r.ID,
		Round:  r.Round,
		Links:  vote.Links(r.Votes),
		IDs:    ids,
		Matrix: matrix,
	})
}

func (h *routes) getLeaderboard(c *gin.Context) {
	if h.Leaderboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard disabled"})
		return
	}

	limit := defaultLeaderboardLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	entries, err := h.Leaderboard.GetLeaderboard(ctx, limit)
	if err != nil {
		zap.L().Error("获取排行榜失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if entries == nil {
		entries = []storage.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *routes) getPlayerStats(c *gin.Context) {
	if h.Leaderboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	stats, err := h.Leaderboard.GetPlayerStats(ctx, id)
	if err != nil {
		zap.L().Error("获取玩家战绩失败", zap.String("player", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	rank, err := h.Leaderboard.GetPlayerRank(ctx, id)
	if err != nil {
		zap.L().Warn("获取玩家排名失败", zap.String("player", id), zap.Error(err))
		rank = -1
	}
	c.JSON(http.StatusOK, PlayerStatsResponse{PlayerStats: stats, Rank: rank})
}
