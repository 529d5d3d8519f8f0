package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	playerStatsKey   = "player:stats:"
	leaderboardKey   = "leaderboard:score"
	dailyLeaderboard = "leaderboard:daily:"
)

// GameResult 一名玩家的一局结果
type GameResult struct {
	PlayerID     string
	PlayerName   string
	IsUndercover bool
	IsWinner     bool
	ScoreDelta   int // 本局获得的积分
}

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`

	// 卧底/平民分开统计
	UndercoverGames int `json:"undercover_games"`
	UndercoverWins  int `json:"undercover_wins"`
	CommonerGames   int `json:"commoner_games"`
	CommonerWins    int `json:"commoner_wins"`

	Score int `json:"score"`

	// 正数为连胜，负数为连败
	CurrentStreak int `json:"current_streak"`
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client}
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats %s: %w", playerID, err)
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lm *LeaderboardManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}

// updateRoleStats 更新角色相关统计
func updateRoleStats(stats *PlayerStats, isUndercover, isWinner bool) {
	if isUndercover {
		stats.UndercoverGames++
		if isWinner {
			stats.UndercoverWins++
		}
		return
	}
	stats.CommonerGames++
	if isWinner {
		stats.CommonerWins++
	}
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

// RecordGameResult 记录一局结果并更新排行榜
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, result GameResult) error {
	stats, err := lm.GetPlayerStats(ctx, result.PlayerID)
	if err != nil {
		return err
	}
	now := time.Now()
	if stats == nil {
		stats = &PlayerStats{PlayerID: result.PlayerID, CreatedAt: now.Unix()}
	}

	stats.PlayerName = result.PlayerName
	stats.TotalGames++
	stats.LastPlayedAt = now.Unix()
	updateRoleStats(stats, result.IsUndercover, result.IsWinner)
	updateWinLossStats(stats, result.IsWinner)
	stats.Score += result.ScoreDelta

	if err := lm.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.updateLeaderboard(ctx, stats, now)
}

func (lm *LeaderboardManager) updateLeaderboard(ctx context.Context, stats *PlayerStats, now time.Time) error {
	member := redis.Z{Score: float64(stats.Score), Member: stats.PlayerID}
	if err := lm.redis.ZAdd(ctx, leaderboardKey, member).Err(); err != nil {
		return err
	}

	dailyKey := dailyLeaderboard + now.Format("2006-01-02")
	if err := lm.redis.ZAdd(ctx, dailyKey, member).Err(); err != nil {
		return err
	}
	// 保留两天
	return lm.redis.Expire(ctx, dailyKey, 48*time.Hour).Err()
}

// GetLeaderboard 获取总排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	results, err := lm.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}

		stats, err := lm.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}

		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    winRate,
		})
	}

	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
