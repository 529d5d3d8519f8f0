package room

import (
	"github.com/palemoky/undercover/internal/server/storage"
)

// ToRoomData 将 Room 转换为可序列化的 RoomData，玩家按加入顺序排列
func (r *Room) ToRoomData() *storage.RoomData {
	data := &storage.RoomData{
		ID:              r.ID,
		HostID:          r.HostID,
		State:           int(r.State()),
		Round:           r.Round,
		UndercoverCount: r.UndercoverCount,
		Players:         make([]storage.PlayerData, 0, len(r.Order)),
		Votes:           make([]map[string]string, 0, len(r.Votes)),
		Message:         r.Message,
		CreatedAt:       r.CreatedAt.Unix(),
		UpdatedAt:       r.UpdatedAt.Unix(),
	}

	for _, p := range r.PlayerList() {
		data.Players = append(data.Players, storage.PlayerData{
			ID:           p.ID,
			Name:         p.Name,
			IsHost:       p.IsHost,
			IsUndercover: p.IsUndercover,
			Eliminated:   p.Eliminated,
			Wins:         p.Wins,
			Score:        p.Score,
		})
	}
	for _, round := range r.Votes {
		data.Votes = append(data.Votes, map[string]string(round))
	}

	return data
}
