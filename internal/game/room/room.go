package room

import (
	"maps"
	"slices"
	"time"

	"github.com/palemoky/undercover/internal/game/vote"
	"github.com/palemoky/undercover/internal/game/words"
)

// Side 阵营
type Side string

const (
	SideNone        Side = ""
	SideCommoners   Side = "commoners"
	SideUndercovers Side = "undercovers"
)

// Player 房间中的玩家
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsHost       bool   `json:"is_host"`
	IsUndercover bool   `json:"is_undercover"`
	Eliminated   bool   `json:"eliminated"`
	HasVoted     bool   `json:"has_voted"`
	Wins         int    `json:"wins"`
	Score        int    `json:"score"`
}

// Room 游戏房间快照
// Votes[0] 始终是当前进行中的一轮，其余为历史轮次
type Room struct {
	ID              string            `json:"id"`
	HostID          string            `json:"host_id"`
	Players         map[string]Player `json:"players"`
	Order           []string          `json:"order"` // 加入顺序
	Started         bool              `json:"started"`
	Over            bool              `json:"over"`
	Round           int               `json:"round"`
	UndercoverCount int               `json:"undercover_count"`
	StartPlayer     string            `json:"start_player,omitempty"`
	Words           words.Pair        `json:"words"`
	Votes           []vote.Round      `json:"votes"`
	Winner          Side              `json:"winner,omitempty"`
	Message         string            `json:"message,omitempty"`
	UndercoverBonus map[string]int    `json:"undercover_bonus"`
	Graph           []vote.Link       `json:"graph,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func newRoom(id, hostID, hostName string, now time.Time) *Room {
	return &Room{
		ID:     id,
		HostID: hostID,
		Players: map[string]Player{
			hostID: {ID: hostID, Name: hostName, IsHost: true},
		},
		Order:           []string{hostID},
		Votes:           []vote.Round{{}},
		UndercoverBonus: map[string]int{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone 深拷贝，状态变更都在副本上进行
func (r *Room) Clone() *Room {
	c := *r
	c.Players = maps.Clone(r.Players)
	c.Order = slices.Clone(r.Order)
	c.UndercoverBonus = maps.Clone(r.UndercoverBonus)
	c.Graph = slices.Clone(r.Graph)
	c.Votes = make([]vote.Round, len(r.Votes))
	for i, round := range r.Votes {
		c.Votes[i] = maps.Clone(round)
	}
	return &c
}

// State 当前房间阶段
func (r *Room) State() RoomState {
	switch {
	case r.Started && r.Over:
		return RoomStateEnded
	case r.Started:
		return RoomStatePlaying
	default:
		return RoomStateWaiting
	}
}

// Active 游戏是否正在进行（可投票）
func (r *Room) Active() bool {
	return r.Started && !r.Over
}

// PlayerList 按加入顺序返回玩家
func (r *Room) PlayerList() []Player {
	list := make([]Player, 0, len(r.Order))
	for _, id := range r.Order {
		list = append(list, r.Players[id])
	}
	return list
}

// Members 按加入顺序返回玩家 ID
func (r *Room) Members() []string {
	return slices.Clone(r.Order)
}

// CurrentVotes 当前轮次的投票
func (r *Room) CurrentVotes() vote.Round {
	if len(r.Votes) == 0 {
		return vote.Round{}
	}
	return r.Votes[0]
}

// InGameCount 未被淘汰的玩家数
func (r *Room) InGameCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

// remaining 未被淘汰的平民数和卧底数
func (r *Room) remaining() (commoners, undercovers int) {
	for _, p := range r.Players {
		switch {
		case p.Eliminated:
		case p.IsUndercover:
			undercovers++
		default:
			commoners++
		}
	}
	return commoners, undercovers
}

// survivorNames 指定阵营存活玩家的昵称（按加入顺序）
func (r *Room) survivorNames(undercover bool) []string {
	var names []string
	for _, id := range r.Order {
		p := r.Players[id]
		if !p.Eliminated && p.IsUndercover == undercover {
			names = append(names, p.Name)
		}
	}
	return names
}

func (r *Room) update(fn func(p *Player)) {
	for id, p := range r.Players {
		fn(&p)
		r.Players[id] = p
	}
}
