package room

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/apperrors"
	"github.com/palemoky/undercover/internal/game/random"
	"github.com/palemoky/undercover/internal/game/vote"
	"github.com/palemoky/undercover/internal/game/words"
)

// CreateRoom 创建房间，创建者成为房主
func (rm *RoomManager) CreateRoom(roomID, hostID, hostName string) (*Room, error) {
	roomID, err := validateRoomID(roomID)
	if err != nil {
		return nil, err
	}
	hostName, err = validateName(hostName)
	if err != nil {
		return nil, err
	}

	unlock := rm.lock(roomID)
	defer unlock()

	if _, exists := rm.rooms.Get(roomID); exists {
		return nil, apperrors.ErrDuplicateRoom
	}
	if err := rm.registry.Register(hostID, roomID); err != nil {
		return nil, err
	}

	r := newRoom(roomID, hostID, hostName, rm.now())
	rm.commit(r)
	rm.publish(Update{Room: r.Clone()})

	zap.L().Info("🏠 房间已创建", zap.String("room", roomID), zap.String("host", hostID))
	return r.Clone(), nil
}

// JoinRoom 加入房间，游戏开始后不能加入
func (rm *RoomManager) JoinRoom(roomID, identity, name string) (*Room, error) {
	roomID = strings.TrimSpace(roomID)
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	unlock := rm.lock(roomID)
	defer unlock()

	current, exists := rm.rooms.Get(roomID)
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}
	if current.Started {
		return nil, apperrors.ErrGameStarted
	}
	if _, joined := current.Players[identity]; joined {
		return nil, apperrors.ErrIdentityInRoom
	}
	if err := rm.registry.Register(identity, roomID); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Players[identity] = Player{ID: identity, Name: name}
	next.Order = append(next.Order, identity)
	rm.commit(next)
	rm.publish(Update{Room: next.Clone()})

	zap.L().Info("👤 玩家加入房间", zap.String("room", roomID), zap.String("player", identity))
	return next.Clone(), nil
}

// LeaveRoom 玩家离开房间
// 第二个返回值表示离开导致当前轮次结算
func (rm *RoomManager) LeaveRoom(roomID, identity string) (*Room, bool, error) {
	roomID = strings.TrimSpace(roomID)
	unlock := rm.lock(roomID)
	defer unlock()

	current, exists := rm.rooms.Get(roomID)
	if !exists {
		return nil, false, apperrors.ErrRoomNotFound
	}
	if _, ok := current.Players[identity]; !ok {
		return nil, false, apperrors.ErrPlayerNotFound
	}

	next, roundEnded := rm.remove(current, identity, "left")
	rm.publish(Update{Room: next.Clone(), RoundEnded: roundEnded})
	zap.L().Info("👋 玩家离开房间", zap.String("room", roomID), zap.String("player", identity))
	return next, roundEnded, nil
}

// KickPlayer 房主踢出玩家
func (rm *RoomManager) KickPlayer(roomID, target, requester string) (*Room, bool, error) {
	roomID = strings.TrimSpace(roomID)
	unlock := rm.lock(roomID)
	defer unlock()

	current, exists := rm.rooms.Get(roomID)
	if !exists {
		return nil, false, apperrors.ErrRoomNotFound
	}
	if requester != current.HostID {
		return nil, false, apperrors.ErrNotHost
	}
	if target == current.HostID {
		return nil, false, apperrors.ErrCannotKickHost
	}
	if _, ok := current.Players[target]; !ok {
		return nil, false, apperrors.ErrPlayerNotFound
	}

	next, roundEnded := rm.remove(current, target, "was kicked")
	rm.publish(Update{Room: next.Clone(), RoundEnded: roundEnded, Kicked: target})
	zap.L().Info("🦶 玩家被踢出房间", zap.String("room", roomID), zap.String("player", target))
	return next, roundEnded, nil
}

// remove 移除玩家并注销身份，调用方持有房间锁
func (rm *RoomManager) remove(current *Room, identity, verb string) (*Room, bool) {
	next := current.Clone()
	leaving := next.Players[identity]
	delete(next.Players, identity)
	next.Order = slices.DeleteFunc(next.Order, func(id string) bool { return id == identity })
	delete(next.UndercoverBonus, identity)
	rm.registry.Unregister(identity)

	if len(next.Order) == 0 {
		rm.drop(next)
		zap.L().Info("🏠 房间已解散", zap.String("room", next.ID))
		return next, false
	}

	// 房主离开时由最早加入的玩家接任
	if leaving.IsHost {
		heir := next.Players[next.Order[0]]
		heir.IsHost = true
		next.Players[heir.ID] = heir
		next.HostID = heir.ID
	}

	roundEnded := false
	if next.Active() {
		roundEnded = rm.settle(next, leaving, verb)
	}
	rm.commit(next)

	if next.Over && !current.Over {
		rm.recordResults(current, next)
	}
	return next.Clone(), roundEnded
}

// StartGame 房主开始游戏
// customWords 为空时从词库随机选取
func (rm *RoomManager) StartGame(requester, roomID string, customWords *[2]string, undercoverCount int) (*Room, error) {
	roomID = strings.TrimSpace(roomID)
	unlock := rm.lock(roomID)
	defer unlock()

	current, exists := rm.rooms.Get(roomID)
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}
	if requester != current.HostID {
		return nil, apperrors.ErrNotHost
	}
	if current.Active() {
		return nil, apperrors.ErrGameStarted
	}

	players := len(current.Players)
	if players < minPlayers {
		return nil, apperrors.ErrNotEnoughPlayers
	}

	var wordA, wordB string
	if customWords != nil {
		var err error
		if wordA, wordB, err = validateWords(customWords); err != nil {
			return nil, err
		}
	}
	if undercoverCount < 1 || undercoverCount > MaxUndercover(players) {
		return nil, apperrors.ErrInvalidUndercoverCount
	}

	next := current.Clone()

	// 完整洗牌后取前 k 名作为卧底
	undercovers := make(map[string]bool, undercoverCount)
	for _, id := range random.Shuffle(rm.rand, next.Order)[:undercoverCount] {
		undercovers[id] = true
	}
	next.update(func(p *Player) {
		p.IsUndercover = undercovers[p.ID]
		p.Eliminated = false
		p.HasVoted = false
	})

	if customWords != nil {
		next.Words = words.Orient(rm.rand, wordA, wordB)
	} else {
		next.Words = rm.words.Pick(rm.rand)
	}

	next.StartPlayer = random.Shuffle(rm.rand, next.Order)[0]
	next.Message = fmt.Sprintf("The game has started! %s goes first.", next.Players[next.StartPlayer].Name)
	next.Started = true
	next.Over = false
	next.Winner = SideNone
	next.Round = 0
	next.UndercoverCount = undercoverCount
	next.UndercoverBonus = map[string]int{}
	next.Votes = []vote.Round{{}}
	next.Graph = nil
	rm.commit(next)
	rm.publish(Update{Room: next.Clone()})

	zap.L().Info("🎮 游戏开始",
		zap.String("room", roomID),
		zap.Int("players", players),
		zap.Int("undercovers", undercoverCount),
	)
	return next.Clone(), nil
}
