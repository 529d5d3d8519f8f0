package room

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/game/random"
	"github.com/palemoky/undercover/internal/game/store"
	"github.com/palemoky/undercover/internal/game/words"
	"github.com/palemoky/undercover/internal/server/storage"
)

// lockStripes 房间锁分片数，同一房间号总是落在同一把锁上
const lockStripes = 64

// Scoring 积分规则
type Scoring struct {
	SurvivalBonus      int // 卧底每存活一轮累积的积分
	CommonerWinBonus   int // 平民获胜时每名存活平民获得的积分
	UndercoverWinBonus int // 卧底获胜时每名卧底获得的积分
}

// DefaultScoring 默认积分规则
var DefaultScoring = Scoring{
	SurvivalBonus:      10,
	CommonerWinBonus:   10,
	UndercoverWinBonus: 25,
}

// Snapshotter 房间快照镜像（Redis）
type Snapshotter interface {
	SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// ResultRecorder 战绩记录（排行榜）
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, result storage.GameResult) error
}

// Options 房间管理器依赖，未设置的字段使用默认实现
type Options struct {
	Rooms     store.Store[*Room]
	Registry  store.Registry
	Random    random.Source
	Words     words.Source
	Scoring   Scoring
	Snapshots Snapshotter
	Results   ResultRecorder
	RoomTTL   time.Duration // 0 表示不清理
	Now       func() time.Time
}

// RoomManager 房间管理器
// 同一房间的命令串行执行，每次状态变更都在副本上完成后整体写回
type RoomManager struct {
	rooms     store.Store[*Room]
	registry  store.Registry
	rand      random.Source
	words     words.Source
	scoring   Scoring
	snapshots Snapshotter
	results   ResultRecorder
	roomTTL   time.Duration
	now       func() time.Time

	locks [lockStripes]sync.Mutex

	hooksMu  sync.RWMutex
	onEvict  func(room *Room)
	onUpdate func(u Update)
}

// Update 一次已提交的房间变更
type Update struct {
	Room       *Room  // 提交后的快照副本
	RoundEnded bool   // 本次变更结算了一轮
	Kicked     string // 被踢出的玩家
}

// NewRoomManager 创建房间管理器
func NewRoomManager(opts Options) *RoomManager {
	rm := &RoomManager{
		rooms:     opts.Rooms,
		registry:  opts.Registry,
		rand:      opts.Random,
		words:     opts.Words,
		scoring:   opts.Scoring,
		snapshots: opts.Snapshots,
		results:   opts.Results,
		roomTTL:   opts.RoomTTL,
		now:       opts.Now,
	}
	if rm.rooms == nil {
		rm.rooms = store.NewMemoryStore[*Room]()
	}
	if rm.registry == nil {
		rm.registry = store.NewMemoryRegistry()
	}
	if rm.rand == nil {
		rm.rand = random.New()
	}
	if rm.words == nil {
		rm.words = words.DefaultTable
	}
	if rm.scoring == (Scoring{}) {
		rm.scoring = DefaultScoring
	}
	if rm.now == nil {
		rm.now = time.Now
	}
	return rm
}

// lock 获取房间锁，返回解锁函数
func (rm *RoomManager) lock(roomID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	mu := &rm.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// commit 写回新状态并异步镜像到 Redis
func (rm *RoomManager) commit(r *Room) {
	r.UpdatedAt = rm.now()
	rm.rooms.Put(r.ID, r)

	if rm.snapshots == nil {
		return
	}
	data := r.ToRoomData()
	go func() {
		if err := rm.snapshots.SaveRoom(context.Background(), data.ID, data); err != nil {
			zap.L().Warn("保存房间快照失败", zap.String("room", data.ID), zap.Error(err))
		}
	}()
}

// drop 删除房间并注销所有成员
func (rm *RoomManager) drop(r *Room) {
	for _, id := range r.Order {
		rm.registry.Unregister(id)
	}
	rm.rooms.Delete(r.ID)

	if rm.snapshots == nil {
		return
	}
	roomID := r.ID
	go func() {
		if err := rm.snapshots.DeleteRoom(context.Background(), roomID); err != nil {
			zap.L().Warn("删除房间快照失败", zap.String("room", roomID), zap.Error(err))
		}
	}()
}

// GetRoom 获取房间快照
func (rm *RoomManager) GetRoom(roomID string) (*Room, bool) {
	r, ok := rm.rooms.Get(roomID)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// LookupRoom 查找身份所在的房间，用于断线重连
func (rm *RoomManager) LookupRoom(identity string) (*Room, bool) {
	roomID, ok := rm.registry.Lookup(identity)
	if !ok {
		return nil, false
	}
	return rm.GetRoom(roomID)
}

// ListRooms 按房间号排序返回所有房间
func (rm *RoomManager) ListRooms() []*Room {
	ids := rm.rooms.List()
	rooms := make([]*Room, 0, len(ids))
	for _, id := range ids {
		if r, ok := rm.GetRoom(id); ok {
			rooms = append(rooms, r)
		}
	}
	return rooms
}

// GetActiveGamesCount 获取进行中的游戏数量
func (rm *RoomManager) GetActiveGamesCount() int {
	count := 0
	for _, id := range rm.rooms.List() {
		if r, ok := rm.rooms.Get(id); ok && r.Active() {
			count++
		}
	}
	return count
}

// SetEvictHandler 设置房间超时清理回调
func (rm *RoomManager) SetEvictHandler(fn func(room *Room)) {
	rm.hooksMu.Lock()
	defer rm.hooksMu.Unlock()
	rm.onEvict = fn
}

// SetUpdateHandler 设置房间变更回调
// 回调在房间锁内按提交顺序执行，不能再调用管理器的写操作
func (rm *RoomManager) SetUpdateHandler(fn func(u Update)) {
	rm.hooksMu.Lock()
	defer rm.hooksMu.Unlock()
	rm.onUpdate = fn
}

// publish 交付已提交的变更，调用方持有房间锁
func (rm *RoomManager) publish(u Update) {
	rm.hooksMu.RLock()
	onUpdate := rm.onUpdate
	rm.hooksMu.RUnlock()

	if onUpdate == nil || len(u.Room.Order) == 0 {
		return
	}
	onUpdate(u)
}

// StartCleanup 启动房间清理协程，ctx 取消后退出
func (rm *RoomManager) StartCleanup(ctx context.Context, interval time.Duration) {
	if rm.roomTTL <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rm.EvictStale(now)
			}
		}
	}()
}

// EvictStale 清理最后活动时间早于 TTL 的房间，返回被清理的房间号
func (rm *RoomManager) EvictStale(now time.Time) []string {
	if rm.roomTTL <= 0 {
		return nil
	}

	rm.hooksMu.RLock()
	onEvict := rm.onEvict
	rm.hooksMu.RUnlock()

	var evicted []string
	for _, id := range rm.rooms.List() {
		unlock := rm.lock(id)
		r, ok := rm.rooms.Get(id)
		stale := ok && now.Sub(r.UpdatedAt) > rm.roomTTL
		if stale {
			rm.drop(r)
		}
		unlock()

		if !stale {
			continue
		}
		evicted = append(evicted, id)
		zap.L().Info("🧹 房间超时已清理", zap.String("room", id), zap.Int("players", len(r.Order)))
		if onEvict != nil {
			onEvict(r.Clone())
		}
	}
	return evicted
}
