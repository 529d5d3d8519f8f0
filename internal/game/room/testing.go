//go:build !production

package room

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// NewTestRoom 创建测试用的等待中房间，第一个 ID 为房主，玩家昵称与 ID 相同
func NewTestRoom(roomID string, ids ...string) *Room {
	r := newRoom(roomID, ids[0], ids[0], time.Now())
	for _, id := range ids[1:] {
		r.Players[id] = Player{ID: id, Name: id}
		r.Order = append(r.Order, id)
	}
	return r
}

// AddRoomForTest 直接写入房间并登记成员
func (rm *RoomManager) AddRoomForTest(r *Room) {
	for _, id := range r.Order {
		_ = rm.registry.Register(id, r.ID)
	}
	rm.rooms.Put(r.ID, r)
}

// MockRoomManager 房间管理器 mock
type MockRoomManager struct {
	mock.Mock
}

func roomArg(args mock.Arguments, i int) *Room {
	if r, ok := args.Get(i).(*Room); ok {
		return r
	}
	return nil
}

func (m *MockRoomManager) CreateRoom(roomID, hostID, hostName string) (*Room, error) {
	args := m.Called(roomID, hostID, hostName)
	return roomArg(args, 0), args.Error(1)
}

func (m *MockRoomManager) JoinRoom(roomID, identity, name string) (*Room, error) {
	args := m.Called(roomID, identity, name)
	return roomArg(args, 0), args.Error(1)
}

func (m *MockRoomManager) LeaveRoom(roomID, identity string) (*Room, bool, error) {
	args := m.Called(roomID, identity)
	return roomArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *MockRoomManager) KickPlayer(roomID, target, requester string) (*Room, bool, error) {
	args := m.Called(roomID, target, requester)
	return roomArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *MockRoomManager) StartGame(requester, roomID string, customWords *[2]string, undercoverCount int) (*Room, error) {
	args := m.Called(requester, roomID, customWords, undercoverCount)
	return roomArg(args, 0), args.Error(1)
}

func (m *MockRoomManager) SubmitVote(roomID, voterID, targetID string) (*Room, bool, error) {
	args := m.Called(roomID, voterID, targetID)
	return roomArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *MockRoomManager) GetRoom(roomID string) (*Room, bool) {
	args := m.Called(roomID)
	return roomArg(args, 0), args.Bool(1)
}

func (m *MockRoomManager) LookupRoom(identity string) (*Room, bool) {
	args := m.Called(identity)
	return roomArg(args, 0), args.Bool(1)
}

func (m *MockRoomManager) GetActiveGamesCount() int {
	args := m.Called()
	return args.Int(0)
}
