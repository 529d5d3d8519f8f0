//go:build !production

package testutil

import (
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/undercover/internal/protocol"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsShuttingDown() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) SendToPlayers(ids []string, msg *protocol.Message) {
	m.Called(ids, msg)
}

// RecordingServer 记录每名玩家收到的消息
type RecordingServer struct {
	ShuttingDown bool

	mu    sync.Mutex
	inbox map[string][]*protocol.Message
}

// NewRecordingServer 创建记录服务器
func NewRecordingServer() *RecordingServer {
	return &RecordingServer{inbox: make(map[string][]*protocol.Message)}
}

func (s *RecordingServer) IsShuttingDown() bool { return s.ShuttingDown }

func (s *RecordingServer) GetOnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inbox)
}

func (s *RecordingServer) SendToPlayers(ids []string, msg *protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.inbox[id] = append(s.inbox[id], msg)
	}
}

// Received 指定玩家收到的消息类型（按顺序）
func (s *RecordingServer) Received(id string) []protocol.MessageType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []protocol.MessageType
	for _, msg := range s.inbox[id] {
		types = append(types, msg.Type)
	}
	return types
}

// Messages 指定玩家收到的消息（按顺序）
func (s *RecordingServer) Messages(id string) []*protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.inbox[id])
}

// LastTo 指定玩家收到的最后一条消息
func (s *RecordingServer) LastTo(id string) *protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.inbox[id]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}
