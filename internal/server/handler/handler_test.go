package handler

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/undercover/internal/apperrors"
	"github.com/palemoky/undercover/internal/game/random"
	"github.com/palemoky/undercover/internal/game/room"
	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
	"github.com/palemoky/undercover/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *room.RoomManager, *testutil.RecordingServer) {
	t.Helper()
	rm := room.NewRoomManager(room.Options{Random: random.NewSeeded(7, 7)})
	srv := testutil.NewRecordingServer()
	h := NewHandler(HandlerDeps{Server: srv, Rooms: rm})
	rm.SetUpdateHandler(h.OnRoomUpdate)
	return h, rm, srv
}

func send(h *Handler, c *testutil.SimpleClient, msgType protocol.MessageType, payload any) {
	h.Handle(c, codec.MustNewMessage(msgType, payload))
}

func errorCode(t *testing.T, msg *protocol.Message) int {
	t.Helper()
	require.NotNil(t, msg)
	require.Equal(t, protocol.MsgError, msg.Type)
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	return payload.Code
}

func TestHandler_UnknownMessage(t *testing.T) {
	t.Parallel()
	h, _, _ := newTestHandler(t)
	c := &testutil.SimpleClient{ID: "a"}

	h.Handle(c, &protocol.Message{Type: "dance"})
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errorCode(t, c.Last()))
}

func TestHandler_Ping(t *testing.T) {
	t.Parallel()
	h, _, _ := newTestHandler(t)
	c := &testutil.SimpleClient{ID: "a"}

	send(h, c, protocol.MsgPing, protocol.PingPayload{Timestamp: 123})
	require.NotNil(t, c.Last())
	assert.Equal(t, protocol.MsgPong, c.Last().Type)

	pong, err := codec.ParsePayload[protocol.PongPayload](c.Last())
	require.NoError(t, err)
	assert.Equal(t, int64(123), pong.ClientTimestamp)
	assert.Positive(t, pong.ServerTimestamp)
}

func TestHandler_RoomFlow(t *testing.T) {
	t.Parallel()
	h, rm, srv := newTestHandler(t)
	host := &testutil.SimpleClient{ID: "host"}
	p1 := &testutil.SimpleClient{ID: "p1"}
	p2 := &testutil.SimpleClient{ID: "p2"}

	send(h, host, protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomID: "room1", Name: "Host"})
	send(h, p1, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "room1", Name: "One"})
	send(h, p2, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "room1", Name: "Two"})

	assert.Equal(t, []protocol.MessageType{protocol.MsgGameUpdate, protocol.MsgGameUpdate, protocol.MsgGameUpdate}, srv.Received("host"))
	assert.Len(t, srv.Received("p2"), 1)

	// 非房主不能开始
	send(h, p1, protocol.MsgStartGame, protocol.StartGamePayload{UndercoverCount: 1})
	assert.Equal(t, protocol.ErrCodeNotHost, errorCode(t, p1.Last()))

	send(h, host, protocol.MsgStartGame, protocol.StartGamePayload{Words: &[2]string{"tea", "coffee"}, UndercoverCount: 1})
	r, ok := rm.GetRoom("room1")
	require.True(t, ok)
	require.True(t, r.Started)
	assert.Equal(t, protocol.MsgGameUpdate, srv.LastTo("p2").Type)

	// 自投被拒绝
	send(h, p1, protocol.MsgVote, protocol.VotePayload{TargetID: "p1"})
	assert.Equal(t, protocol.ErrCodeSelfVote, errorCode(t, p1.Last()))

	// 三人都投票后广播新一轮
	send(h, host, protocol.MsgVote, protocol.VotePayload{TargetID: "p1"})
	send(h, p1, protocol.MsgVote, protocol.VotePayload{TargetID: "p2"})
	send(h, p2, protocol.MsgVote, protocol.VotePayload{TargetID: "p1"})

	last := srv.LastTo("host")
	require.NotNil(t, last)
	assert.Equal(t, protocol.MsgRoundNew, last.Type)
	round, err := codec.ParsePayload[protocol.RoundNewPayload](last)
	require.NoError(t, err)
	assert.Equal(t, "room1", round.RoomID)
	assert.Equal(t, 1, round.Round)
	assert.NotEmpty(t, round.Message)
}

func TestHandler_KickAndLeave(t *testing.T) {
	t.Parallel()
	h, rm, srv := newTestHandler(t)
	host := &testutil.SimpleClient{ID: "host"}
	p1 := &testutil.SimpleClient{ID: "p1"}

	send(h, host, protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomID: "room1", Name: "Host"})
	send(h, p1, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "room1", Name: "One"})

	send(h, p1, protocol.MsgKickPlayer, protocol.KickPlayerPayload{PlayerID: "host"})
	assert.Equal(t, protocol.ErrCodeNotHost, errorCode(t, p1.Last()))

	send(h, host, protocol.MsgKickPlayer, protocol.KickPlayerPayload{PlayerID: "p1"})
	assert.Equal(t, protocol.MsgKicked, srv.LastTo("p1").Type)
	_, inRoom := rm.LookupRoom("p1")
	assert.False(t, inRoom)

	// 不在房间时离开返回错误
	h.Handle(p1, &protocol.Message{Type: protocol.MsgLeaveRoom})
	assert.Equal(t, protocol.ErrCodePlayerNotFound, errorCode(t, p1.Last()))

	h.Handle(host, &protocol.Message{Type: protocol.MsgLeaveRoom})
	_, exists := rm.GetRoom("room1")
	assert.False(t, exists)
}

func TestHandler_InvalidPayload(t *testing.T) {
	t.Parallel()
	h, _, _ := newTestHandler(t)
	c := &testutil.SimpleClient{ID: "a"}

	for _, msgType := range []protocol.MessageType{
		protocol.MsgCreateRoom, protocol.MsgJoinRoom, protocol.MsgKickPlayer, protocol.MsgStartGame, protocol.MsgVote,
	} {
		h.Handle(c, &protocol.Message{Type: msgType, Payload: []byte(`{"broken`)})
		assert.Equal(t, protocol.ErrCodeInvalidMsg, errorCode(t, c.Last()), msgType)
	}
}

func TestHandler_RejectsWhileShuttingDown(t *testing.T) {
	t.Parallel()

	srv := new(testutil.MockServer)
	srv.On("IsShuttingDown").Return(true)
	rooms := new(room.MockRoomManager)
	h := NewHandler(HandlerDeps{Server: srv, Rooms: rooms})

	c := new(testutil.MockClient)
	c.On("GetID").Return("a").Maybe()
	c.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		return err == nil && payload.Code == protocol.ErrCodeServerShutdown
	})).Twice()

	h.Handle(c, codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomID: "room1", Name: "A"}))
	h.Handle(c, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "room1", Name: "A"}))

	c.AssertExpectations(t)
	rooms.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "JoinRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_UnexpectedErrorBecomesUnknown(t *testing.T) {
	t.Parallel()

	srv := new(testutil.MockServer)
	srv.On("IsShuttingDown").Return(false)
	rooms := new(room.MockRoomManager)
	rooms.On("CreateRoom", "room1", "a", "A").Return(nil, errors.New("disk on fire"))
	h := NewHandler(HandlerDeps{Server: srv, Rooms: rooms})

	c := &testutil.SimpleClient{ID: "a"}
	h.Handle(c, codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomID: "room1", Name: "A"}))

	assert.Equal(t, protocol.ErrCodeUnknown, errorCode(t, c.Last()))
	srv.AssertNotCalled(t, "SendToPlayers", mock.Anything, mock.Anything)
}

func TestHandler_VoteLeavesBroadcastToManager(t *testing.T) {
	t.Parallel()

	current := room.NewTestRoom("room1", "a", "b", "c")
	srv := new(testutil.MockServer)
	rooms := new(room.MockRoomManager)
	rooms.On("LookupRoom", "a").Return(current, true)
	rooms.On("SubmitVote", "room1", "a", "b").Return(current, true, nil)

	h := NewHandler(HandlerDeps{Server: srv, Rooms: rooms})
	h.Handle(&testutil.SimpleClient{ID: "a"}, codec.MustNewMessage(protocol.MsgVote, protocol.VotePayload{TargetID: "b"}))

	rooms.AssertExpectations(t)
	srv.AssertNotCalled(t, "SendToPlayers", mock.Anything, mock.Anything)
}

func TestHandler_OnRoomUpdate(t *testing.T) {
	t.Parallel()

	current := room.NewTestRoom("room1", "a", "b", "c")
	srv := new(testutil.MockServer)
	srv.On("SendToPlayers", []string{"d"}, mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgKicked
	})).Once()
	srv.On("SendToPlayers", []string{"a", "b", "c"}, mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgGameUpdate
	})).Once()
	srv.On("SendToPlayers", []string{"a", "b", "c"}, mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgRoundNew
	})).Once()

	h := NewHandler(HandlerDeps{Server: srv, Rooms: new(room.MockRoomManager)})
	h.OnRoomUpdate(room.Update{Room: current, RoundEnded: true, Kicked: "d"})

	srv.AssertExpectations(t)
}

// slowServer 第一次广播快照时阻塞一段时间
type slowServer struct {
	*testutil.RecordingServer
	once sync.Once
}

func (s *slowServer) SendToPlayers(ids []string, msg *protocol.Message) {
	if msg.Type == protocol.MsgGameUpdate {
		s.once.Do(func() { time.Sleep(50 * time.Millisecond) })
	}
	s.RecordingServer.SendToPlayers(ids, msg)
}

func TestHandler_SnapshotsDeliveredInCommitOrder(t *testing.T) {
	t.Parallel()

	rm := room.NewRoomManager(room.Options{Random: random.NewSeeded(7, 7)})
	for i, id := range []string{"a", "b", "c", "d"} {
		var err error
		if i == 0 {
			_, err = rm.CreateRoom("room1", id, id)
		} else {
			_, err = rm.JoinRoom("room1", id, id)
		}
		require.NoError(t, err)
	}
	_, err := rm.StartGame("a", "room1", nil, 1)
	require.NoError(t, err)

	srv := &slowServer{RecordingServer: testutil.NewRecordingServer()}
	h := NewHandler(HandlerDeps{Server: srv, Rooms: rm})
	rm.SetUpdateHandler(h.OnRoomUpdate)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		send(h, &testutil.SimpleClient{ID: "a"}, protocol.MsgVote, protocol.VotePayload{TargetID: "b"})
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		send(h, &testutil.SimpleClient{ID: "c"}, protocol.MsgVote, protocol.VotePayload{TargetID: "d"})
	}()
	wg.Wait()

	var counts []int
	for _, msg := range srv.Messages("b") {
		require.Equal(t, protocol.MsgGameUpdate, msg.Type)
		var payload struct {
			Room room.Room `json:"room"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		counts = append(counts, len(payload.Room.CurrentVotes()))
	}
	assert.Equal(t, []int{1, 2}, counts)
}

func TestHandler_VoteOutsideRoom(t *testing.T) {
	t.Parallel()
	h, _, _ := newTestHandler(t)
	c := &testutil.SimpleClient{ID: "loner"}

	send(h, c, protocol.MsgVote, protocol.VotePayload{TargetID: "x"})
	assert.Equal(t, protocol.ErrCodePlayerNotFound, errorCode(t, c.Last()))
}

func TestHandler_OnConnectRestoresRoom(t *testing.T) {
	t.Parallel()
	h, rm, srv := newTestHandler(t)

	_, err := rm.CreateRoom("room1", "a", "A")
	require.NoError(t, err)

	c := &testutil.SimpleClient{ID: "a"}
	h.OnConnect(c)
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.MsgConnected, msgs[0].Type)
	assert.Equal(t, protocol.MsgGameReconnect, msgs[1].Type)

	fresh := &testutil.SimpleClient{ID: "b"}
	h.OnConnect(fresh)
	assert.Len(t, fresh.Messages(), 1)

	h.OnRoomEvicted(room.NewTestRoom("room1", "a"))
	assert.Equal(t, protocol.MsgRoomClosed, srv.LastTo("a").Type)

	// 业务错误透传错误码
	assert.Equal(t, protocol.ErrCodeDuplicateRoom, errorCode(t, codec.NewErrorFrom(apperrors.ErrDuplicateRoom)))
}
