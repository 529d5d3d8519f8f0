package handler

import (
	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/game/room"
	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
	"github.com/palemoky/undercover/internal/types"
)

// RoomService 房间与对局操作，由 room.RoomManager 实现
// 成功后的广播经由 OnRoomUpdate 交付
type RoomService interface {
	CreateRoom(roomID, hostID, hostName string) (*room.Room, error)
	JoinRoom(roomID, identity, name string) (*room.Room, error)
	LeaveRoom(roomID, identity string) (*room.Room, bool, error)
	KickPlayer(roomID, target, requester string) (*room.Room, bool, error)
	StartGame(requester, roomID string, customWords *[2]string, undercoverCount int) (*room.Room, error)
	SubmitVote(roomID, voterID, targetID string) (*room.Room, bool, error)
	LookupRoom(identity string) (*room.Room, bool)
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server types.ServerInterface
	Rooms  RoomService
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	rooms    RoomService
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server: deps.Server,
		rooms:  deps.Rooms,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgKickPlayer: h.handleKickPlayer,

		// 游戏操作
		protocol.MsgStartGame: h.handleStartGame,
		protocol.MsgVote:      h.handleVote,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	zap.L().Warn("⚠️ 未知消息类型",
		zap.String("type", string(msg.Type)),
		zap.String("player", client.GetID()),
		zap.Int("payload_bytes", len(msg.Payload)),
	)
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// reject 把拒绝原因返回给发起者
func (h *Handler) reject(client types.ClientInterface, msgType protocol.MessageType, err error) {
	zap.L().Debug("操作被拒绝",
		zap.String("type", string(msgType)),
		zap.String("player", client.GetID()),
		zap.Error(err),
	)
	client.SendMessage(codec.NewErrorFrom(err))
}

// OnRoomUpdate 房间变更回调，由房间管理器在房间锁内调用
// 广播顺序因此与提交顺序一致；本轮结算时额外广播新一轮通知
func (h *Handler) OnRoomUpdate(u room.Update) {
	if u.Kicked != "" {
		h.server.SendToPlayers([]string{u.Kicked}, codec.MustNewMessage(protocol.MsgKicked, protocol.KickedPayload{
			RoomID:   u.Room.ID,
			PlayerID: u.Kicked,
		}))
	}
	h.broadcastRoom(u.Room)
	if u.RoundEnded {
		h.broadcastRound(u.Room)
	}
}

// broadcastRoom 向房间所有成员广播最新快照
func (h *Handler) broadcastRoom(r *room.Room) {
	h.server.SendToPlayers(r.Members(), codec.MustNewMessage(protocol.MsgGameUpdate, protocol.GameUpdatePayload{Room: r}))
}

// broadcastRound 通知房间一轮已结算
func (h *Handler) broadcastRound(r *room.Room) {
	h.server.SendToPlayers(r.Members(), codec.MustNewMessage(protocol.MsgRoundNew, protocol.RoundNewPayload{
		RoomID:  r.ID,
		Round:   r.Round,
		Message: r.Message,
		Over:    r.Over,
	}))
}

// currentRoom 查找发起者所在房间，不在房间时回复错误
func (h *Handler) currentRoom(client types.ClientInterface) (*room.Room, bool) {
	r, ok := h.rooms.LookupRoom(client.GetID())
	if !ok {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodePlayerNotFound))
		return nil, false
	}
	return r, true
}
