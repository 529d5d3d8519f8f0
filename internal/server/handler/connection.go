package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/game/room"
	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
	"github.com/palemoky/undercover/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// OnConnect 连接建立后调用，身份仍在房间中时重新下发快照
func (h *Handler) OnConnect(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.GetID(),
	}))

	r, ok := h.rooms.LookupRoom(client.GetID())
	if !ok {
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgGameReconnect, protocol.GameUpdatePayload{Room: r}))
	zap.L().Info("🔄 玩家重连", zap.String("player", client.GetID()), zap.String("room", r.ID))
}

// OnRoomEvicted 房间超时清理后通知原成员
func (h *Handler) OnRoomEvicted(r *room.Room) {
	h.server.SendToPlayers(r.Members(), codec.MustNewMessage(protocol.MsgRoomClosed, protocol.RoomClosedPayload{
		RoomID: r.ID,
		Reason: "room expired",
	}))
}
