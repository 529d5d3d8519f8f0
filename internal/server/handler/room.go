package handler

import (
	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
	"github.com/palemoky/undercover/internal/types"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsShuttingDown() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeServerShutdown))
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if _, err := h.rooms.CreateRoom(payload.RoomID, client.GetID(), payload.Name); err != nil {
		h.reject(client, msg.Type, err)
	}
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsShuttingDown() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeServerShutdown))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if _, err := h.rooms.JoinRoom(payload.RoomID, client.GetID(), payload.Name); err != nil {
		h.reject(client, msg.Type, err)
	}
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	current, ok := h.currentRoom(client)
	if !ok {
		return
	}

	if _, _, err := h.rooms.LeaveRoom(current.ID, client.GetID()); err != nil {
		h.reject(client, protocol.MsgLeaveRoom, err)
	}
}

// handleKickPlayer 处理房主踢人
func (h *Handler) handleKickPlayer(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.KickPlayerPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	current, ok := h.currentRoom(client)
	if !ok {
		return
	}

	if _, _, err := h.rooms.KickPlayer(current.ID, payload.PlayerID, client.GetID()); err != nil {
		h.reject(client, msg.Type, err)
	}
}
