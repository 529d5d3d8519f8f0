package handler

import (
	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
	"github.com/palemoky/undercover/internal/types"
)

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.StartGamePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	current, ok := h.currentRoom(client)
	if !ok {
		return
	}

	if _, err := h.rooms.StartGame(client.GetID(), current.ID, payload.Words, payload.UndercoverCount); err != nil {
		h.reject(client, msg.Type, err)
	}
}

// handleVote 处理投票
func (h *Handler) handleVote(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.VotePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	current, ok := h.currentRoom(client)
	if !ok {
		return
	}

	if _, _, err := h.rooms.SubmitVote(current.ID, client.GetID(), payload.TargetID); err != nil {
		h.reject(client, msg.Type, err)
	}
}
