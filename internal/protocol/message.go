package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgKickPlayer MessageType = "kick_player" // 房主踢人

	// 游戏操作
	MsgStartGame MessageType = "start_game" // 房主开始游戏
	MsgVote      MessageType = "vote"       // 投票
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgGameReconnect MessageType = "game_reconnect" // 重连后恢复房间
	MsgPong          MessageType = "pong"           // 心跳 pong

	// 房间相关
	MsgGameUpdate MessageType = "game_update" // 房间最新快照
	MsgRoundNew   MessageType = "round_new"   // 一轮结算完毕
	MsgKicked     MessageType = "kicked"      // 被房主踢出
	MsgRoomClosed MessageType = "room_closed" // 房间超时关闭

	// 错误
	MsgError MessageType = "error" // 错误消息
)
