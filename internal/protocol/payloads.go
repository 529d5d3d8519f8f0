package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// KickPlayerPayload 踢人请求
type KickPlayerPayload struct {
	PlayerID string `json:"player_id"`
}

// StartGamePayload 开始游戏请求，Words 为空时使用内置词库
type StartGamePayload struct {
	Words           *[2]string `json:"words,omitempty"`
	UndercoverCount int        `json:"undercover_count"`
}

// VotePayload 投票请求
type VotePayload struct {
	TargetID string `json:"target_id"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"player_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// GameUpdatePayload 房间快照（重连时也使用）
type GameUpdatePayload struct {
	Room any `json:"room"`
}

// RoundNewPayload 新一轮开始
type RoundNewPayload struct {
	RoomID  string `json:"room_id"`
	Round   int    `json:"round"`
	Message string `json:"message,omitempty"`
	Over    bool   `json:"over"`
}

// KickedPayload 被踢出通知
type KickedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// RoomClosedPayload 房间关闭通知
type RoomClosedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
