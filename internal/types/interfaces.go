package types

import (
	"github.com/palemoky/undercover/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsShuttingDown() bool
	GetOnlineCount() int
	// SendToPlayers 向在线的指定玩家发送消息，离线玩家忽略
	SendToPlayers(ids []string, msg *protocol.Message)
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	SendMessage(msg *protocol.Message)
	Close()
}
