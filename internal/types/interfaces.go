package types

import (
	"github.com/palemoky/gameroom/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
	UnregisterClient(id string)
}

// ClientInterface 定义客户端连接接口
// 一个连接对应一个易变的连接 ID，重连后玩家会换用新的连接
type ClientInterface interface {
	GetID() string
	GetName() string
	SetName(name string)
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
	CloseWithCode(code int, reason string)
}
