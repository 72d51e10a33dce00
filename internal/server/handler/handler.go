// Package handler 把 WebSocket 消息分发到房间框架
// 处理器不持有游戏状态，所有房间内状态变更都经由房间协程
package handler

import (
	"log"

	"github.com/palemoky/gameroom/internal/auth"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
	"github.com/palemoky/gameroom/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server   types.ServerInterface
	Manager  *room.Manager
	Verifier *auth.Verifier
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	manager  *room.Manager
	verifier *auth.Verifier
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:   deps.Server,
		manager:  deps.Manager,
		verifier: deps.Verifier,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing:     h.handlePing,
		protocol.MsgAppState: h.handleAppState,

		// 房间操作
		protocol.MsgJoin:        h.handleJoin,
		protocol.MsgLeave:       func(c types.ClientInterface, _ *protocol.Message) { h.handleLeave(c) },
		protocol.MsgReady:       func(c types.ClientInterface, _ *protocol.Message) { h.handleReady(c, true) },
		protocol.MsgCancelReady: func(c types.ClientInterface, _ *protocol.Message) { h.handleReady(c, false) },
		protocol.MsgRematch:     func(c types.ClientInterface, _ *protocol.Message) { h.handleRematch(c) },

		// 游戏操作
		protocol.MsgInput: h.handleInput,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (连接: %s)", msg.Type, client.GetID())
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// currentRoom 查找客户端所在房间，不在房间时回错误
func (h *Handler) currentRoom(client types.ClientInterface) *room.Room {
	roomID := client.GetRoom()
	if roomID == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return nil
	}
	r, err := h.manager.GetRoom(roomID)
	if err != nil {
		client.SetRoom("")
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRoomNotFound))
		return nil
	}
	return r
}
