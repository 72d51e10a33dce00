package handler

import (
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/types"
)

// handleInput 处理游戏输入指令
// 只做路由，授权校验（阶段/角色/回合）都在房间协程内
func (h *Handler) handleInput(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.InputPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	r := h.currentRoom(client)
	if r == nil {
		return
	}
	r.HandleInput(client.GetID(), payload)
}
