package handler

import (
	"log"
	"time"

	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/types"
)

// handlePing 处理心跳
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleAppState 处理前后台切换提示
// 只记录，不触发任何房间状态变更；掉线判定交给心跳超时
func (h *Handler) handleAppState(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.AppStatePayload](msg)
	if err != nil {
		return
	}
	if payload.Background {
		log.Printf("🌙 连接 %s 切入后台", client.GetID())
	} else {
		log.Printf("🌞 连接 %s 回到前台", client.GetID())
	}
}
