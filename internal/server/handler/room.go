package handler

import (
	"errors"
	"log"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
	"github.com/palemoky/gameroom/internal/types"
)

// handleJoin 处理加入/重连请求
// 这是唯一的身份验证入口：令牌验证失败直接断开，
// 容量拒绝用可区分的关闭码告诉客户端不要再自动重试
func (h *Handler) handleJoin(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	identity, err := h.verifier.Verify(payload.Token)
	if err != nil {
		log.Printf("🚫 连接 %s 令牌验证失败", client.GetID())
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeAuthFailed))
		client.CloseWithCode(protocol.CloseAuthFailed, "auth failed")
		return
	}

	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "已在房间中"))
		return
	}

	var r *room.Room
	if payload.RoomID == "" {
		// 创建新房间；维护模式下不再接受
		if h.server.IsMaintenanceMode() {
			client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeServerMaintenance))
			return
		}
		r, err = h.manager.CreateRoom(payload.GameType, payload.CorrelationID)
	} else {
		r, err = h.manager.GetRoom(payload.RoomID)
	}
	if err != nil {
		h.sendRoomError(client, err)
		return
	}

	res, err := r.Join(client, identity, room.JoinOptions{Spectator: payload.Spectator})
	if err != nil {
		h.sendRoomError(client, err)
		// 容量类拒绝：断开并带上可区分关闭码
		switch {
		case errors.Is(err, apperrors.ErrRoomFull):
			client.CloseWithCode(protocol.CloseRoomFull, "room full")
		case errors.Is(err, apperrors.ErrSpectatorFull):
			client.CloseWithCode(protocol.CloseSpectatorFull, "spectator seats full")
		}
		return
	}

	client.SetName(identity.DisplayName)

	msgType := protocol.MsgWelcome
	if res.Reconnected {
		msgType = protocol.MsgReconnected
	}
	client.SendMessage(protocol.MustNewMessage(msgType, protocol.WelcomePayload{
		RoomID:      r.ID,
		GameType:    r.GameType,
		Slot:        res.Slot,
		Role:        string(res.Role),
		Phase:       string(res.Phase),
		Reconnected: res.Reconnected,
		State:       res.State,
	}))
}

// handleLeave 处理主动离开
func (h *Handler) handleLeave(client types.ClientInterface) {
	r := h.currentRoom(client)
	if r == nil {
		return
	}
	r.HandleLeave(client.GetID())
}

// handleReady 处理准备/取消准备
func (h *Handler) handleReady(client types.ClientInterface, ready bool) {
	r := h.currentRoom(client)
	if r == nil {
		return
	}
	r.HandleReady(client.GetID(), ready)
}

// handleRematch 处理再来一局投票
func (h *Handler) handleRematch(client types.ClientInterface) {
	r := h.currentRoom(client)
	if r == nil {
		return
	}
	r.HandleRematch(client.GetID())
}

// sendRoomError 把房间错误转成带错误码的错误消息
func (h *Handler) sendRoomError(client types.ClientInterface, err error) {
	var re *apperrors.RoomError
	if errors.As(err, &re) {
		client.SendMessage(protocol.NewErrorMessageWithText(re.Code, re.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
}
