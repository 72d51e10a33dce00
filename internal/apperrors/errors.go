package apperrors

import (
	"github.com/palemoky/gameroom/internal/protocol"
)

// RoomError 房间错误（注册、重连和玩法共享）
type RoomError struct {
	Code    int
	Message string
}

func (e *RoomError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound   = &RoomError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull       = &RoomError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrSpectatorFull  = &RoomError{Code: protocol.ErrCodeSpectatorFull, Message: "观战席已满"}
	ErrNotInRoom      = &RoomError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrGameStarted    = &RoomError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrUnknownGame    = &RoomError{Code: protocol.ErrCodeUnknownGame, Message: "未知的游戏类型"}
	ErrWrongPhase     = &RoomError{Code: protocol.ErrCodeWrongPhase, Message: "当前阶段不能进行该操作"}
	ErrNotYourTurn    = &RoomError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrSpectatorInput = &RoomError{Code: protocol.ErrCodeSpectatorInput, Message: "观战者不能参与操作"}
	ErrInvalidCommand = &RoomError{Code: protocol.ErrCodeInvalidCommand, Message: "无效的操作指令"}
	ErrGraceExpired   = &RoomError{Code: protocol.ErrCodeGraceExpired, Message: "重连超时，座位已释放"}
)

// CodeOf 提取错误码，非 RoomError 时返回 ErrCodeUnknown
func CodeOf(err error) int {
	if re, ok := err.(*RoomError); ok {
		return re.Code
	}
	return protocol.ErrCodeUnknown
}
