package protocol

// 错误码
const (
	ErrCodeUnknown        = 1000
	ErrCodeInvalidMsg     = 1001
	ErrCodeRateLimit      = 1002 // 速率限制
	ErrCodeAuthFailed     = 1003 // 身份验证失败
	ErrCodeRoomNotFound   = 2001
	ErrCodeRoomFull       = 2002
	ErrCodeSpectatorFull  = 2003
	ErrCodeNotInRoom      = 2004
	ErrCodeGameStarted    = 2005 // 游戏已开始，无法入座
	ErrCodeUnknownGame    = 2006 // 未知的游戏类型
	ErrCodeWrongPhase     = 3001 // 当前阶段不接受该操作
	ErrCodeNotYourTurn    = 3002
	ErrCodeSpectatorInput = 3003 // 观战者不能操作
	ErrCodeInvalidCommand = 3004 // 指令参数不合法
	ErrCodeGraceExpired   = 3005 // 重连窗口已过期

	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeAuthFailed:        "身份验证失败",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeSpectatorFull:     "观战席已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeGameStarted:       "游戏已开始",
	ErrCodeUnknownGame:       "未知的游戏类型",
	ErrCodeWrongPhase:        "当前阶段不能进行该操作",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeSpectatorInput:    "观战者不能参与操作",
	ErrCodeInvalidCommand:    "无效的操作指令",
	ErrCodeGraceExpired:      "重连超时，座位已释放",
	ErrCodeServerMaintenance: "服务器维护中",
}
