package protocol

import "encoding/json"

// --- 客户端请求 Payloads ---

// JoinPayload 加入房间请求
// RoomID 为空时创建新房间；Token 为身份令牌，由外部签发
type JoinPayload struct {
	Token         string `json:"token"`                    // 身份令牌（JWT）
	GameType      string `json:"game_type,omitempty"`      // 创建房间时的游戏类型
	RoomID        string `json:"room_id,omitempty"`        // 要加入的房间 ID
	Spectator     bool   `json:"spectator,omitempty"`      // 是否只观战
	CorrelationID string `json:"correlation_id,omitempty"` // 持久化关联 ID（连续模拟类游戏）
}

// InputPayload 游戏输入指令
type InputPayload struct {
	Action string          `json:"action"`         // 操作名，由各玩法定义
	Data   json.RawMessage `json:"data,omitempty"` // 操作参数
	Tick   uint64          `json:"tick,omitempty"` // 客户端上报的 tick（仅参考）
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// AppStatePayload 前后台切换提示
type AppStatePayload struct {
	Background bool `json:"background"` // true = 切入后台
}

// --- 服务端响应 Payloads ---

// WelcomePayload 入座成功响应
type WelcomePayload struct {
	RoomID      string         `json:"room_id"`
	GameType    string         `json:"game_type"`
	Slot        int            `json:"slot"` // 观战者为 -1
	Role        string         `json:"role"` // player / spectator
	Phase       string         `json:"phase"`
	Reconnected bool           `json:"reconnected,omitempty"`
	State       map[string]any `json:"state"` // 完整同步状态
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// ParticipantOfflinePayload 玩家掉线通知
type ParticipantOfflinePayload struct {
	Slot        int    `json:"slot"`
	DisplayName string `json:"display_name"`
	Grace       int    `json:"grace"` // 等待重连的秒数
}

// ParticipantOnlinePayload 玩家重连通知
type ParticipantOnlinePayload struct {
	Slot        int    `json:"slot"`
	DisplayName string `json:"display_name"`
}

// ParticipantJoinedPayload 有人加入通知
type ParticipantJoinedPayload struct {
	Slot        int    `json:"slot"` // 观战者为 -1
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ParticipantLeftPayload 有人永久离开通知
type ParticipantLeftPayload struct {
	Slot        int    `json:"slot"`
	DisplayName string `json:"display_name"`
	Reason      string `json:"reason"` // left / grace_expired
}

// SyncPayload 同步状态增量补丁
// Fields 只包含自上次广播以来变化的字段，值为 null 表示字段被移除
type SyncPayload struct {
	Fields map[string]any `json:"fields"`
}

// GameEventPayload 玩法自定义事件（如出示刺激信号、格子校验反馈）
type GameEventPayload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// RoundResultPayload 回合结果（各玩法自行填充 Detail）
type RoundResultPayload struct {
	Round      int            `json:"round"`
	WinnerSlot int            `json:"winner_slot"` // -1 表示本回合无胜者
	Detail     map[string]any `json:"detail,omitempty"`
}

// GameOverPayload 游戏结束通知
type GameOverPayload struct {
	WinnerSlot int            `json:"winner_slot"` // -1 表示无胜者（合作/中止）
	WinnerID   string         `json:"winner_id,omitempty"`
	Reason     string         `json:"reason"` // victory / forfeit / incomplete ...
	Detail     map[string]any `json:"detail,omitempty"`
}

// RematchStatePayload 再来一局投票进度
type RematchStatePayload struct {
	Votes   int  `json:"votes"`
	Needed  int  `json:"needed"`
	Restart bool `json:"restart"` // true 表示投票通过，房间已重置
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
