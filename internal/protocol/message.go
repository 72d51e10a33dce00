package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgJoin     MessageType = "join"      // 加入房间（携带身份令牌，重连复用）
	MsgLeave    MessageType = "leave"     // 主动离开房间
	MsgPing     MessageType = "ping"      // 心跳 ping
	MsgAppState MessageType = "app_state" // 前后台切换提示（仅记录）

	// 房间操作
	MsgReady       MessageType = "ready"        // 准备就绪
	MsgCancelReady MessageType = "cancel_ready" // 取消准备
	MsgRematch     MessageType = "rematch"      // 再来一局投票

	// 游戏操作
	MsgInput MessageType = "input" // 游戏输入指令（action 由各玩法定义）
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgWelcome            MessageType = "welcome"             // 入座成功（分配槽位）
	MsgReconnected        MessageType = "reconnected"         // 重连成功
	MsgPong               MessageType = "pong"                // 心跳 pong
	MsgParticipantOffline MessageType = "participant_offline" // 玩家掉线通知
	MsgParticipantOnline  MessageType = "participant_online"  // 玩家重连通知

	// 房间相关
	MsgParticipantJoined MessageType = "participant_joined" // 有人加入
	MsgParticipantLeft   MessageType = "participant_left"   // 有人离开（永久）
	MsgRematchState      MessageType = "rematch_state"      // 再来一局投票进度

	// 游戏流程
	MsgSync        MessageType = "sync"         // 同步状态增量补丁
	MsgGameStart   MessageType = "game_start"   // 游戏开始
	MsgRoundResult MessageType = "round_result" // 回合结果
	MsgGameEvent   MessageType = "game_event"   // 玩法自定义事件通知
	MsgGameOver    MessageType = "game_over"    // 游戏结束

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// WebSocket 关闭码
// 加入被拒绝时使用可区分的关闭码，客户端据此不再自动重试
const (
	CloseRoomFull      = 4001 // 玩家槽位已满
	CloseSpectatorFull = 4002 // 观战席已满
	CloseAuthFailed    = 4003 // 身份验证失败
)
