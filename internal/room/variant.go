package room

import (
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
)

// Viewpoint 观察视角，玩法据此决定哪些私有字段可见
// 观战者的 Slot 为 -1
type Viewpoint struct {
	Slot int
	Role Role
}

// Outcome 终局结果
type Outcome struct {
	WinnerSlot int            // -1 表示无胜者（合作/中止）
	Reason     string         // victory / forfeit / incomplete ...
	Detail     map[string]any // 玩法自定义的结算数据
}

// Env 房间提供给玩法的能力集合
// 所有方法只能在房间协程内调用（Begin/HandleCommand/StepTick/定时器回调中）
type Env interface {
	// Broadcast 向房间内所有在线参与者广播事件
	Broadcast(msg *protocol.Message)
	// SendToSlot 向指定槽位的玩家发送消息
	SendToSlot(slot int, msg *protocol.Message)
	// Finish 进入终局阶段，只有第一次调用生效
	Finish(out Outcome)
	// After 注册房间协程内执行的定时器，房间销毁时自动取消
	After(d time.Duration, fn func()) *ActorTimer
	// Cancel 取消尚未触发的定时器，对 nil 或已触发的句柄无副作用
	Cancel(at *ActorTimer)
	// Rand 房间专属的随机源（创建时播种，可复现）
	Rand() *rand.Rand
}

// Variant 单个游戏玩法的能力接口
// 框架对具体规则一无所知，只通过这组方法驱动
type Variant interface {
	GameType() string
	MinPlayers() int
	MaxPlayers() int
	// Continuous 为 true 时框架按固定频率调用 StepTick
	Continuous() bool

	// Begin 开局回调，在进入 playing 阶段时调用一次
	Begin(env Env)
	// HandleCommand 处理已通过授权校验的玩家指令
	// 返回错误时状态必须保持不变
	HandleCommand(slot int, action string, data json.RawMessage) error
	// ParticipantLeft 玩家永久离开（宽限期过期或主动退出）
	// 玩法在这里执行判负/中止策略
	ParticipantLeft(slot int)
	// Sync 构建指定视角的同步状态投影，必须返回全新的 map
	Sync(view Viewpoint) map[string]any
}

// ContinuousVariant 连续模拟玩法的扩展能力
// 状态只通过纯变换推进，快照只携带动态字段
type ContinuousVariant interface {
	Variant
	// StepTick 推进一个模拟步长
	StepTick(dt time.Duration)
	// Tick 当前确定性 tick 计数
	Tick() uint64
	// Snapshot 序列化动态状态
	Snapshot() ([]byte, error)
	// Hydrate 从存档恢复动态状态，目录数据由玩法自行重新注入
	Hydrate(data []byte) error
}

// Factory 玩法构造函数
type Factory func(rng *rand.Rand) Variant

// Catalog 玩法目录
// 启动时装配一次，之后只读，显式传入每个房间
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog 创建玩法目录
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register 注册玩法（仅在启动装配阶段调用）
func (c *Catalog) Register(gameType string, f Factory) {
	c.factories[gameType] = f
}

// New 创建指定类型的玩法实例
func (c *Catalog) New(gameType string, rng *rand.Rand) (Variant, error) {
	f, ok := c.factories[gameType]
	if !ok {
		return nil, apperrors.ErrUnknownGame
	}
	return f(rng), nil
}

// Types 返回已注册的玩法类型
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.factories))
	for t := range c.factories {
		types = append(types, t)
	}
	return types
}
