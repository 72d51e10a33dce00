// Package mine 实现挂机挖矿：连续模拟玩法，矿场按固定频率产出矿石，
// 玩家购买生产设备提高产能。没有终局，房间销毁时动态状态落入冷存档，
// 凭关联 ID 回来继续挖。
package mine

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
)

// GameType 玩法类型标识
const GameType = "mine"

// 买同种设备每多一台，价格按该系数复利上涨
const costGrowth = 1.15

// 转生：累计产量每满一个单位换一点声望，每点声望给全矿场加成
const (
	prestigeUnit  = 10000.0
	prestigeBonus = 0.1
)

// GeneratorDef 一种生产设备的目录定义
// 目录数据不可变，不进存档，恢复时由工厂重新注入
type GeneratorDef struct {
	Name     string  `json:"name"`
	BaseCost float64 `json:"base_cost"`
	Rate     float64 `json:"rate"` // 每台每秒产出
}

// DefaultGenerators 内置设备目录
func DefaultGenerators() []GeneratorDef {
	return []GeneratorDef{
		{Name: "pick", BaseCost: 10, Rate: 0.5},
		{Name: "drill", BaseCost: 120, Rate: 4},
		{Name: "crusher", BaseCost: 1500, Rate: 30},
	}
}

// simState 全部动态状态，存档只序列化这一个结构
type simState struct {
	Tick       uint64         `json:"tick"`
	Ore        float64        `json:"ore"`
	TotalMined float64        `json:"total_mined"`
	Prestige   int            `json:"prestige"`
	Generators map[string]int `json:"generators"` // 设备名 -> 持有台数
}

// stepTick 纯变换：给定当前状态和步长，返回推进后的状态
// 不读时钟、不带随机，同样的输入永远得到同样的输出
func stepTick(s simState, dt time.Duration, defs []GeneratorDef) simState {
	rate := 1.0 // 徒手挖矿保底产能
	for _, def := range defs {
		rate += def.Rate * float64(s.Generators[def.Name])
	}
	rate *= 1 + prestigeBonus*float64(s.Prestige)
	gain := rate * dt.Seconds()

	next := s
	next.Tick++
	next.Ore += gain
	next.TotalMined += gain
	next.Generators = s.Generators // 产出不改持有量，共享即可
	return next
}

// generatorCost 第 owned+1 台的价格
func generatorCost(def GeneratorDef, owned int) float64 {
	return def.BaseCost * math.Pow(costGrowth, float64(owned))
}

// applyBuy 纯变换：尝试购买一台设备
// 买不起时返回原状态和 false，成功时返回新状态
func applyBuy(s simState, def GeneratorDef) (simState, bool) {
	cost := generatorCost(def, s.Generators[def.Name])
	if s.Ore < cost {
		return s, false
	}

	gens := make(map[string]int, len(s.Generators))
	for k, v := range s.Generators {
		gens[k] = v
	}
	gens[def.Name]++

	next := s
	next.Ore -= cost
	next.Generators = gens
	return next, true
}

// prestigePoints 按累计产量折算的声望点数
func prestigePoints(totalMined float64) int {
	return int(math.Sqrt(totalMined / prestigeUnit))
}

// applyPrestige 纯变换：转生
// 清空矿石和设备换取声望；点数没涨时转生无效，返回原状态和 false
func applyPrestige(s simState) (simState, bool) {
	pts := prestigePoints(s.TotalMined)
	if pts <= s.Prestige {
		return s, false
	}

	next := s
	next.Prestige = pts
	next.Ore = 0
	next.Generators = make(map[string]int)
	return next, true
}

// Variant 挂机挖矿
type Variant struct {
	env   room.Env
	defs  []GeneratorDef
	state simState
}

// New 返回绑定设备目录的玩法构造函数
func New(defs []GeneratorDef) room.Factory {
	return func(_ *rand.Rand) room.Variant {
		return &Variant{
			defs:  defs,
			state: simState{Generators: make(map[string]int)},
		}
	}
}

func (v *Variant) GameType() string { return GameType }
func (v *Variant) MinPlayers() int  { return 1 }
func (v *Variant) MaxPlayers() int  { return 4 }
func (v *Variant) Continuous() bool { return true }

// Begin 开局
func (v *Variant) Begin(env room.Env) {
	v.env = env
}

// StepTick 推进一个模拟步长（由房间按固定频率驱动）
func (v *Variant) StepTick(dt time.Duration) {
	v.state = stepTick(v.state, dt, v.defs)
}

// Tick 当前确定性 tick 计数
func (v *Variant) Tick() uint64 { return v.state.Tick }

// buyCommand 购买参数
type buyCommand struct {
	Generator string `json:"generator"`
}

// HandleCommand 处理购买/转生指令
// 买不起或转生无效不算错误，只广播失败事件；未知指令和设备名直接拒绝
func (v *Variant) HandleCommand(slot int, action string, data json.RawMessage) error {
	switch action {
	case "buy":
		var cmd buyCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return apperrors.ErrInvalidCommand
		}

		def, ok := v.findDef(cmd.Generator)
		if !ok {
			return apperrors.ErrInvalidCommand
		}

		next, bought := applyBuy(v.state, def)
		if bought {
			v.state = next
		}

		v.env.Broadcast(protocol.MustNewMessage(protocol.MsgGameEvent, protocol.GameEventPayload{
			Event: "buy_result",
			Data: map[string]any{
				"slot":      slot,
				"generator": def.Name,
				"ok":        bought,
				"owned":     v.state.Generators[def.Name],
			},
		}))
		return nil

	case "prestige":
		next, reset := applyPrestige(v.state)
		if reset {
			v.state = next
		}

		v.env.Broadcast(protocol.MustNewMessage(protocol.MsgGameEvent, protocol.GameEventPayload{
			Event: "prestige_result",
			Data: map[string]any{
				"slot":     slot,
				"ok":       reset,
				"prestige": v.state.Prestige,
			},
		}))
		return nil

	default:
		return apperrors.ErrInvalidCommand
	}
}

func (v *Variant) findDef(name string) (GeneratorDef, bool) {
	for _, def := range v.defs {
		if def.Name == name {
			return def, true
		}
	}
	return GeneratorDef{}, false
}

// ParticipantLeft 挂机玩法没有判负，矿场继续运转
func (v *Variant) ParticipantLeft(_ int) {}

// Snapshot 序列化动态状态
func (v *Variant) Snapshot() ([]byte, error) {
	return json.Marshal(v.state)
}

// Hydrate 从存档恢复动态状态
func (v *Variant) Hydrate(data []byte) error {
	var s simState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.Generators == nil {
		s.Generators = make(map[string]int)
	}
	v.state = s
	return nil
}

// Sync 构建同步投影
// 矿场对所有参与者完全共享，附带下一台设备的报价
func (v *Variant) Sync(_ room.Viewpoint) map[string]any {
	shop := make([]map[string]any, 0, len(v.defs))
	for _, def := range v.defs {
		owned := v.state.Generators[def.Name]
		shop = append(shop, map[string]any{
			"name":      def.Name,
			"rate":      def.Rate,
			"owned":     owned,
			"next_cost": math.Round(generatorCost(def, owned)*100) / 100,
		})
	}
	return map[string]any{
		"tick":          v.state.Tick,
		"ore":           math.Round(v.state.Ore*100) / 100,
		"total_mined":   math.Round(v.state.TotalMined*100) / 100,
		"prestige":      v.state.Prestige,
		"next_prestige": prestigePoints(v.state.TotalMined),
		"shop":          shop,
	}
}
