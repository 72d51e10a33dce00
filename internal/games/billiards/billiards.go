// Package billiards 实现轮换制台球对决：双方各有一组七颗球，
// 轮到谁谁出杆，整杆在服务端确定性推演后一次结算。
// 空杆或母球落袋算犯规，犯规即换人；母球落袋时对手还获得自由摆放母球的权利。
package billiards

import (
	"encoding/json"
	"math/rand/v2"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
)

// GameType 玩法类型标识
const GameType = "billiards"

// Variant 轮换制台球
type Variant struct {
	env room.Env
	rng *rand.Rand

	balls      map[int]*Ball
	turn       int // 当前出杆方槽位
	ballInHand bool
	remaining  [2]int // 各组在场球数
	shotCount  int
	over       bool
}

// New 创建玩法实例
func New(rng *rand.Rand) room.Variant {
	return &Variant{rng: rng}
}

func (v *Variant) GameType() string { return GameType }
func (v *Variant) MinPlayers() int  { return 2 }
func (v *Variant) MaxPlayers() int  { return 2 }
func (v *Variant) Continuous() bool { return false }

// Begin 摆球开局，随机决定先手
func (v *Variant) Begin(env room.Env) {
	v.env = env
	v.balls = rackPositions()
	v.remaining = [2]int{7, 7}
	v.turn = int(v.rng.Uint64() % 2)
}

// shootCommand 出杆参数
type shootCommand struct {
	Angle float64 `json:"angle"` // 弧度
	Power float64 `json:"power"` // 0-1
}

// placeCommand 自由摆放母球参数
type placeCommand struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandleCommand 处理出杆/摆球指令
// 非当前回合方的指令一律拒绝；母球在手时必须先摆球才能出杆
func (v *Variant) HandleCommand(slot int, action string, data json.RawMessage) error {
	if v.over {
		return apperrors.ErrWrongPhase
	}
	if slot != v.turn {
		return apperrors.ErrNotYourTurn
	}

	switch action {
	case "place_cue":
		if !v.ballInHand {
			return apperrors.ErrInvalidCommand
		}
		var cmd placeCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return apperrors.ErrInvalidCommand
		}
		return v.placeCue(cmd.X, cmd.Y)

	case "shoot":
		if v.ballInHand {
			return apperrors.ErrInvalidCommand // 必须先摆球
		}
		var cmd shootCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return apperrors.ErrInvalidCommand
		}
		v.shoot(cmd.Angle, cmd.Power)
		return nil

	default:
		return apperrors.ErrInvalidCommand
	}
}

// placeCue 自由摆放母球：必须在桌面内且不与任何在场球重叠
func (v *Variant) placeCue(x, y float64) error {
	if x < ballRadius || x > tableWidth-ballRadius || y < ballRadius || y > tableHeight-ballRadius {
		return apperrors.ErrInvalidCommand
	}
	pos := Vec{x, y}
	for _, b := range v.balls {
		if b.ID != 0 && b.InPlay && b.Pos.sub(pos).length() < 2*ballRadius {
			return apperrors.ErrInvalidCommand
		}
	}
	cue := v.balls[0]
	cue.Pos = pos
	cue.InPlay = true
	v.ballInHand = false
	return nil
}

// shoot 推演一杆并按规则结算
func (v *Variant) shoot(angle, power float64) {
	v.shotCount++
	res := simulate(v.balls, angle, power)

	foul := false
	ownSunk := false
	for _, id := range res.pocketed {
		if id == 0 {
			continue
		}
		group := v.balls[id].Group
		v.remaining[group]--
		if group == v.turn {
			ownSunk = true
		}
	}

	// 空杆或母球落袋都算犯规
	if res.firstContact < 0 || res.cuePocketed {
		foul = true
	}

	detail := map[string]any{
		"shot":     v.shotCount,
		"by":       v.turn,
		"pocketed": res.pocketed,
		"foul":     foul,
	}

	// 清空本方球组即取胜；但最后一颗是犯规杆打进的，判对手胜
	if v.remaining[v.turn] == 0 {
		if foul {
			v.broadcastShot(detail)
			v.finish(1-v.turn, "foul_on_final")
			return
		}
		v.broadcastShot(detail)
		v.finish(v.turn, "victory")
		return
	}
	if v.remaining[1-v.turn] == 0 {
		// 帮对手清完了台面
		v.broadcastShot(detail)
		v.finish(1-v.turn, "victory")
		return
	}

	switch {
	case foul:
		// 犯规：换人；仅母球落袋时对手才获得自由摆放
		v.turn = 1 - v.turn
		if res.cuePocketed {
			v.ballInHand = true
		}
		detail["next_turn"] = v.turn
	case ownSunk:
		// 干净打进本组球：继续出杆
		detail["next_turn"] = v.turn
	default:
		v.turn = 1 - v.turn
		detail["next_turn"] = v.turn
	}

	v.broadcastShot(detail)
}

// broadcastShot 广播一杆的结算事实
func (v *Variant) broadcastShot(detail map[string]any) {
	v.env.Broadcast(protocol.MustNewMessage(protocol.MsgRoundResult, protocol.RoundResultPayload{
		Round:      v.shotCount,
		WinnerSlot: -1,
		Detail:     detail,
	}))
}

// finish 通知房间进入终局
func (v *Variant) finish(winner int, reason string) {
	v.over = true
	v.env.Finish(room.Outcome{
		WinnerSlot: winner,
		Reason:     reason,
		Detail: map[string]any{
			"shots":     v.shotCount,
			"remaining": map[string]any{"0": v.remaining[0], "1": v.remaining[1]},
		},
	})
}

// ParticipantLeft 玩家永久离开，对手直接获胜
func (v *Variant) ParticipantLeft(slot int) {
	if !v.over {
		v.finish(1-slot, "forfeit")
	}
}

// Sync 构建同步投影
// 台面对所有人完全公开，没有私有信息
func (v *Variant) Sync(_ room.Viewpoint) map[string]any {
	balls := make([]map[string]any, 0, len(v.balls))
	for id := 0; id <= 15; id++ {
		b, ok := v.balls[id]
		if !ok {
			continue
		}
		balls = append(balls, map[string]any{
			"id":      b.ID,
			"group":   b.Group,
			"x":       b.Pos.X,
			"y":       b.Pos.Y,
			"in_play": b.InPlay,
		})
	}
	return map[string]any{
		"turn":         v.turn,
		"ball_in_hand": v.ballInHand,
		"remaining":    map[string]any{"0": v.remaining[0], "1": v.remaining[1]},
		"balls":        balls,
	}
}
