// Package flip 实现同时翻牌对决：双方每回合各翻一张牌，
// 点数大者赢走奖池；点数相同进入加注战，双方各押三张暗牌再翻一张，
// 押不起的一方立即判负。
package flip

import (
	"encoding/json"
	"math/rand/v2"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
)

// GameType 玩法类型标识
const GameType = "flip"

// 加注战每方押注的暗牌数
const warStake = 3

// Variant 同时翻牌对决
type Variant struct {
	env room.Env
	rng *rand.Rand

	round    int
	piles    [2][]Card // 双方抽牌堆，牌面对所有人保密
	pot      []Card    // 本回合奖池（含加注押牌）
	flipped  [2]bool   // 本回合是否已提交翻牌
	lastFlip [2]*Card  // 上一次结算时双方翻出的牌（公开）
	over     bool
}

// New 创建玩法实例
func New(rng *rand.Rand) room.Variant {
	return &Variant{rng: rng}
}

func (v *Variant) GameType() string { return GameType }
func (v *Variant) MinPlayers() int  { return 2 }
func (v *Variant) MaxPlayers() int  { return 2 }
func (v *Variant) Continuous() bool { return false }

// Begin 发牌开局
func (v *Variant) Begin(env room.Env) {
	v.env = env
	deck := newDeck()
	shuffle(deck, v.rng)
	v.piles[0] = append([]Card(nil), deck[:26]...)
	v.piles[1] = append([]Card(nil), deck[26:]...)
	v.round = 1
}

// HandleCommand 处理翻牌指令
// 每回合每方只接受一次翻牌，重复提交拒绝且状态不变
func (v *Variant) HandleCommand(slot int, action string, _ json.RawMessage) error {
	if action != "flip" {
		return apperrors.ErrInvalidCommand
	}
	if v.over {
		return apperrors.ErrWrongPhase
	}
	if v.flipped[slot] {
		return apperrors.ErrInvalidCommand
	}

	v.flipped[slot] = true

	// 双方都已提交才结算
	if v.flipped[0] && v.flipped[1] {
		v.resolveRound()
	}
	return nil
}

// resolveRound 双方翻牌结算，平局进入加注战
func (v *Variant) resolveRound() {
	war := false

	for {
		a := v.drawTop(0)
		b := v.drawTop(1)
		v.pot = append(v.pot, a, b)
		v.lastFlip[0], v.lastFlip[1] = &a, &b

		// 确定性排序函数：点数全序，点数大者胜
		if a.Rank != b.Rank {
			winner := 0
			if b.Rank > a.Rank {
				winner = 1
			}
			v.settle(winner, war)
			return
		}

		// 点数相同：加注战，押不起的一方立即判负
		war = true
		for side := range 2 {
			// 三张暗牌加下一张明牌
			if len(v.piles[side]) < warStake+1 {
				v.loseByExhaustion(side)
				return
			}
		}
		for side := range 2 {
			v.pot = append(v.pot, v.piles[side][:warStake]...)
			v.piles[side] = v.piles[side][warStake:]
		}
	}
}

// drawTop 从抽牌堆顶取一张
func (v *Variant) drawTop(side int) Card {
	c := v.piles[side][0]
	v.piles[side] = v.piles[side][1:]
	return c
}

// settle 回合胜者收走奖池
func (v *Variant) settle(winner int, war bool) {
	v.piles[winner] = append(v.piles[winner], v.pot...)
	v.pot = nil

	v.env.Broadcast(protocol.MustNewMessage(protocol.MsgRoundResult, protocol.RoundResultPayload{
		Round:      v.round,
		WinnerSlot: winner,
		Detail: map[string]any{
			"cards": map[string]any{"0": v.lastFlip[0].String(), "1": v.lastFlip[1].String()},
			"war":   war,
		},
	}))

	v.round++
	v.flipped[0], v.flipped[1] = false, false

	// 输光即终局
	for side := range 2 {
		if len(v.piles[side]) == 0 {
			v.finish(1-side, "victory")
			return
		}
	}
}

// loseByExhaustion 加注战押不起，立即判负
func (v *Variant) loseByExhaustion(loser int) {
	v.pot = nil
	v.finish(1-loser, "exhaustion")
}

// finish 通知房间进入终局
func (v *Variant) finish(winner int, reason string) {
	v.over = true
	v.env.Finish(room.Outcome{
		WinnerSlot: winner,
		Reason:     reason,
		Detail: map[string]any{
			"rounds": v.round,
			"piles":  map[string]any{"0": len(v.piles[0]), "1": len(v.piles[1])},
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
// 抽牌堆只公开张数；自己能偷看堆顶，对手的堆顶保密
func (v *Variant) Sync(view room.Viewpoint) map[string]any {
	state := map[string]any{
		"round":   v.round,
		"pot":     len(v.pot),
		"piles":   map[string]any{"0": len(v.piles[0]), "1": len(v.piles[1])},
		"flipped": map[string]any{"0": v.flipped[0], "1": v.flipped[1]},
	}
	if v.lastFlip[0] != nil && v.lastFlip[1] != nil {
		state["last_flip"] = map[string]any{"0": v.lastFlip[0].String(), "1": v.lastFlip[1].String()}
	}
	if view.Role == room.RolePlayer && view.Slot >= 0 && view.Slot < 2 && len(v.piles[view.Slot]) > 0 {
		state["peek"] = v.piles[view.Slot][0].String()
	}
	return state
}
