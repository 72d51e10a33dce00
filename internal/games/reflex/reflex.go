// Package reflex 实现反应速度对决：随机延迟后出示刺激信号，
// 先做出有效反应的一方赢下回合；信号出现前抢按记为犯规，
// 只要有人做出有效反应，犯规方就不参与本回合胜负判定。
package reflex

import (
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
)

// GameType 玩法类型标识
const GameType = "reflex"

const (
	totalRounds = 5 // 五局三胜

	minStimulusDelay = 1 * time.Second
	maxStimulusDelay = 4 * time.Second
	stragglerTimeout = 2 * time.Second // 出示信号后未反应者按错过处理
	interRoundPause  = 1500 * time.Millisecond
)

// 回合内部阶段
const (
	phaseWaitingStimulus = "waiting_for_stimulus"
	phaseStimulusShown   = "stimulus_shown"
	phaseRoundResult     = "round_result"
)

// Variant 反应速度对决
type Variant struct {
	env room.Env
	rng *rand.Rand

	round      int
	roundPhase string
	shownAt    time.Time
	wins       [2]int
	faulted    [2]bool // 本回合是否抢按
	reacted    [2]bool
	reaction   [2]time.Duration

	stimTimer      *room.ActorTimer
	stragglerTimer *room.ActorTimer

	over bool
}

// New 创建玩法实例
func New(rng *rand.Rand) room.Variant {
	return &Variant{rng: rng}
}

func (v *Variant) GameType() string { return GameType }
func (v *Variant) MinPlayers() int  { return 2 }
func (v *Variant) MaxPlayers() int  { return 2 }
func (v *Variant) Continuous() bool { return false }

// Begin 开局，进入第一回合
func (v *Variant) Begin(env room.Env) {
	v.env = env
	v.round = 1
	v.startRound()
}

// startRound 随机延迟后出示刺激信号
func (v *Variant) startRound() {
	v.roundPhase = phaseWaitingStimulus
	v.faulted = [2]bool{}
	v.reacted = [2]bool{}
	v.reaction = [2]time.Duration{}

	delay := minStimulusDelay + time.Duration(v.rng.Int64N(int64(maxStimulusDelay-minStimulusDelay)))
	v.stimTimer = v.env.After(delay, v.showStimulus)
}

// showStimulus 出示刺激信号，开始计时
func (v *Variant) showStimulus() {
	v.stimTimer = nil
	v.roundPhase = phaseStimulusShown
	v.shownAt = time.Now()

	v.env.Broadcast(protocol.MustNewMessage(protocol.MsgGameEvent, protocol.GameEventPayload{
		Event: "stimulus",
		Data:  map[string]any{"round": v.round},
	}))

	v.stragglerTimer = v.env.After(stragglerTimeout, v.resolveRound)
}

// HandleCommand 处理反应指令
// 信号出现前的输入永远记为犯规，哪怕只早了几微秒——
// 阶段判定发生在房间协程内，与出示信号的定时器严格串行
func (v *Variant) HandleCommand(slot int, action string, _ json.RawMessage) error {
	if action != "react" {
		return apperrors.ErrInvalidCommand
	}
	if v.over {
		return apperrors.ErrWrongPhase
	}

	switch v.roundPhase {
	case phaseWaitingStimulus:
		// 抢按：记录犯规，不算错误（状态已按规则变更）
		if !v.faulted[slot] {
			v.faulted[slot] = true
			v.env.Broadcast(protocol.MustNewMessage(protocol.MsgGameEvent, protocol.GameEventPayload{
				Event: "false_start",
				Data:  map[string]any{"round": v.round, "slot": slot},
			}))
		}
		return nil

	case phaseStimulusShown:
		if v.reacted[slot] {
			return apperrors.ErrInvalidCommand
		}
		v.reacted[slot] = true
		v.reaction[slot] = time.Since(v.shownAt)

		// 所有有资格的玩家都已反应，提前结算
		if v.allEligibleReacted() {
			v.resolveRound()
		}
		return nil

	default:
		return apperrors.ErrWrongPhase
	}
}

// allEligibleReacted 未犯规的玩家是否都已反应
func (v *Variant) allEligibleReacted() bool {
	for slot := range 2 {
		if !v.faulted[slot] && !v.reacted[slot] {
			return false
		}
	}
	return true
}

// resolveRound 回合结算
// 有有效反应时犯规方被排除；无人反应则本回合无胜者
func (v *Variant) resolveRound() {
	if v.roundPhase != phaseStimulusShown {
		return
	}
	// 提前结算时补时定时器还挂着，必须取消；由补时触发时取消是空操作
	v.env.Cancel(v.stragglerTimer)
	v.stragglerTimer = nil
	v.roundPhase = phaseRoundResult

	winner := -1
	var best time.Duration
	hasValid := false
	for slot := range 2 {
		if v.faulted[slot] || !v.reacted[slot] {
			continue
		}
		if !hasValid || v.reaction[slot] < best {
			hasValid = true
			best = v.reaction[slot]
			winner = slot
		}
	}

	// 双方都犯规或都错过：无人得分
	if winner >= 0 {
		v.wins[winner]++
	}

	detail := map[string]any{
		"faults": map[string]any{"0": v.faulted[0], "1": v.faulted[1]},
	}
	times := map[string]any{}
	for slot := range 2 {
		if v.reacted[slot] && !v.faulted[slot] {
			times[itoa(slot)] = v.reaction[slot].Milliseconds()
		}
	}
	detail["times"] = times

	v.env.Broadcast(protocol.MustNewMessage(protocol.MsgRoundResult, protocol.RoundResultPayload{
		Round:      v.round,
		WinnerSlot: winner,
		Detail:     detail,
	}))

	// 五局三胜，打满后仍平则加赛
	need := totalRounds/2 + 1
	if v.wins[0] >= need || (v.round >= totalRounds && v.wins[0] > v.wins[1]) {
		v.finish(0, "victory")
		return
	}
	if v.wins[1] >= need || (v.round >= totalRounds && v.wins[1] > v.wins[0]) {
		v.finish(1, "victory")
		return
	}

	v.round++
	v.env.After(interRoundPause, v.startRound)
}

// finish 通知房间进入终局
func (v *Variant) finish(winner int, reason string) {
	v.over = true
	v.env.Finish(room.Outcome{
		WinnerSlot: winner,
		Reason:     reason,
		Detail: map[string]any{
			"wins": map[string]any{"0": v.wins[0], "1": v.wins[1]},
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
// 刺激信号的预定时刻绝不下发，出示与否只通过阶段字段体现
func (v *Variant) Sync(_ room.Viewpoint) map[string]any {
	return map[string]any{
		"round": v.round,
		"phase": v.roundPhase,
		"wins":  map[string]any{"0": v.wins[0], "1": v.wins[1]},
		"faults": map[string]any{
			"0": v.faulted[0],
			"1": v.faulted[1],
		},
	}
}

func itoa(slot int) string {
	if slot == 0 {
		return "0"
	}
	return "1"
}
