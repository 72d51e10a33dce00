package room

import (
	"context"
	"log"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/storage"
)

// maybeStartCountdown 人齐且全部准备后进入倒计时
func (r *Room) maybeStartCountdown() {
	if r.phase != PhaseWaiting {
		return
	}
	seated := r.seatedPlayers()
	if seated < r.variant.MinPlayers() || seated != r.connectedPlayers() {
		return
	}
	for _, p := range r.slots {
		if p != nil && !p.Ready {
			return
		}
	}
	r.enterCountdown()
}

// enterCountdown 进入倒计时阶段
func (r *Room) enterCountdown() {
	r.phase = PhaseCountdown
	r.countdown = r.cfg.Room.Countdown
	log.Printf("⏳ 房间 %s 开始倒计时 %d 秒", r.ID, r.countdown)
	r.tickCountdown()
}

// tickCountdown 每秒递减可见计数，到零开局
func (r *Room) tickCountdown() {
	if r.countdown <= 0 {
		r.enterPlaying()
		return
	}
	r.countdownTimer = r.after(time.Second, func() {
		if r.phase != PhaseCountdown {
			return
		}
		r.countdown--
		r.tickCountdown()
	})
}

// cancelCountdown 倒计时被打断（取消准备/掉线/离开），退回等待
func (r *Room) cancelCountdown() {
	if r.phase != PhaseCountdown {
		return
	}
	stopTimer(r.countdownTimer)
	r.countdownTimer = nil
	r.countdown = 0
	r.phase = PhaseWaiting
	log.Printf("⏳ 房间 %s 倒计时中断，退回等待", r.ID)
}

// enterPlaying 正式开局
func (r *Room) enterPlaying() {
	stopTimer(r.countdownTimer)
	r.countdownTimer = nil
	r.countdown = 0
	r.phase = PhasePlaying
	r.started = true
	r.startedAt = time.Now()

	log.Printf("🎮 房间 %s 开局 (%s)", r.ID, r.GameType)

	r.broadcast(protocol.MustNewMessage(protocol.MsgGameStart, nil))
	r.variant.Begin(r.env())

	if r.cont != nil {
		r.startSimulation()
	}
}

// HandleInput 处理玩家游戏指令
// 授权检查是正确性边界：阶段、发送者身份、角色都在这里把关
func (r *Room) HandleInput(connID string, payload *protocol.InputPayload) {
	r.post(func() {
		p, ok := r.byConn[connID]
		if !ok {
			return // 非参与者的输入直接丢弃
		}
		if p.Role == RoleSpectator {
			r.sendError(p, apperrors.ErrSpectatorInput)
			return
		}
		if r.phase != PhasePlaying {
			r.sendError(p, apperrors.ErrWrongPhase)
			return
		}

		// 指令失败时玩法保证状态不变，只需把错误回给发送者
		if err := r.variant.HandleCommand(p.Slot, payload.Action, payload.Data); err != nil {
			r.sendError(p, err)
		}
	})
}

// HandleRematch 处理再来一局投票
// 同一连接的投票只计一次
func (r *Room) HandleRematch(connID string) {
	r.post(func() {
		p, ok := r.byConn[connID]
		if !ok || p.Role != RolePlayer {
			return
		}
		if r.phase != PhaseFinished {
			r.sendError(p, apperrors.ErrWrongPhase)
			return
		}

		r.rematchVotes[connID] = true

		votes := 0
		for _, pp := range r.slots {
			if pp != nil && pp.Connected && r.rematchVotes[pp.ConnID] {
				votes++
			}
		}
		needed := r.connectedPlayers()

		if votes >= needed && needed >= r.variant.MinPlayers() {
			r.resetForRematch()
			return
		}

		r.broadcast(protocol.MustNewMessage(protocol.MsgRematchState, protocol.RematchStatePayload{
			Votes:  votes,
			Needed: needed,
		}))
	})
}

// resetForRematch 投票通过，重置房间再来一局
func (r *Room) resetForRematch() {
	log.Printf("🔄 房间 %s 投票通过，重开一局", r.ID)

	r.variant = r.factory(r.rng)
	r.cont = nil
	if cv, ok := r.variant.(ContinuousVariant); ok && r.variant.Continuous() {
		r.cont = cv
	}

	r.phase = PhaseWaiting
	r.finished = false
	r.countdown = 0
	r.rematchVotes = make(map[string]bool)
	for _, p := range r.slots {
		if p != nil {
			p.Ready = false
		}
	}

	r.broadcast(protocol.MustNewMessage(protocol.MsgRematchState, protocol.RematchStatePayload{
		Votes:   0,
		Needed:  r.connectedPlayers(),
		Restart: true,
	}))
}

// finish 进入终局阶段，只有第一次调用生效
func (r *Room) finish(out Outcome) {
	if r.finished {
		return
	}
	r.finished = true
	r.phase = PhaseFinished

	// 对局结束后游戏侧定时器全部作废
	for at := range r.variantTimers {
		stopTimer(at)
	}
	r.variantTimers = make(map[*ActorTimer]struct{})
	r.stopSimulation()

	winnerID := ""
	if out.WinnerSlot >= 0 && out.WinnerSlot < len(r.slots) && r.slots[out.WinnerSlot] != nil {
		winnerID = r.slots[out.WinnerSlot].Identity.UserID
	}

	log.Printf("🏁 房间 %s 对局结束: winner_slot=%d reason=%s", r.ID, out.WinnerSlot, out.Reason)

	r.broadcast(protocol.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{
		WinnerSlot: out.WinnerSlot,
		WinnerID:   winnerID,
		Reason:     out.Reason,
		Detail:     out.Detail,
	}))

	r.reportResult(out, winnerID)

	// 状态可能还有尾款要同步（比分、终局面板）
	r.broadcastDeltas()
}

// reportResult 上报对局结果，每个房间恰好一次（fire-and-forget）
func (r *Room) reportResult(out Outcome, winnerID string) {
	if r.results == nil {
		return
	}

	result := &storage.MatchResult{
		RoomID:   r.ID,
		GameType: r.GameType,
		WinnerID: winnerID,
		Reason:   out.Reason,
		Duration: time.Since(r.startedAt),
	}
	for _, p := range r.slots {
		if p == nil {
			continue
		}
		result.Participants = append(result.Participants, storage.ParticipantResult{
			UserID:      p.Identity.UserID,
			DisplayName: p.Identity.DisplayName,
			Slot:        p.Slot,
			Won:         p.Slot == out.WinnerSlot,
			Forfeited:   out.Reason == "forfeit" && p.Slot != out.WinnerSlot,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.results.Report(ctx, result); err != nil {
			log.Printf("⚠️ 房间 %s 对局结果上报失败: %v", r.ID, err)
		}
	}()
}
