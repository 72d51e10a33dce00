package room

import (
	"log"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/auth"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/types"
)

// JoinOptions 加入选项
type JoinOptions struct {
	Spectator bool
}

// JoinResult 入座结果
type JoinResult struct {
	Slot        int // 观战者为 -1
	Role        Role
	Phase       Phase
	Reconnected bool
	State       map[string]any // 完整同步状态
}

// Join 处理一次加入请求
// 同一连接的并发加入在房间协程内串行化，只会得到一次席位
func (r *Room) Join(client types.ClientInterface, identity auth.Identity, opts JoinOptions) (*JoinResult, error) {
	type reply struct {
		res *JoinResult
		err error
	}
	ch := make(chan reply, 1)
	ok := r.post(func() {
		res, err := r.join(client, identity, opts)
		ch <- reply{res, err}
	})
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	select {
	case rep := <-ch:
		return rep.res, rep.err
	case <-r.done:
		return nil, apperrors.ErrRoomNotFound
	}
}

// join 房间协程内的入座逻辑
func (r *Room) join(client types.ClientInterface, identity auth.Identity, opts JoinOptions) (*JoinResult, error) {
	if r.disposed {
		return nil, apperrors.ErrRoomNotFound
	}

	// 幂等：同一连接重复加入，直接返回已有席位
	if p, ok := r.byConn[client.GetID()]; ok {
		return r.joinResult(p, false), nil
	}

	// 重连：身份持有待消费的票据
	if ticket, ok := r.tickets[identity.UserID]; ok {
		return r.consumeTicket(ticket, client), nil
	}

	// 顶号：同一身份从新设备进来，旧连接让位
	for _, p := range r.slots {
		if p != nil && p.Identity.UserID == identity.UserID {
			return r.rebindSeat(p, client), nil
		}
	}

	wantSeat := !opts.Spectator
	if wantSeat {
		slot := r.freeSlot()
		if slot >= 0 && r.phase == PhaseWaiting {
			return r.seat(client, identity, slot), nil
		}
		// 没有空位或已开局：降级为观战
		if len(r.spectators) >= r.cfg.Room.MaxSpectators {
			return nil, apperrors.ErrRoomFull
		}
		return r.spectate(client, identity), nil
	}

	if len(r.spectators) >= r.cfg.Room.MaxSpectators {
		return nil, apperrors.ErrSpectatorFull
	}
	return r.spectate(client, identity), nil
}

// freeSlot 返回第一个空槽位，满员返回 -1
func (r *Room) freeSlot() int {
	for i, p := range r.slots {
		if p == nil {
			return i
		}
	}
	return -1
}

// seat 占用一个玩家槽位
func (r *Room) seat(client types.ClientInterface, identity auth.Identity, slot int) *JoinResult {
	p := &Participant{
		Slot:      slot,
		Identity:  identity,
		ConnID:    client.GetID(),
		Client:    client,
		Connected: true,
		Role:      RolePlayer,
	}
	r.slots[slot] = p
	r.byConn[p.ConnID] = p
	client.SetRoom(r.ID)

	// 有人进来，取消空置回收
	stopTimer(r.idleTimer)
	r.idleTimer = nil

	log.Printf("👤 玩家 %s 入座房间 %s (槽位 %d)", identity.DisplayName, r.ID, slot)

	r.broadcastExcept(p.ConnID, protocol.MustNewMessage(protocol.MsgParticipantJoined, protocol.ParticipantJoinedPayload{
		Slot:        slot,
		DisplayName: identity.DisplayName,
		Role:        string(RolePlayer),
	}))

	return r.joinResult(p, false)
}

// spectate 加入观战席
func (r *Room) spectate(client types.ClientInterface, identity auth.Identity) *JoinResult {
	p := &Participant{
		Slot:      -1,
		Identity:  identity,
		ConnID:    client.GetID(),
		Client:    client,
		Connected: true,
		Role:      RoleSpectator,
	}
	r.spectators[p.ConnID] = p
	r.byConn[p.ConnID] = p
	client.SetRoom(r.ID)

	stopTimer(r.idleTimer)
	r.idleTimer = nil

	log.Printf("👀 观战者 %s 进入房间 %s", identity.DisplayName, r.ID)

	r.broadcastExcept(p.ConnID, protocol.MustNewMessage(protocol.MsgParticipantJoined, protocol.ParticipantJoinedPayload{
		Slot:        -1,
		DisplayName: identity.DisplayName,
		Role:        string(RoleSpectator),
	}))

	return r.joinResult(p, false)
}

// rebindSeat 同一身份换连接接管座位（顶号或票据消费共用）
func (r *Room) rebindSeat(p *Participant, client types.ClientInterface) *JoinResult {
	if p.Client != nil {
		p.Client.SetRoom("")
		p.Client.Close()
	}
	delete(r.byConn, p.ConnID)
	delete(r.lastSync, p.ConnID)

	p.ConnID = client.GetID()
	p.Client = client
	p.Connected = true
	r.byConn[p.ConnID] = p
	client.SetRoom(r.ID)

	return r.joinResult(p, true)
}

// joinResult 构建入座结果，并登记完整同步基线
func (r *Room) joinResult(p *Participant, reconnected bool) *JoinResult {
	full := r.syncFor(p.viewpoint())
	r.lastSync[p.ConnID] = full
	return &JoinResult{
		Slot:        p.Slot,
		Role:        p.Role,
		Phase:       r.phase,
		Reconnected: reconnected,
		State:       full,
	}
}

// HandleReady 处理准备/取消准备
func (r *Room) HandleReady(connID string, ready bool) {
	r.post(func() {
		p, ok := r.byConn[connID]
		if !ok || p.Role != RolePlayer {
			return
		}
		switch r.phase {
		case PhaseWaiting:
			p.Ready = ready
			if ready {
				r.maybeStartCountdown()
			}
		case PhaseCountdown:
			// 倒计时期间反悔，退回等待
			if !ready {
				p.Ready = false
				r.cancelCountdown()
			}
		default:
			r.sendError(p, apperrors.ErrWrongPhase)
		}
	})
}

// HandleLeave 处理主动离开（不走重连宽限）
func (r *Room) HandleLeave(connID string) {
	r.post(func() {
		p, ok := r.byConn[connID]
		if !ok {
			return
		}
		r.removeParticipant(p, "left")
	})
}

// removeParticipant 永久移除参与者并触发善后
func (r *Room) removeParticipant(p *Participant, reason string) {
	delete(r.byConn, p.ConnID)
	delete(r.lastSync, p.ConnID)
	delete(r.rematchVotes, p.ConnID)
	if p.Client != nil {
		p.Client.SetRoom("")
	}

	if p.Role == RoleSpectator {
		delete(r.spectators, p.ConnID)
	} else {
		delete(r.tickets, p.Identity.UserID)

		log.Printf("👋 玩家 %s 离开房间 %s (槽位 %d, %s)", p.Identity.DisplayName, r.ID, p.Slot, reason)

		r.broadcast(protocol.MustNewMessage(protocol.MsgParticipantLeft, protocol.ParticipantLeftPayload{
			Slot:        p.Slot,
			DisplayName: p.Identity.DisplayName,
			Reason:      reason,
		}))

		// 判负/中止策略先于清位执行，让结算还能看到离开者
		switch r.phase {
		case PhaseCountdown:
			r.cancelCountdown()
		case PhasePlaying:
			r.variant.ParticipantLeft(p.Slot)
		}
		r.slots[p.Slot] = nil
	}

	if r.isEmpty() {
		if r.phase == PhaseFinished {
			// 终局后无人等待重连，立即回收
			r.dispose()
		} else {
			r.scheduleIdleDispose()
		}
	}
}

// sendError 向参与者发送带错误码的错误消息
func (r *Room) sendError(p *Participant, err error) {
	if p.Client == nil {
		return
	}
	if re, ok := err.(*apperrors.RoomError); ok {
		p.Client.SendMessage(protocol.NewErrorMessageWithText(re.Code, re.Message))
		return
	}
	p.Client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
}
