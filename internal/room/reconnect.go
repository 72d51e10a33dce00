package room

import (
	"log"

	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/types"
)

// reconnectTicket 断线重连票据
// 票据在 tickets 表中的存在即其有效性：消费和过期都是一次性的删除，
// 二者互斥（唯一写者保证 compare-and-clear 语义）
type reconnectTicket struct {
	participant *Participant
	timer       *ActorTimer
}

// HandleDisconnect 处理连接异常断开（非主动离开）
func (r *Room) HandleDisconnect(connID string) {
	r.post(func() {
		p, ok := r.byConn[connID]
		if !ok {
			return
		}

		// 观战者断线直接移除，没有宽限期
		if p.Role == RoleSpectator {
			delete(r.byConn, connID)
			delete(r.lastSync, connID)
			delete(r.spectators, connID)
			if r.isEmpty() {
				r.scheduleIdleDispose()
			}
			return
		}

		// 终局后的断线视为永久离开
		if r.phase == PhaseFinished {
			r.removeParticipant(p, "left")
			return
		}

		delete(r.byConn, connID)
		delete(r.lastSync, connID)
		p.Connected = false
		p.Client = nil

		grace := r.cfg.Room.GraceDuration(r.GameType)
		log.Printf("📴 玩家 %s 在房间 %s 掉线，等待重连 %v", p.Identity.DisplayName, r.ID, grace)

		r.broadcast(protocol.MustNewMessage(protocol.MsgParticipantOffline, protocol.ParticipantOfflinePayload{
			Slot:        p.Slot,
			DisplayName: p.Identity.DisplayName,
			Grace:       int(grace.Seconds()),
		}))

		ticket := &reconnectTicket{participant: p}
		ticket.timer = r.after(grace, func() {
			r.expireTicket(p.Identity.UserID)
		})
		r.tickets[p.Identity.UserID] = ticket

		// 倒计时期间有人掉线，退回等待
		if r.phase == PhaseCountdown {
			r.cancelCountdown()
		}
	})
}

// consumeTicket 消费重连票据，重新绑定连接
// 从表中删除即消费，与过期互斥，最多发生一次
func (r *Room) consumeTicket(ticket *reconnectTicket, client types.ClientInterface) *JoinResult {
	p := ticket.participant
	delete(r.tickets, p.Identity.UserID)
	stopTimer(ticket.timer)

	res := r.rebindSeat(p, client)

	log.Printf("📶 玩家 %s 重连回房间 %s (槽位 %d)", p.Identity.DisplayName, r.ID, p.Slot)

	r.broadcastExcept(p.ConnID, protocol.MustNewMessage(protocol.MsgParticipantOnline, protocol.ParticipantOnlinePayload{
		Slot:        p.Slot,
		DisplayName: p.Identity.DisplayName,
	}))

	return res
}

// expireTicket 宽限期到期，执行永久离开与判负策略
func (r *Room) expireTicket(userID string) {
	ticket, ok := r.tickets[userID]
	if !ok {
		return // 已被重连消费
	}
	delete(r.tickets, userID)

	p := ticket.participant
	log.Printf("⏰ 玩家 %s 重连超时，释放房间 %s 的槽位 %d", p.Identity.DisplayName, r.ID, p.Slot)

	r.removeParticipant(p, "grace_expired")
}
