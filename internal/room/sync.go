package room

import (
	"math/rand/v2"
	"reflect"
	"strconv"
	"time"

	"github.com/palemoky/gameroom/internal/protocol"
)

// syncFor 构建指定视角的同步状态
// 每次调用都生成全新的 map，作为增量比较的基线
func (r *Room) syncFor(view Viewpoint) map[string]any {
	participants := make(map[string]any)
	for _, p := range r.slots {
		if p == nil {
			continue
		}
		participants[strconv.Itoa(p.Slot)] = map[string]any{
			"name":      p.Identity.DisplayName,
			"avatar":    p.Identity.Avatar,
			"connected": p.Connected,
			"ready":     p.Ready,
		}
	}

	state := map[string]any{
		"phase":        string(r.phase),
		"participants": participants,
		"spectators":   len(r.spectators),
	}
	if r.phase == PhaseCountdown {
		state["countdown"] = r.countdown
	}
	if r.variant != nil {
		state["game"] = r.variant.Sync(view)
	}
	return state
}

// broadcastDeltas 广播一轮增量补丁
// 每个客户端只收到相对其上次快照变化的字段；
// 单协程 + 每连接有序发送通道保证补丁严格有序、字段永不回退
func (r *Room) broadcastDeltas() {
	if r.disposed {
		return
	}

	for connID, p := range r.byConn {
		if p.Client == nil || !p.Connected {
			continue
		}

		next := r.syncFor(p.viewpoint())
		patch := diffFields(r.lastSync[connID], next)
		if len(patch) == 0 {
			continue
		}
		r.lastSync[connID] = next

		p.Client.SendMessage(protocol.MustNewMessage(protocol.MsgSync, protocol.SyncPayload{
			Fields: patch,
		}))
	}
}

// diffFields 计算两份同步状态之间的字段差异
// 对嵌套 map 递归一层，只下发变化的子字段；被移除的字段置为 nil
func diffFields(prev, next map[string]any) map[string]any {
	patch := make(map[string]any)

	for key, nv := range next {
		pv, existed := prev[key]
		if !existed {
			patch[key] = nv
			continue
		}
		if reflect.DeepEqual(pv, nv) {
			continue
		}
		pm, pOK := pv.(map[string]any)
		nm, nOK := nv.(map[string]any)
		if pOK && nOK {
			patch[key] = diffFields(pm, nm)
		} else {
			patch[key] = nv
		}
	}

	for key := range prev {
		if _, ok := next[key]; !ok {
			patch[key] = nil
		}
	}

	return patch
}

// broadcast 向所有在线参与者发送消息
func (r *Room) broadcast(msg *protocol.Message) {
	for _, p := range r.byConn {
		if p.Client != nil && p.Connected {
			p.Client.SendMessage(msg)
		}
	}
}

// broadcastExcept 向除指定连接外的在线参与者发送消息
func (r *Room) broadcastExcept(connID string, msg *protocol.Message) {
	for id, p := range r.byConn {
		if id == connID {
			continue
		}
		if p.Client != nil && p.Connected {
			p.Client.SendMessage(msg)
		}
	}
}

// --- Env 实现 ---

// roomEnv 把房间能力暴露给玩法，所有调用都发生在房间协程内
type roomEnv struct {
	r *Room
}

func (r *Room) env() Env {
	return roomEnv{r: r}
}

func (e roomEnv) Broadcast(msg *protocol.Message) {
	e.r.broadcast(msg)
}

func (e roomEnv) SendToSlot(slot int, msg *protocol.Message) {
	if slot < 0 || slot >= len(e.r.slots) {
		return
	}
	p := e.r.slots[slot]
	if p != nil && p.Client != nil && p.Connected {
		p.Client.SendMessage(msg)
	}
}

func (e roomEnv) Finish(out Outcome) {
	e.r.finish(out)
}

func (e roomEnv) After(d time.Duration, fn func()) *ActorTimer {
	r := e.r
	var at *ActorTimer
	at = r.after(d, func() {
		delete(r.variantTimers, at)
		fn()
	})
	r.variantTimers[at] = struct{}{}
	return at
}

func (e roomEnv) Cancel(at *ActorTimer) {
	if at == nil {
		return
	}
	stopTimer(at)
	delete(e.r.variantTimers, at)
}

func (e roomEnv) Rand() *rand.Rand {
	return e.r.rng
}
