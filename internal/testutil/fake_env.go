//go:build !production

package testutil

import (
	"math/rand/v2"
	"time"

	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
)

// FakeTimer FakeEnv 记录的定时器注册
type FakeTimer struct {
	Delay   time.Duration
	Fn      func()
	Fired   bool
	Stopped bool
}

// FakeEnv 玩法测试用的 room.Env 实现
// 单线程使用：测试自己驱动定时器回调，模拟房间协程的串行语义
type FakeEnv struct {
	Broadcasts []*protocol.Message
	Sent       map[int][]*protocol.Message
	Outcome    *room.Outcome
	Timers     []*FakeTimer
	Rng        *rand.Rand

	handles map[*room.ActorTimer]*FakeTimer
}

// NewFakeEnv 创建测试环境（固定种子，可复现）
func NewFakeEnv() *FakeEnv {
	return &FakeEnv{
		Sent:    make(map[int][]*protocol.Message),
		Rng:     rand.New(rand.NewPCG(1, 2)),
		handles: make(map[*room.ActorTimer]*FakeTimer),
	}
}

func (e *FakeEnv) Broadcast(msg *protocol.Message) {
	e.Broadcasts = append(e.Broadcasts, msg)
}

func (e *FakeEnv) SendToSlot(slot int, msg *protocol.Message) {
	e.Sent[slot] = append(e.Sent[slot], msg)
}

func (e *FakeEnv) Finish(out room.Outcome) {
	if e.Outcome == nil {
		e.Outcome = &out
	}
}

func (e *FakeEnv) After(d time.Duration, fn func()) *room.ActorTimer {
	ft := &FakeTimer{Delay: d, Fn: fn}
	e.Timers = append(e.Timers, ft)
	at := &room.ActorTimer{}
	e.handles[at] = ft
	return at
}

func (e *FakeEnv) Cancel(at *room.ActorTimer) {
	if ft, ok := e.handles[at]; ok {
		ft.Stopped = true
	}
}

func (e *FakeEnv) Rand() *rand.Rand { return e.Rng }

// FireNext 触发最早注册的未触发、未取消定时器
func (e *FakeEnv) FireNext() bool {
	for _, t := range e.Timers {
		if !t.Fired && !t.Stopped {
			t.Fired = true
			t.Fn()
			return true
		}
	}
	return false
}

// PendingTimers 未触发且未取消的定时器数
func (e *FakeEnv) PendingTimers() int {
	n := 0
	for _, t := range e.Timers {
		if !t.Fired && !t.Stopped {
			n++
		}
	}
	return n
}

// BroadcastsOfType 返回指定类型的广播消息
func (e *FakeEnv) BroadcastsOfType(t protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, msg := range e.Broadcasts {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}
