//go:build !production

package room

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/auth"
	"github.com/palemoky/gameroom/internal/config"
	"github.com/palemoky/gameroom/internal/protocol"
)

// 异步断言的等待参数
const (
	waitTimeout  = 2 * time.Second
	pollInterval = 10 * time.Millisecond
)

// fakeClient 测试用客户端，记录收到的消息
// 消息由房间协程写入，访问时必须走带锁的方法
type fakeClient struct {
	id   string
	name string

	mu        sync.Mutex
	roomID    string
	messages  []*protocol.Message
	closed    bool
	closeCode int
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, name: "玩家-" + id}
}

func (c *fakeClient) GetID() string       { return c.id }
func (c *fakeClient) GetName() string     { return c.name }
func (c *fakeClient) SetName(name string) { c.name = name }

func (c *fakeClient) GetRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *fakeClient) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

func (c *fakeClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) CloseWithCode(code int, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCode = code
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) messagesOfType(t protocol.MessageType) []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*protocol.Message
	for _, msg := range c.messages {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// stubVariant 测试用玩法：记录指令，"win" 指令直接取胜
type stubVariant struct {
	min, max int
	env      Env
	commands []string
	left     []int
	counter  int
}

func newStubFactory(min, max int) Factory {
	return func(_ *rand.Rand) Variant {
		return &stubVariant{min: min, max: max}
	}
}

func (v *stubVariant) GameType() string { return "stub" }
func (v *stubVariant) MinPlayers() int  { return v.min }
func (v *stubVariant) MaxPlayers() int  { return v.max }
func (v *stubVariant) Continuous() bool { return false }
func (v *stubVariant) Begin(env Env)    { v.env = env }

func (v *stubVariant) HandleCommand(slot int, action string, _ json.RawMessage) error {
	switch action {
	case "win":
		v.env.Finish(Outcome{WinnerSlot: slot, Reason: "victory"})
		return nil
	case "bad":
		return apperrors.ErrInvalidCommand
	default:
		v.commands = append(v.commands, action)
		v.counter++
		return nil
	}
}

func (v *stubVariant) ParticipantLeft(slot int) {
	v.left = append(v.left, slot)
	if v.env != nil {
		v.env.Finish(Outcome{WinnerSlot: 1 - slot, Reason: "forfeit"})
	}
}

func (v *stubVariant) Sync(view Viewpoint) map[string]any {
	state := map[string]any{"moves": v.counter}
	if view.Role == RolePlayer {
		state["secret"] = "slot-" + string(rune('0'+view.Slot))
	}
	return state
}

// testConfig 返回适合测试的配置：倒计时为零，宽限期和空置回收都压到 1 秒
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Room.Countdown = 0
	cfg.Room.IdleTimeout = 1
	cfg.Room.MaxSpectators = 2
	cfg.Room.GraceDefault = 1
	cfg.Room.Grace = map[string]int{"stub": 1}
	return cfg
}

// newTestRoom 创建用于测试的房间
func newTestRoom(cfg *config.Config, min, max int) *Room {
	catalog := NewCatalog()
	catalog.Register("stub", newStubFactory(min, max))
	r, err := New(cfg, catalog, "stub", "", nil, nil, nil)
	if err != nil {
		panic(err)
	}
	return r
}

func testIdentity(userID string) auth.Identity {
	return auth.Identity{UserID: userID, DisplayName: "玩家-" + userID}
}

// waitPhase 等待房间进入指定阶段
func waitPhase(r *Room, phase Phase, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if r.CurrentPhase() == phase {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return r.CurrentPhase() == phase
}
