package room

import (
	"github.com/palemoky/gameroom/internal/auth"
	"github.com/palemoky/gameroom/internal/types"
)

// Role 参与者角色
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Phase 房间生命周期阶段
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// Participant 房间中的参与者
// 槽位和身份跨重连不变，连接 ID 在每次重连后更新
type Participant struct {
	Slot      int // 观战者为 -1
	Identity  auth.Identity
	ConnID    string
	Client    types.ClientInterface
	Connected bool
	Ready     bool
	Role      Role
}

// viewpoint 返回该参与者的观察视角
func (p *Participant) viewpoint() Viewpoint {
	return Viewpoint{Slot: p.Slot, Role: p.Role}
}
