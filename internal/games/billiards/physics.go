package billiards

import "math"

// 桌面参数：左下角为原点，单位为抽象长度
const (
	tableWidth  = 200.0
	tableHeight = 100.0
	ballRadius  = 2.5
	pocketRange = 6.0 // 球心距袋口小于该值即落袋

	maxShotSpeed = 160.0 // power=1 时的初速
	friction     = 24.0  // 每秒速度衰减
	stepDt       = 1.0 / 240.0
	speedEpsilon = 0.5
)

// Vec 平面向量
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) length() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec) normalize() Vec {
	l := v.length()
	if l == 0 {
		return Vec{}
	}
	return v.scale(1 / l)
}

// 四个角袋
var pockets = []Vec{
	{0, 0},
	{tableWidth, 0},
	{0, tableHeight},
	{tableWidth, tableHeight},
}

// Ball 一颗球
type Ball struct {
	ID     int  `json:"id"` // 0 为母球
	Group  int  `json:"group"`
	Pos    Vec  `json:"pos"`
	InPlay bool `json:"in_play"`
}

// shotResult 一杆的结算事实
type shotResult struct {
	firstContact int   // 首次接触的球 ID，-1 表示空杆
	pocketed     []int // 本杆落袋的球 ID（含母球）
	cuePocketed  bool
}

// simulate 确定性地推演一杆
// 简化动力学：同一时刻只有一颗球在运动，碰撞时运动球停下，
// 剩余速度沿球心连线传给被撞球。固定步长积分保证可复现。
func simulate(balls map[int]*Ball, angle, power float64) shotResult {
	res := shotResult{firstContact: -1}

	power = math.Max(0, math.Min(1, power))
	moving := balls[0]
	vel := Vec{math.Cos(angle), math.Sin(angle)}.scale(power * maxShotSpeed)

	for {
		speed := vel.length()
		if speed < speedEpsilon {
			break
		}

		moving.Pos = moving.Pos.add(vel.scale(stepDt))

		// 摩擦减速
		newSpeed := speed - friction*stepDt
		if newSpeed < 0 {
			newSpeed = 0
		}
		vel = vel.normalize().scale(newSpeed)

		// 落袋判定优先于库边反弹
		if inPocket(moving.Pos) {
			moving.InPlay = false
			res.pocketed = append(res.pocketed, moving.ID)
			if moving.ID == 0 {
				res.cuePocketed = true
			}
			break
		}

		// 库边反弹
		if moving.Pos.X < ballRadius {
			moving.Pos.X = ballRadius
			vel.X = -vel.X
		} else if moving.Pos.X > tableWidth-ballRadius {
			moving.Pos.X = tableWidth - ballRadius
			vel.X = -vel.X
		}
		if moving.Pos.Y < ballRadius {
			moving.Pos.Y = ballRadius
			vel.Y = -vel.Y
		} else if moving.Pos.Y > tableHeight-ballRadius {
			moving.Pos.Y = tableHeight - ballRadius
			vel.Y = -vel.Y
		}

		// 撞球：运动球停下，剩余速度沿球心连线传递
		if hit := findContact(balls, moving); hit != nil {
			if res.firstContact < 0 {
				res.firstContact = hit.ID
			}
			dir := hit.Pos.sub(moving.Pos).normalize()
			// 分开到恰好相切，避免下一步重复判碰
			moving.Pos = hit.Pos.sub(dir.scale(2*ballRadius + 1e-6))
			vel = dir.scale(vel.length())
			moving = hit
		}
	}

	return res
}

// inPocket 球心是否进入袋口范围
func inPocket(p Vec) bool {
	for _, pk := range pockets {
		if p.sub(pk).length() < pocketRange {
			return true
		}
	}
	return false
}

// findContact 返回与运动球重叠的第一颗在场球（按 ID 序，保证确定性）
func findContact(balls map[int]*Ball, moving *Ball) *Ball {
	var hit *Ball
	for id := 0; id <= 15; id++ {
		b, ok := balls[id]
		if !ok || b == moving || !b.InPlay {
			continue
		}
		if b.Pos.sub(moving.Pos).length() < 2*ballRadius {
			if hit == nil {
				hit = b
			}
		}
	}
	return hit
}

// rackPositions 初始摆位：母球在左侧，两组各七颗在右侧三角区交错排列
func rackPositions() map[int]*Ball {
	balls := map[int]*Ball{
		0: {ID: 0, Group: -1, Pos: Vec{tableWidth * 0.25, tableHeight * 0.5}, InPlay: true},
	}
	apexX, apexY := tableWidth*0.7, tableHeight*0.5
	id := 1
	for row := 0; row < 5 && id <= 14; row++ {
		for i := 0; i <= row && id <= 14; i++ {
			group := (id - 1) % 2
			balls[id] = &Ball{
				ID:    id,
				Group: group,
				Pos: Vec{
					apexX + float64(row)*(2*ballRadius+0.5),
					apexY + (float64(i)-float64(row)/2)*(2*ballRadius+0.5),
				},
				InPlay: true,
			}
			id++
		}
	}
	return balls
}
