// Package crossword 实现协作填字：所有玩家共同填写一张网格，
// 每次落笔服务端立即对照答案校验并广播对错，
// 整张网格填对即全员完成，没有对抗胜负。
package crossword

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
)

// GameType 玩法类型标识
const GameType = "crossword"

// Variant 协作填字
type Variant struct {
	env    room.Env
	puzzle *Puzzle

	grid    [][]string // 当前填写内容，空串表示未填
	correct [][]bool   // 对应格子是否已校验通过
	filled  int        // 校验通过的格子数
	need    int        // 非黑格总数
	started time.Time
	over    bool
}

// New 返回绑定谜面库的玩法构造函数
// 谜面库在启动装配阶段注入，运行期只读
func New(bank *Bank) room.Factory {
	return func(rng *rand.Rand) room.Variant {
		p := bank.Pick(int(rng.Uint64() % uint64(bank.Size())))
		v := &Variant{puzzle: p}
		v.grid = make([][]string, p.Rows)
		v.correct = make([][]bool, p.Rows)
		for r := 0; r < p.Rows; r++ {
			v.grid[r] = make([]string, p.Cols)
			v.correct[r] = make([]bool, p.Cols)
			for c := 0; c < p.Cols; c++ {
				if !p.Blocked[r][c] {
					v.need++
				}
			}
		}
		return v
	}
}

func (v *Variant) GameType() string { return GameType }
func (v *Variant) MinPlayers() int  { return 2 }
func (v *Variant) MaxPlayers() int  { return 4 }
func (v *Variant) Continuous() bool { return false }

// Begin 开局
func (v *Variant) Begin(env room.Env) {
	v.env = env
	v.started = time.Now()
}

// cellCommand 落笔指令参数
type cellCommand struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter,omitempty"`
}

// HandleCommand 处理填写/擦除指令
// 越界或落在黑格上直接拒绝，状态不变
func (v *Variant) HandleCommand(slot int, action string, data json.RawMessage) error {
	if v.over {
		return apperrors.ErrWrongPhase
	}

	var cmd cellCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return apperrors.ErrInvalidCommand
	}
	if cmd.Row < 0 || cmd.Row >= v.puzzle.Rows || cmd.Col < 0 || cmd.Col >= v.puzzle.Cols {
		return apperrors.ErrInvalidCommand
	}
	if v.puzzle.Blocked[cmd.Row][cmd.Col] {
		return apperrors.ErrInvalidCommand
	}

	switch action {
	case "set_cell":
		letter := strings.ToUpper(strings.TrimSpace(cmd.Letter))
		if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
			return apperrors.ErrInvalidCommand
		}
		v.setCell(slot, cmd.Row, cmd.Col, letter)
		return nil

	case "clear_cell":
		v.clearCell(cmd.Row, cmd.Col)
		return nil

	default:
		return apperrors.ErrInvalidCommand
	}
}

// setCell 填写一格并立即校验
func (v *Variant) setCell(slot, row, col int, letter string) {
	wasCorrect := v.correct[row][col]
	v.grid[row][col] = letter
	v.correct[row][col] = letter == v.puzzle.Solution[row][col]

	switch {
	case v.correct[row][col] && !wasCorrect:
		v.filled++
	case !v.correct[row][col] && wasCorrect:
		v.filled--
	}

	v.env.Broadcast(protocol.MustNewMessage(protocol.MsgGameEvent, protocol.GameEventPayload{
		Event: "cell_checked",
		Data: map[string]any{
			"slot":    slot,
			"row":     row,
			"col":     col,
			"letter":  letter,
			"correct": v.correct[row][col],
		},
	}))

	// 每次变更后整盘检查，填满且全对即完成
	if v.filled == v.need {
		v.complete()
	}
}

// clearCell 擦除一格
func (v *Variant) clearCell(row, col int) {
	if v.grid[row][col] == "" {
		return
	}
	if v.correct[row][col] {
		v.filled--
	}
	v.grid[row][col] = ""
	v.correct[row][col] = false
}

// complete 全员完成，答案随终局公布
func (v *Variant) complete() {
	v.over = true
	v.env.Finish(room.Outcome{
		WinnerSlot: -1,
		Reason:     "completed",
		Detail: map[string]any{
			"puzzle":   v.puzzle.ID,
			"duration": int(time.Since(v.started).Seconds()),
			"solution": v.puzzle.Solution,
		},
	})
}

// ParticipantLeft 协作玩法：有人永久离开则整局中止
func (v *Variant) ParticipantLeft(_ int) {
	if !v.over {
		v.over = true
		v.env.Finish(room.Outcome{
			WinnerSlot: -1,
			Reason:     "incomplete",
			Detail: map[string]any{
				"puzzle":   v.puzzle.ID,
				"progress": v.filled,
				"total":    v.need,
			},
		})
	}
}

// Sync 构建同步投影
// 谜面布局、提示和当前填写内容对所有人可见（含观战），答案绝不下发
func (v *Variant) Sync(_ room.Viewpoint) map[string]any {
	grid := make([][]map[string]any, v.puzzle.Rows)
	for r := 0; r < v.puzzle.Rows; r++ {
		grid[r] = make([]map[string]any, v.puzzle.Cols)
		for c := 0; c < v.puzzle.Cols; c++ {
			cell := map[string]any{"blocked": v.puzzle.Blocked[r][c]}
			if !v.puzzle.Blocked[r][c] {
				cell["letter"] = v.grid[r][c]
				cell["correct"] = v.correct[r][c]
			}
			grid[r][c] = cell
		}
	}
	return map[string]any{
		"puzzle":   v.puzzle.ID,
		"rows":     v.puzzle.Rows,
		"cols":     v.puzzle.Cols,
		"clues":    v.puzzle.Clues,
		"grid":     grid,
		"progress": v.filled,
		"total":    v.need,
	}
}
