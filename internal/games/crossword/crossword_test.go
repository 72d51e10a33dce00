package crossword

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
	"github.com/palemoky/gameroom/internal/testutil"
)

// testPuzzle GO/ON 交叉的 3x3 谜面
func testPuzzle() *Puzzle {
	return &Puzzle{
		ID:   "test",
		Rows: 3,
		Cols: 3,
		Blocked: [][]bool{
			{false, false, true},
			{true, false, true},
			{true, true, true},
		},
		Solution: [][]string{
			{"G", "O", ""},
			{"", "N", ""},
			{"", "", ""},
		},
		Clues: []Clue{{Number: 1, Across: true, Row: 0, Col: 0, Text: "一门编程语言"}},
	}
}

func newTestVariant(t *testing.T) (*Variant, *testutil.FakeEnv) {
	t.Helper()
	env := testutil.NewFakeEnv()
	factory := New(NewBank(testPuzzle()))
	v := factory(rand.New(rand.NewPCG(1, 1))).(*Variant)
	v.Begin(env)
	return v, env
}

func cellCmd(row, col int, letter string) json.RawMessage {
	data, _ := json.Marshal(cellCommand{Row: row, Col: col, Letter: letter})
	return data
}

func TestSetCell_ValidatedAgainstSolution(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	// 填对
	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "g")))
	assert.True(t, v.correct[0][0])
	assert.Equal(t, 1, v.filled)

	// 填错：接受落笔但标记错误
	require.NoError(t, v.HandleCommand(1, "set_cell", cellCmd(0, 1, "X")))
	assert.False(t, v.correct[0][1])
	assert.Equal(t, 1, v.filled)

	// 每次落笔都有校验反馈
	events := env.BroadcastsOfType(protocol.MsgGameEvent)
	require.Len(t, events, 2)
	payload, err := protocol.ParsePayload[protocol.GameEventPayload](events[1])
	require.NoError(t, err)
	assert.Equal(t, "cell_checked", payload.Event)
	assert.Equal(t, false, payload.Data["correct"])
}

func TestSetCell_LowercaseNormalized(t *testing.T) {
	t.Parallel()
	v, _ := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(1, 1, " n ")))
	assert.True(t, v.correct[1][1])
	assert.Equal(t, "N", v.grid[1][1])
}

func TestSetCell_RejectsInvalidTargets(t *testing.T) {
	t.Parallel()
	v, _ := newTestVariant(t)

	// 越界
	assert.ErrorIs(t, v.HandleCommand(0, "set_cell", cellCmd(-1, 0, "A")), apperrors.ErrInvalidCommand)
	assert.ErrorIs(t, v.HandleCommand(0, "set_cell", cellCmd(0, 3, "A")), apperrors.ErrInvalidCommand)

	// 黑格
	assert.ErrorIs(t, v.HandleCommand(0, "set_cell", cellCmd(2, 2, "A")), apperrors.ErrInvalidCommand)

	// 非字母
	assert.ErrorIs(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "1")), apperrors.ErrInvalidCommand)
	assert.ErrorIs(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "AB")), apperrors.ErrInvalidCommand)

	// 拒绝的指令不改变状态
	assert.Equal(t, 0, v.filled)
}

func TestClearCell_RevertsProgress(t *testing.T) {
	t.Parallel()
	v, _ := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "G")))
	require.Equal(t, 1, v.filled)

	require.NoError(t, v.HandleCommand(0, "clear_cell", cellCmd(0, 0, "")))
	assert.Equal(t, 0, v.filled)
	assert.Equal(t, "", v.grid[0][0])
}

func TestCompletion_AllCorrectFinishesForEveryone(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "G")))
	require.NoError(t, v.HandleCommand(1, "set_cell", cellCmd(0, 1, "O")))
	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(1, 1, "N")))

	// 合作玩法：没有单独的胜者，答案随终局公布
	require.NotNil(t, env.Outcome)
	assert.Equal(t, -1, env.Outcome.WinnerSlot)
	assert.Equal(t, "completed", env.Outcome.Reason)
	assert.Contains(t, env.Outcome.Detail, "solution")

	assert.ErrorIs(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "G")), apperrors.ErrWrongPhase)
}

func TestCompletion_WrongLetterDoesNotFinish(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "G")))
	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 1, "O")))
	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(1, 1, "X")))

	assert.Nil(t, env.Outcome)

	// 改正最后一格后完成
	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(1, 1, "N")))
	require.NotNil(t, env.Outcome)
}

func TestParticipantLeft_AbortsAsIncomplete(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "G")))
	v.ParticipantLeft(0)

	require.NotNil(t, env.Outcome)
	assert.Equal(t, -1, env.Outcome.WinnerSlot)
	assert.Equal(t, "incomplete", env.Outcome.Reason)
	assert.Equal(t, 1, env.Outcome.Detail["progress"])
}

func TestSync_SolutionWithheld(t *testing.T) {
	t.Parallel()
	v, _ := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "set_cell", cellCmd(0, 0, "G")))

	for _, view := range []room.Viewpoint{
		{Slot: 0, Role: room.RolePlayer},
		{Slot: -1, Role: room.RoleSpectator},
	} {
		state := v.Sync(view)
		assert.NotContains(t, state, "solution")

		grid, ok := state["grid"].([][]map[string]any)
		require.True(t, ok)
		assert.Equal(t, "G", grid[0][0]["letter"])
		assert.Equal(t, true, grid[0][0]["correct"])
		assert.Equal(t, true, grid[2][2]["blocked"])
	}
}

func TestDefaultBank_SolutionsConsistent(t *testing.T) {
	t.Parallel()

	// 内置谜面的黑格布局与答案一致
	bank := DefaultBank()
	for i := 0; i < bank.Size(); i++ {
		p := bank.Pick(i)
		for r := 0; r < p.Rows; r++ {
			for c := 0; c < p.Cols; c++ {
				if p.Blocked[r][c] {
					assert.Empty(t, p.Solution[r][c], "%s (%d,%d)", p.ID, r, c)
				} else {
					assert.Len(t, p.Solution[r][c], 1, "%s (%d,%d)", p.ID, r, c)
				}
			}
		}
	}
}
