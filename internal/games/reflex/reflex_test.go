package reflex

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
	"github.com/palemoky/gameroom/internal/testutil"
)

func newTestVariant(t *testing.T) (*Variant, *testutil.FakeEnv) {
	t.Helper()
	env := testutil.NewFakeEnv()
	v := New(rand.New(rand.NewPCG(3, 3))).(*Variant)
	v.Begin(env)
	return v, env
}

// showStimulus 驱动定时器直到刺激信号出现
func showStimulusNow(t *testing.T, v *Variant, env *testutil.FakeEnv) {
	t.Helper()
	for v.roundPhase != phaseStimulusShown {
		require.True(t, env.FireNext(), "没有待触发的定时器")
	}
}

func TestBegin_SchedulesRandomStimulus(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	assert.Equal(t, phaseWaitingStimulus, v.roundPhase)
	require.Equal(t, 1, env.PendingTimers())

	// 随机延迟落在配置区间内
	delay := env.Timers[0].Delay
	assert.GreaterOrEqual(t, delay, minStimulusDelay)
	assert.Less(t, delay, maxStimulusDelay)
}

func TestPrematureInput_RecordedAsFaultNotError(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	// 信号出现前抢按：不算错误，但记为犯规
	require.NoError(t, v.HandleCommand(0, "react", nil))
	assert.True(t, v.faulted[0])

	events := env.BroadcastsOfType(protocol.MsgGameEvent)
	require.Len(t, events, 1)
	payload, err := protocol.ParsePayload[protocol.GameEventPayload](events[0])
	require.NoError(t, err)
	assert.Equal(t, "false_start", payload.Event)

	// 重复抢按不再重复广播
	require.NoError(t, v.HandleCommand(0, "react", nil))
	assert.Len(t, env.BroadcastsOfType(protocol.MsgGameEvent), 1)
}

func TestFaultedPlayerExcludedFromWinning(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	require.NoError(t, v.HandleCommand(0, "react", nil)) // 抢按
	showStimulusNow(t, v, env)

	// 对手做出有效反应后立即结算，犯规方不参与胜负
	require.NoError(t, v.HandleCommand(1, "react", nil))

	results := env.BroadcastsOfType(protocol.MsgRoundResult)
	require.Len(t, results, 1)
	payload, err := protocol.ParsePayload[protocol.RoundResultPayload](results[0])
	require.NoError(t, err)
	assert.Equal(t, 1, payload.WinnerSlot)
	assert.Equal(t, [2]int{0, 1}, v.wins)
}

func TestFasterReactionWins(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	showStimulusNow(t, v, env)
	require.NoError(t, v.HandleCommand(1, "react", nil))
	require.NoError(t, v.HandleCommand(0, "react", nil))

	// 先反应的一方用时更短
	results := env.BroadcastsOfType(protocol.MsgRoundResult)
	require.Len(t, results, 1)
	payload, err := protocol.ParsePayload[protocol.RoundResultPayload](results[0])
	require.NoError(t, err)
	assert.Equal(t, 1, payload.WinnerSlot)
}

func TestBothMiss_NoRoundWinner(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	showStimulusNow(t, v, env)

	// 没人反应，补时定时器触发结算
	require.True(t, env.FireNext())

	results := env.BroadcastsOfType(protocol.MsgRoundResult)
	require.Len(t, results, 1)
	payload, err := protocol.ParsePayload[protocol.RoundResultPayload](results[0])
	require.NoError(t, err)
	assert.Equal(t, -1, payload.WinnerSlot)
	assert.Equal(t, [2]int{0, 0}, v.wins)
	assert.Equal(t, 2, v.round)
}

func TestEarlyResolve_CancelsStragglerTimer(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	showStimulusNow(t, v, env)
	require.NoError(t, v.HandleCommand(1, "react", nil))
	require.NoError(t, v.HandleCommand(0, "react", nil))

	// 双方都已反应提前结算，补时定时器被取消，只剩回合间歇
	assert.Equal(t, phaseRoundResult, v.roundPhase)
	assert.Equal(t, 1, env.PendingTimers())

	// 间歇结束直接进入下一回合，本回合不会被重复结算
	require.True(t, env.FireNext())
	assert.Equal(t, 2, v.round)
	assert.Equal(t, phaseWaitingStimulus, v.roundPhase)
	assert.Len(t, env.BroadcastsOfType(protocol.MsgRoundResult), 1)
}

func TestDuplicateReactionRejected(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	showStimulusNow(t, v, env)
	require.NoError(t, v.HandleCommand(0, "react", nil))
	assert.ErrorIs(t, v.HandleCommand(0, "react", nil), apperrors.ErrInvalidCommand)
}

func TestFirstToThreeWinsMatch(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	// slot 0 连赢三回合
	for round := 1; round <= 3; round++ {
		showStimulusNow(t, v, env)
		require.NoError(t, v.HandleCommand(0, "react", nil))
		// 对手未反应，由补时定时器结算
		for v.roundPhase == phaseStimulusShown {
			require.True(t, env.FireNext())
		}
	}

	require.NotNil(t, env.Outcome)
	assert.Equal(t, 0, env.Outcome.WinnerSlot)
	assert.Equal(t, "victory", env.Outcome.Reason)

	// 终局后的输入被拒绝
	assert.ErrorIs(t, v.HandleCommand(1, "react", nil), apperrors.ErrWrongPhase)
}

func TestParticipantLeft_OpponentWinsByForfeit(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	v.ParticipantLeft(0)

	require.NotNil(t, env.Outcome)
	assert.Equal(t, 1, env.Outcome.WinnerSlot)
	assert.Equal(t, "forfeit", env.Outcome.Reason)
}

func TestSync_NeverExposesStimulusTiming(t *testing.T) {
	t.Parallel()
	v, env := newTestVariant(t)

	state := v.Sync(room.Viewpoint{Slot: 0, Role: room.RolePlayer})
	assert.Equal(t, phaseWaitingStimulus, state["phase"])
	assert.NotContains(t, state, "shown_at")
	assert.NotContains(t, state, "delay")

	// 出示信号前后，投影只通过阶段字段区分
	showStimulusNow(t, v, env)
	state = v.Sync(room.Viewpoint{Slot: -1, Role: room.RoleSpectator})
	assert.Equal(t, phaseStimulusShown, state["phase"])
}
