package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/gameroom/internal/protocol"
)

// joinTwoReady 两个玩家入座并全部准备
func joinTwoReady(t *testing.T, r *Room) (*fakeClient, *fakeClient) {
	t.Helper()
	c0, c1 := newFakeClient("c0"), newFakeClient("c1")
	_, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	_, err = r.Join(c1, testIdentity("u1"), JoinOptions{})
	require.NoError(t, err)
	r.HandleReady(c0.GetID(), true)
	r.HandleReady(c1.GetID(), true)
	return c0, c1
}

func TestLifecycle_AllReadyStartsGame(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0, _ := joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhasePlaying, waitTimeout))

	assert.NotEmpty(t, c0.messagesOfType(protocol.MsgGameStart))
}

func TestLifecycle_NotEnoughPlayersStaysWaiting(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0 := newFakeClient("c0")
	_, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	r.HandleReady(c0.GetID(), true)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, PhaseWaiting, r.CurrentPhase())
}

func TestLifecycle_CancelReadyAbortsCountdown(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Room.Countdown = 30
	r := newTestRoom(cfg, 2, 2)
	defer r.Dispose()

	c0, _ := joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhaseCountdown, waitTimeout))

	r.HandleReady(c0.GetID(), false)
	require.True(t, waitPhase(r, PhaseWaiting, waitTimeout))
}

func TestHandleInput_AuthorizationBoundary(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0 := newFakeClient("c0")
	_, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	// 开局前的输入被拒绝
	r.HandleInput(c0.GetID(), &protocol.InputPayload{Action: "move"})
	require.Eventually(t, func() bool {
		return hasErrorCode(c0, protocol.ErrCodeWrongPhase)
	}, waitTimeout, pollInterval)
}

func TestHandleInput_SpectatorRejected(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	_, _ = joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhasePlaying, waitTimeout))

	spec := newFakeClient("spec")
	_, err := r.Join(spec, testIdentity("u-spec"), JoinOptions{Spectator: true})
	require.NoError(t, err)

	r.HandleInput(spec.GetID(), &protocol.InputPayload{Action: "move"})
	require.Eventually(t, func() bool {
		return hasErrorCode(spec, protocol.ErrCodeSpectatorInput)
	}, waitTimeout, pollInterval)
}

func TestHandleInput_FailedCommandReturnsError(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0, _ := joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhasePlaying, waitTimeout))

	r.HandleInput(c0.GetID(), &protocol.InputPayload{Action: "bad"})
	require.Eventually(t, func() bool {
		return hasErrorCode(c0, protocol.ErrCodeInvalidCommand)
	}, waitTimeout, pollInterval)
}

func TestFinish_ExactlyOnce(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0, c1 := joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhasePlaying, waitTimeout))

	// 两次取胜指令只产生一次终局
	r.HandleInput(c0.GetID(), &protocol.InputPayload{Action: "win"})
	r.HandleInput(c1.GetID(), &protocol.InputPayload{Action: "win"})
	require.True(t, waitPhase(r, PhaseFinished, waitTimeout))

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, c0.messagesOfType(protocol.MsgGameOver), 1)
	assert.Len(t, c1.messagesOfType(protocol.MsgGameOver), 1)
}

func TestRematch_RequiresAllConnectedPlayers(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0, c1 := joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhasePlaying, waitTimeout))
	r.HandleInput(c0.GetID(), &protocol.InputPayload{Action: "win"})
	require.True(t, waitPhase(r, PhaseFinished, waitTimeout))

	// 第一票：进度广播但不重开
	r.HandleRematch(c0.GetID())
	require.Eventually(t, func() bool {
		return len(c0.messagesOfType(protocol.MsgRematchState)) >= 1
	}, waitTimeout, pollInterval)
	assert.Equal(t, PhaseFinished, r.CurrentPhase())

	// 重复投票不计数
	r.HandleRematch(c0.GetID())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, PhaseFinished, r.CurrentPhase())

	// 第二票：重开，回到等待且准备状态清空
	r.HandleRematch(c1.GetID())
	require.True(t, waitPhase(r, PhaseWaiting, waitTimeout))

	restarted := false
	for _, msg := range c0.messagesOfType(protocol.MsgRematchState) {
		payload, err := protocol.ParsePayload[protocol.RematchStatePayload](msg)
		require.NoError(t, err)
		if payload.Restart {
			restarted = true
		}
	}
	assert.True(t, restarted)
}

func TestRematch_RejectedBeforeFinish(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0 := newFakeClient("c0")
	_, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	r.HandleRematch(c0.GetID())
	require.Eventually(t, func() bool {
		return hasErrorCode(c0, protocol.ErrCodeWrongPhase)
	}, waitTimeout, pollInterval)
}

func TestIdleDisposal_EmptyRoomReclaimed(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)

	// 没人进来的房间在空置超时后回收
	require.Eventually(t, func() bool {
		return r.IsDisposed()
	}, 3*time.Second, 50*time.Millisecond)
}

func TestIdleDisposal_CancelledByJoin(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	_, err := r.Join(newFakeClient("c0"), testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	// 有人在场就不回收
	time.Sleep(1300 * time.Millisecond)
	assert.False(t, r.IsDisposed())
}

func TestDispose_AfterFinishWhenEmptied(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)

	c0, c1 := joinTwoReady(t, r)
	require.True(t, waitPhase(r, PhasePlaying, waitTimeout))
	r.HandleInput(c0.GetID(), &protocol.InputPayload{Action: "win"})
	require.True(t, waitPhase(r, PhaseFinished, waitTimeout))

	// 终局后所有人离开，房间立即回收
	r.HandleLeave(c0.GetID())
	r.HandleLeave(c1.GetID())
	require.Eventually(t, func() bool {
		return r.IsDisposed()
	}, waitTimeout, pollInterval)
}

// hasErrorCode 客户端是否收到过指定错误码
func hasErrorCode(c *fakeClient, code int) bool {
	for _, msg := range c.messagesOfType(protocol.MsgError) {
		payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
		if err == nil && payload.Code == code {
			return true
		}
	}
	return false
}
