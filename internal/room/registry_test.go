package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/protocol"
)

func TestJoin_AssignsUniqueSlots(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0, c1 := newFakeClient("c0"), newFakeClient("c1")

	res0, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	res1, err := r.Join(c1, testIdentity("u1"), JoinOptions{})
	require.NoError(t, err)

	assert.Equal(t, RolePlayer, res0.Role)
	assert.Equal(t, RolePlayer, res1.Role)
	assert.NotEqual(t, res0.Slot, res1.Slot)
	assert.Equal(t, r.ID, c0.GetRoom())

	players, spectators := r.ParticipantCount()
	assert.Equal(t, 2, players)
	assert.Equal(t, 0, spectators)
}

func TestJoin_SameConnectionIdempotent(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c := newFakeClient("c0")
	res1, err := r.Join(c, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	// 同一连接重复加入只占一个席位
	res2, err := r.Join(c, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	assert.Equal(t, res1.Slot, res2.Slot)

	players, _ := r.ParticipantCount()
	assert.Equal(t, 1, players)
}

func TestJoin_FullRoomDemotesToSpectator(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	_, err := r.Join(newFakeClient("c0"), testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	_, err = r.Join(newFakeClient("c1"), testIdentity("u1"), JoinOptions{})
	require.NoError(t, err)

	// 第三个进来想当玩家，降级为观战
	res, err := r.Join(newFakeClient("c2"), testIdentity("u2"), JoinOptions{})
	require.NoError(t, err)
	assert.Equal(t, RoleSpectator, res.Role)
	assert.Equal(t, -1, res.Slot)
}

func TestJoin_SpectatorSeatsFull(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Room.MaxSpectators = 1
	r := newTestRoom(cfg, 2, 2)
	defer r.Dispose()

	_, err := r.Join(newFakeClient("c0"), testIdentity("u0"), JoinOptions{Spectator: true})
	require.NoError(t, err)

	// 观战席满后的显式观战请求被拒绝
	_, err = r.Join(newFakeClient("c1"), testIdentity("u1"), JoinOptions{Spectator: true})
	assert.ErrorIs(t, err, apperrors.ErrSpectatorFull)
}

func TestJoin_FullEverywhereRejected(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Room.MaxSpectators = 0
	r := newTestRoom(cfg, 1, 1)
	defer r.Dispose()

	_, err := r.Join(newFakeClient("c0"), testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	_, err = r.Join(newFakeClient("c1"), testIdentity("u1"), JoinOptions{})
	assert.ErrorIs(t, err, apperrors.ErrRoomFull)
}

func TestJoin_SameIdentityTakesOverSeat(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	old := newFakeClient("c-old")
	res1, err := r.Join(old, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	// 同一身份从新设备进来：顶号，旧连接被关闭
	fresh := newFakeClient("c-new")
	res2, err := r.Join(fresh, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	assert.Equal(t, res1.Slot, res2.Slot)
	assert.True(t, res2.Reconnected)
	assert.True(t, old.isClosed())

	players, _ := r.ParticipantCount()
	assert.Equal(t, 1, players)
}

func TestJoin_WelcomeStateContainsFullSync(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	res, err := r.Join(newFakeClient("c0"), testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)

	assert.Equal(t, "waiting", res.State["phase"])
	assert.Contains(t, res.State, "participants")
	assert.Contains(t, res.State, "game")
}

func TestJoin_OthersNotified(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0 := newFakeClient("c0")
	_, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	_, err = r.Join(newFakeClient("c1"), testIdentity("u1"), JoinOptions{})
	require.NoError(t, err)

	// 入座通知到达先来的玩家
	joined := c0.messagesOfType(protocol.MsgParticipantJoined)
	require.Len(t, joined, 1)
	payload, err := protocol.ParsePayload[protocol.ParticipantJoinedPayload](joined[0])
	require.NoError(t, err)
	assert.Equal(t, "玩家-u1", payload.DisplayName)
}

func TestHandleLeave_FreesSlotForNewPlayer(t *testing.T) {
	t.Parallel()
	r := newTestRoom(testConfig(), 2, 2)
	defer r.Dispose()

	c0 := newFakeClient("c0")
	res0, err := r.Join(c0, testIdentity("u0"), JoinOptions{})
	require.NoError(t, err)
	_, err = r.Join(newFakeClient("c1"), testIdentity("u1"), JoinOptions{})
	require.NoError(t, err)

	r.HandleLeave(c0.GetID())

	// 腾出的槽位可以被新玩家占用
	var res2 *JoinResult
	require.Eventually(t, func() bool {
		var err error
		res2, err = r.Join(newFakeClient("c2"), testIdentity("u2"), JoinOptions{})
		return err == nil && res2.Role == RolePlayer
	}, waitTimeout, pollInterval)
	assert.Equal(t, res0.Slot, res2.Slot)
}
