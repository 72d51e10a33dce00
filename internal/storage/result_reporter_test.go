package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultReporter_Report(t *testing.T) {
	client, mr := newTestRedis(t)
	reporter := NewResultReporter(client)
	ctx := context.Background()

	result := &MatchResult{
		RoomID:   "room-1",
		GameType: "flip",
		WinnerID: "u1",
		Reason:   "victory",
		Duration: 3 * time.Minute,
		Participants: []ParticipantResult{
			{UserID: "u1", DisplayName: "张三", Slot: 0, Won: true},
			{UserID: "u2", DisplayName: "李四", Slot: 1},
		},
	}
	require.NoError(t, reporter.Report(ctx, result))

	// 结果落盘
	raw, err := mr.Get("result:room-1")
	require.NoError(t, err)
	var stored MatchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "u1", stored.WinnerID)
	assert.Len(t, stored.Participants, 2)
	assert.NotZero(t, stored.FinishedAt)

	// 胜场累计
	score, err := mr.ZScore("wins:flip", "u1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), score)
}

func TestResultReporter_NoWinnerSkipsLeaderboard(t *testing.T) {
	client, mr := newTestRedis(t)
	reporter := NewResultReporter(client)

	// 合作玩法没有胜者，不进排行
	require.NoError(t, reporter.Report(context.Background(), &MatchResult{
		RoomID:   "room-2",
		GameType: "crossword",
		Reason:   "completed",
	}))

	assert.False(t, mr.Exists("wins:crossword"))
}

func TestResultReporter_TopWinners(t *testing.T) {
	client, _ := newTestRedis(t)
	reporter := NewResultReporter(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, reporter.Report(ctx, &MatchResult{
			RoomID: "r" + string(rune('a'+i)), GameType: "flip", WinnerID: "u1", Reason: "victory",
		}))
	}
	require.NoError(t, reporter.Report(ctx, &MatchResult{
		RoomID: "rz", GameType: "flip", WinnerID: "u2", Reason: "victory",
	}))

	top, err := reporter.TopWinners(ctx, "flip", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "u1", top[0].Member)
	assert.Equal(t, float64(3), top[0].Score)
}
