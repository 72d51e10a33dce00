package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix = "result:"
	winsKeyPrefix   = "wins:"

	// 对局结果保留时间，长期统计由外部服务消费
	resultExpiration = 7 * 24 * time.Hour
)

// ParticipantResult 单个玩家的对局摘要
type ParticipantResult struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Slot        int    `json:"slot"`
	Won         bool   `json:"won"`
	Forfeited   bool   `json:"forfeited,omitempty"`
}

// MatchResult 一场对局的最终结果，每个房间只上报一次
type MatchResult struct {
	RoomID       string              `json:"room_id"`
	GameType     string              `json:"game_type"`
	WinnerID     string              `json:"winner_id,omitempty"`
	Reason       string              `json:"reason"`
	Duration     time.Duration       `json:"duration"`
	Participants []ParticipantResult `json:"participants"`
	FinishedAt   int64               `json:"finished_at"`
}

// ResultReporter 对局结果上报器
// 对框架来说是 fire-and-forget：失败只记日志，不重试不阻塞
type ResultReporter struct {
	client *redis.Client
}

// NewResultReporter 创建结果上报器
func NewResultReporter(client *redis.Client) *ResultReporter {
	return &ResultReporter{client: client}
}

// Report 上报对局结果并累计胜场
func (rr *ResultReporter) Report(ctx context.Context, result *MatchResult) error {
	if result == nil {
		return nil
	}

	result.FinishedAt = time.Now().Unix()
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化对局结果失败: %w", err)
	}

	key := resultKeyPrefix + result.RoomID
	if err := rr.client.Set(ctx, key, jsonData, resultExpiration).Err(); err != nil {
		return err
	}

	// 按游戏类型累计胜场排行
	if result.WinnerID != "" {
		winsKey := winsKeyPrefix + result.GameType
		if err := rr.client.ZIncrBy(ctx, winsKey, 1, result.WinnerID).Err(); err != nil {
			return err
		}
	}

	return nil
}

// TopWinners 查询指定游戏类型的胜场排行
func (rr *ResultReporter) TopWinners(ctx context.Context, gameType string, limit int64) ([]redis.Z, error) {
	winsKey := winsKeyPrefix + gameType
	return rr.client.ZRevRangeWithScores(ctx, winsKey, 0, limit-1).Result()
}
