package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	snapshotKeyPrefix = "snapshot:"

	// 快照过期时间：超过一天没回来就当玩家弃档
	snapshotExpiration = 24 * time.Hour
)

// SnapshotRecord 连续模拟游戏的冷存档
// State 只含动态状态，目录/配置数据在加载后由玩法重新注入
type SnapshotRecord struct {
	CorrelationID string          `json:"correlation_id"`
	GameType      string          `json:"game_type"`
	RoomID        string          `json:"room_id"`
	Tick          uint64          `json:"tick"`
	State         json.RawMessage `json:"state"`
	SavedAt       int64           `json:"saved_at"`
}

// SnapshotStore 冷存档存储
type SnapshotStore struct {
	client *redis.Client
}

// NewSnapshotStore 创建冷存档存储
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// SaveSnapshot 保存存档，覆盖同一关联 ID 的旧档
func (ss *SnapshotStore) SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	if rec == nil || rec.CorrelationID == "" {
		return nil
	}

	rec.SavedAt = time.Now().Unix()
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化存档失败: %w", err)
	}

	key := snapshotKeyPrefix + rec.CorrelationID
	return ss.client.Set(ctx, key, jsonData, snapshotExpiration).Err()
}

// LoadSnapshot 加载存档，不存在时返回 (nil, nil)
func (ss *SnapshotStore) LoadSnapshot(ctx context.Context, correlationID string) (*SnapshotRecord, error) {
	key := snapshotKeyPrefix + correlationID
	data, err := ss.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 没有存档，从新状态开始
		}
		return nil, err
	}

	var rec SnapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("反序列化存档失败: %w", err)
	}

	return &rec, nil
}

// DeleteSnapshot 删除存档
func (ss *SnapshotStore) DeleteSnapshot(ctx context.Context, correlationID string) error {
	key := snapshotKeyPrefix + correlationID
	return ss.client.Del(ctx, key).Err()
}
