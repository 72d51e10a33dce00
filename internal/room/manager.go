package room

import (
	"log"
	"sync"
	"time"

	"github.com/palemoky/gameroom/internal/apperrors"
	"github.com/palemoky/gameroom/internal/config"
)

// Manager 房间管理器
// 房间之间互不共享状态，管理器只负责创建、查找和回收
type Manager struct {
	cfg       *config.Config
	catalog   *Catalog
	snapshots SnapshotStore
	results   ResultReporter

	rooms map[string]*Room
	mu    sync.RWMutex

	stop chan struct{}
}

// NewManager 创建房间管理器
func NewManager(cfg *config.Config, catalog *Catalog, snapshots SnapshotStore, results ResultReporter) *Manager {
	m := &Manager{
		cfg:       cfg,
		catalog:   catalog,
		snapshots: snapshots,
		results:   results,
		rooms:     make(map[string]*Room),
		stop:      make(chan struct{}),
	}

	// 启动滞留房间清理协程
	go m.cleanupLoop()

	return m
}

// CreateRoom 创建房间
func (m *Manager) CreateRoom(gameType, correlationID string) (*Room, error) {
	r, err := New(m.cfg, m.catalog, gameType, correlationID, m.snapshots, m.results, m.removeRoom)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[r.ID] = r
	m.mu.Unlock()

	log.Printf("🏠 房间 %s 已创建 (%s)", r.ID, gameType)

	return r, nil
}

// GetRoom 获取房间
func (m *Manager) GetRoom(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}

// removeRoom 房间销毁后的回调
func (m *Manager) removeRoom(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// RoomCount 当前房间总数
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ActiveCount 进行中的对局数（优雅关闭时等待它归零）
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	count := 0
	for _, r := range rooms {
		if r.IsActive() {
			count++
		}
	}
	return count
}

// cleanupLoop 定期清理滞留在等待状态的房间
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

// cleanup 回收等待超时的房间
func (m *Manager) cleanup() {
	m.mu.RLock()
	var stale []*Room
	now := time.Now()
	for _, r := range m.rooms {
		if now.Sub(r.CreatedAt) > m.cfg.Room.WaitTimeoutDuration() {
			stale = append(stale, r)
		}
	}
	m.mu.RUnlock()

	for _, r := range stale {
		if r.CurrentPhase() == PhaseWaiting {
			log.Printf("🧹 房间 %s 等待超时，回收", r.ID)
			r.Dispose()
		}
	}
}

// Shutdown 销毁所有房间并停止清理协程
func (m *Manager) Shutdown() {
	close(m.stop)

	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.Dispose()
	}
}
