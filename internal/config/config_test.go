package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 1780, cfg.Server.Port)
	assert.Equal(t, 2000, cfg.Server.MaxConnections)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Room.Countdown)
	assert.Equal(t, 20, cfg.Sync.SimulationHz)
	assert.Equal(t, 10, cfg.Sync.BroadcastHz)
}

func TestGraceDuration_PerGameType(t *testing.T) {
	t.Parallel()
	cfg := Default()

	// 各玩法有独立的重连宽限期
	assert.Equal(t, 60*time.Second, cfg.Room.GraceDuration("flip"))
	assert.Equal(t, 30*time.Second, cfg.Room.GraceDuration("crossword"))
	assert.Equal(t, 120*time.Second, cfg.Room.GraceDuration("billiards"))
	assert.Equal(t, 300*time.Second, cfg.Room.GraceDuration("mine"))

	// 未配置的类型回落到默认值
	assert.Equal(t, 60*time.Second, cfg.Room.GraceDuration("unknown"))
}

func TestSyncIntervals(t *testing.T) {
	t.Parallel()
	cfg := Default()

	assert.Equal(t, 50*time.Millisecond, cfg.Sync.SimulationInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.BroadcastInterval())
}

func TestApplyDefaults_BroadcastClamp(t *testing.T) {
	t.Parallel()

	// 广播频率不允许高于模拟频率
	cfg := &Config{}
	cfg.Sync.SimulationHz = 10
	cfg.Sync.BroadcastHz = 30
	applyDefaults(cfg)

	assert.Equal(t, 10, cfg.Sync.BroadcastHz)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  port: 9999
room:
  countdown: 5
  grace:
    billiards: 90
sync:
  simulation_hz: 30
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Room.Countdown)
	assert.Equal(t, 90*time.Second, cfg.Room.GraceDuration("billiards"))
	assert.Equal(t, 30, cfg.Sync.SimulationHz)

	// 未出现的字段仍然落到默认值
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 60*time.Second, cfg.Room.GraceDuration("billiards-unknown"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load("does/not/exist.yaml")
	assert.Error(t, err)
}
