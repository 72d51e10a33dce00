package server

import (
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/gameroom/internal/auth"
	"github.com/palemoky/gameroom/internal/config"
	"github.com/palemoky/gameroom/internal/games/flip"
	"github.com/palemoky/gameroom/internal/room"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()

	catalog := room.NewCatalog()
	catalog.Register(flip.GameType, flip.New)

	s, err := NewServer(cfg, catalog)
	require.NoError(t, err)
	t.Cleanup(s.roomManager.Shutdown)
	return s
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"空白名单放行所有来源", nil, "https://evil.example", true},
		{"白名单命中", []string{"https://game.example"}, "https://game.example", true},
		{"白名单未命中", []string{"https://game.example"}, "https://evil.example", false},
		{"非浏览器客户端没有 Origin 头", []string{"https://game.example"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewOriginChecker(tt.allowed).Check(req))
		})
	}
}

func TestHandleDisconnect_RoutesIntoGraceFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	r, err := s.roomManager.CreateRoom(flip.GameType, "")
	require.NoError(t, err)

	c := NewClient(s, nil)
	s.semaphore <- struct{}{} // 对应 handleWebSocket 占用的连接配额
	s.registerClient(c)

	_, err = r.Join(c, auth.Identity{UserID: "u1", DisplayName: "玩家一"}, room.JoinOptions{})
	require.NoError(t, err)
	require.Equal(t, r.ID, c.GetRoom())

	// 异常断开：连接注销，座位转入重连宽限
	c.handleDisconnect()
	assert.Nil(t, s.GetClientByID(c.ID))

	// 同一身份的新连接凭票据拿回原槽位
	fresh := NewClient(s, nil)
	res, err := r.Join(fresh, auth.Identity{UserID: "u1", DisplayName: "玩家一"}, room.JoinOptions{})
	require.NoError(t, err)
	assert.True(t, res.Reconnected)
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	// 代理链：取 X-Forwarded-For 的第一跳
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "203.0.113.7", GetClientIP(req))

	req = httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("X-Real-IP", "203.0.113.8")
	assert.Equal(t, "203.0.113.8", GetClientIP(req))

	// 直连：剥掉端口
	req = httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "203.0.113.9:52345"
	assert.Equal(t, "203.0.113.9", GetClientIP(req))
}
