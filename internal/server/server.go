package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/gameroom/internal/auth"
	"github.com/palemoky/gameroom/internal/config"
	"github.com/palemoky/gameroom/internal/protocol"
	"github.com/palemoky/gameroom/internal/room"
	"github.com/palemoky/gameroom/internal/server/handler"
	"github.com/palemoky/gameroom/internal/storage"
	"github.com/palemoky/gameroom/internal/types"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	snapshots   *storage.SnapshotStore
	results     *storage.ResultReporter
	roomManager *room.Manager
	verifier    *auth.Verifier
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	handler     *handler.Handler

	originChecker *OriginChecker

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, catalog *room.Catalog) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		config:        cfg,
		redis:         rdb,
		snapshots:     storage.NewSnapshotStore(rdb),
		results:       storage.NewResultReporter(rdb),
		verifier:      auth.NewVerifier(cfg.Auth.JWTSecret),
		clients:       make(map[string]*Client),
		originChecker: NewOriginChecker(cfg.Server.AllowedOrigins),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	// 初始化房间管理器
	s.roomManager = room.NewManager(cfg, catalog, s.snapshots, s.results)

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:   s,
		Manager:  s.roomManager,
		Verifier: s.verifier,
	})

	log.Printf("🎲 已注册玩法: %v", catalog.Types())

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
	}
	return server.ListenAndServe()
}

// GetOnlineCount 获取在线连接数（按需调用）
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// GetClientByID 按连接 ID 查找客户端
func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil
	}
	return c
}

// UnregisterClient 按连接 ID 注销客户端
func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}

// OriginChecker WebSocket 来源校验
// 白名单为空时放行所有来源（本地联调）
type OriginChecker struct {
	allowed map[string]struct{}
}

// NewOriginChecker 创建来源校验器
func NewOriginChecker(origins []string) *OriginChecker {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &OriginChecker{allowed: allowed}
}

// Check 校验请求来源
func (oc *OriginChecker) Check(r *http.Request) bool {
	if len(oc.allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // 非浏览器客户端
	}
	_, ok := oc.allowed[origin]
	return ok
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 来源校验在 handleWebSocket 里做，便于记日志
	CheckOrigin: func(r *http.Request) bool { return true },
	// 同步补丁都是小消息，压缩是负优化
	EnableCompression: false,
}
