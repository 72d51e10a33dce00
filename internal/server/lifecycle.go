package server

import (
	"log"
	"runtime"
	"time"

	"github.com/palemoky/gameroom/internal/protocol"
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 房间: %d | 对局中: %d | Goroutines: %d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.roomManager.RoomCount(),
			s.roomManager.ActiveCount(),
			runtime.NumGoroutine(),
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知所有在线用户服务器即将关闭
	s.Broadcast(protocol.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
		"👷🏻‍♂️ 维护模式：停止新的房间创建"))

	log.Println("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 优雅关闭服务器
// 进入维护模式后等待进行中的对局自然结束，超时强制关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	// 1. 进入维护模式
	s.EnterMaintenanceMode()

	// 2. 等待对局结束
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.roomManager.ActiveCount()
		if active == 0 {
			log.Println("✅ 所有对局已结束，开始关闭服务器")
			break
		}
		log.Printf("⏳ 等待 %d 个对局结束...", active)
		<-ticker.C
	}

	// 3. 超时检查
	if active := s.roomManager.ActiveCount(); active > 0 {
		log.Printf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", active)
	}

	// 4. 关闭服务器
	s.Shutdown()
}

// Shutdown 关闭服务器
// 先销毁房间（连续模拟玩法在这一步落档），再断开所有连接
func (s *Server) Shutdown() {
	s.roomManager.Shutdown()

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 关闭 Redis
	_ = s.redis.Close()

	log.Println("服务器已关闭")
}
