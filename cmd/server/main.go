package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/palemoky/gameroom/internal/config"
	"github.com/palemoky/gameroom/internal/games/billiards"
	"github.com/palemoky/gameroom/internal/games/crossword"
	"github.com/palemoky/gameroom/internal/games/flip"
	"github.com/palemoky/gameroom/internal/games/mine"
	"github.com/palemoky/gameroom/internal/games/reflex"
	"github.com/palemoky/gameroom/internal/room"
	"github.com/palemoky/gameroom/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	shutdownWait := flag.Duration("shutdown-wait", 5*time.Minute, "优雅关闭时等待对局结束的上限")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	// 装配玩法目录
	catalog := room.NewCatalog()
	catalog.Register(flip.GameType, flip.New)
	catalog.Register(reflex.GameType, reflex.New)
	catalog.Register(crossword.GameType, crossword.New(crossword.DefaultBank()))
	catalog.Register(billiards.GameType, billiards.New)
	catalog.Register(mine.GameType, mine.New(mine.DefaultGenerators()))

	// 创建服务器
	srv, err := server.NewServer(cfg, catalog)
	if err != nil {
		log.Fatalf("创建服务器失败: %v", err)
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("正在关闭服务器...")
		srv.GracefulShutdown(*shutdownWait)
		os.Exit(0)
	}()

	// 启动服务器
	log.Println("🎮 游戏房间服务器启动中...")
	if err := srv.Start(); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}
