package room

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/gameroom/internal/config"
	"github.com/palemoky/gameroom/internal/storage"
)

// SnapshotStore 冷存档能力（由 storage.SnapshotStore 实现，可为 nil）
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, rec *storage.SnapshotRecord) error
	LoadSnapshot(ctx context.Context, correlationID string) (*storage.SnapshotRecord, error)
}

// ResultReporter 对局结果上报能力（由 storage.ResultReporter 实现，可为 nil）
type ResultReporter interface {
	Report(ctx context.Context, result *storage.MatchResult) error
}

// ActorTimer 房间协程内的可取消定时器
// stop 只能在房间协程内调用，回调入队后由 stopped 标记兜底
type ActorTimer struct {
	t       *time.Timer
	stopped bool
}

// Room 一个权威游戏房间
// 所有状态只由房间自己的协程修改（唯一写者），
// 网络回调和定时器都通过 mailbox 投递意图
type Room struct {
	ID            string
	GameType      string
	CorrelationID string
	CreatedAt     time.Time

	cfg       *config.Config
	variant   Variant
	cont      ContinuousVariant // 非 nil 表示连续模拟玩法
	factory   Factory           // 再来一局时重建玩法
	snapshots SnapshotStore
	results   ResultReporter
	rng       *rand.Rand

	phase     Phase
	countdown int

	slots      []*Participant          // 按槽位索引，nil 表示空位
	spectators map[string]*Participant // 按连接 ID
	byConn     map[string]*Participant // 连接 ID -> 参与者（含观战）
	tickets    map[string]*reconnectTicket

	lastSync     map[string]map[string]any // 连接 ID -> 上次发送的同步状态
	rematchVotes map[string]bool           // 连接 ID -> 是否已投票

	started   bool // 本局是否进入过 playing（存档只允许开始前注入）
	startedAt time.Time
	finished  bool
	disposed  bool

	mailbox chan func()
	done    chan struct{}

	simTicker *time.Ticker
	simC      <-chan time.Time
	lastTick  time.Time

	broadcastTicker *time.Ticker

	countdownTimer *ActorTimer
	idleTimer      *ActorTimer
	variantTimers  map[*ActorTimer]struct{}

	onDispose func(roomID string)
}

// New 创建房间并启动其专属协程
func New(cfg *config.Config, catalog *Catalog, gameType, correlationID string,
	snapshots SnapshotStore, results ResultReporter, onDispose func(string)) (*Room, error) {

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	variant, err := catalog.New(gameType, rng)
	if err != nil {
		return nil, err
	}

	r := &Room{
		ID:            uuid.New().String(),
		GameType:      gameType,
		CorrelationID: correlationID,
		CreatedAt:     time.Now(),

		cfg:       cfg,
		variant:   variant,
		factory:   func(rng *rand.Rand) Variant { v, _ := catalog.New(gameType, rng); return v },
		snapshots: snapshots,
		results:   results,
		rng:       rng,

		phase:      PhaseWaiting,
		slots:      make([]*Participant, variant.MaxPlayers()),
		spectators: make(map[string]*Participant),
		byConn:     make(map[string]*Participant),
		tickets:    make(map[string]*reconnectTicket),

		lastSync:     make(map[string]map[string]any),
		rematchVotes: make(map[string]bool),

		mailbox:       make(chan func(), 64),
		done:          make(chan struct{}),
		variantTimers: make(map[*ActorTimer]struct{}),

		onDispose: onDispose,
	}

	if cv, ok := variant.(ContinuousVariant); ok && variant.Continuous() {
		r.cont = cv
	}

	r.broadcastTicker = time.NewTicker(cfg.Sync.BroadcastInterval())

	go r.run()

	// 没人进来的房间也要能被回收
	r.post(func() { r.scheduleIdleDispose() })

	// 连续模拟玩法：异步尝试加载冷存档，不阻塞创建
	if r.cont != nil && correlationID != "" && snapshots != nil {
		go r.loadSnapshot()
	}

	return r, nil
}

// run 房间主循环，唯一写者
func (r *Room) run() {
	for {
		select {
		case fn := <-r.mailbox:
			fn()
		case now := <-r.simC:
			r.stepSimulation(now)
		case <-r.broadcastTicker.C:
			r.broadcastDeltas()
		case <-r.done:
			return
		}
	}
}

// post 向房间协程投递意图，房间已销毁时返回 false
func (r *Room) post(fn func()) bool {
	select {
	case r.mailbox <- fn:
		return true
	case <-r.done:
		return false
	}
}

// do 在房间协程内同步执行 fn（查询和测试用）
func (r *Room) do(fn func()) bool {
	ch := make(chan struct{})
	if !r.post(func() { fn(); close(ch) }) {
		return false
	}
	select {
	case <-ch:
		return true
	case <-r.done:
		return false
	}
}

// after 注册房间协程内执行的定时器
func (r *Room) after(d time.Duration, fn func()) *ActorTimer {
	at := &ActorTimer{}
	at.t = time.AfterFunc(d, func() {
		r.post(func() {
			if !at.stopped {
				fn()
			}
		})
	})
	return at
}

// stopTimer 取消定时器（只在房间协程内调用）
func stopTimer(at *ActorTimer) {
	if at != nil {
		at.stopped = true
		at.t.Stop()
	}
}

// stepSimulation 连续模拟推进一个 tick
func (r *Room) stepSimulation(now time.Time) {
	if r.cont == nil || r.phase != PhasePlaying {
		return
	}

	dt := now.Sub(r.lastTick)
	interval := r.cfg.Sync.SimulationInterval()
	// 调度延迟过大时按两倍步长封顶，避免补偿爆算
	if dt <= 0 || dt > 2*interval {
		dt = interval
	}
	r.lastTick = now

	r.cont.StepTick(dt)
}

// startSimulation 进入 playing 后启动连续模拟驱动
func (r *Room) startSimulation() {
	if r.cont == nil || r.simTicker != nil {
		return
	}
	r.simTicker = time.NewTicker(r.cfg.Sync.SimulationInterval())
	r.simC = r.simTicker.C
	r.lastTick = time.Now()
}

// stopSimulation 停止连续模拟驱动
func (r *Room) stopSimulation() {
	if r.simTicker != nil {
		r.simTicker.Stop()
		r.simTicker = nil
		r.simC = nil
	}
}

// scheduleIdleDispose 房间空置后安排回收，有人加入时取消
func (r *Room) scheduleIdleDispose() {
	if r.disposed || !r.isEmpty() {
		return
	}
	stopTimer(r.idleTimer)
	r.idleTimer = r.after(r.cfg.Room.IdleTimeoutDuration(), func() {
		if r.isEmpty() {
			log.Printf("🏠 房间 %s 空置超时，回收", r.ID)
			r.dispose()
		}
	})
}

// isEmpty 没有任何参与者（座位全空且无观战）
func (r *Room) isEmpty() bool {
	for _, p := range r.slots {
		if p != nil {
			return false
		}
	}
	return len(r.spectators) == 0
}

// connectedPlayers 在线玩家数
func (r *Room) connectedPlayers() int {
	count := 0
	for _, p := range r.slots {
		if p != nil && p.Connected {
			count++
		}
	}
	return count
}

// seatedPlayers 占座玩家数（含掉线等待重连的）
func (r *Room) seatedPlayers() int {
	count := 0
	for _, p := range r.slots {
		if p != nil {
			count++
		}
	}
	return count
}

// dispose 销毁房间：取消所有定时器、持久化存档、通知管理器
// 只进入一次
func (r *Room) dispose() {
	if r.disposed {
		return
	}
	r.disposed = true

	stopTimer(r.countdownTimer)
	stopTimer(r.idleTimer)
	for at := range r.variantTimers {
		stopTimer(at)
	}
	for _, t := range r.tickets {
		stopTimer(t.timer)
	}
	r.stopSimulation()
	r.broadcastTicker.Stop()

	// 连续模拟玩法在销毁时落档；失败只记日志，绝不阻塞销毁
	if r.cont != nil && r.started && r.CorrelationID != "" && r.snapshots != nil {
		r.saveSnapshot()
	}

	if r.onDispose != nil {
		go r.onDispose(r.ID)
	}

	close(r.done)
}

// saveSnapshot 落档（fire-and-forget）
func (r *Room) saveSnapshot() {
	state, err := r.cont.Snapshot()
	if err != nil {
		log.Printf("⚠️ 房间 %s 序列化存档失败: %v", r.ID, err)
		return
	}
	rec := &storage.SnapshotRecord{
		CorrelationID: r.CorrelationID,
		GameType:      r.GameType,
		RoomID:        r.ID,
		Tick:          r.cont.Tick(),
		State:         state,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.snapshots.SaveSnapshot(ctx, rec); err != nil {
			// 丢档降级为从新状态恢复，不算致命错误
			log.Printf("⚠️ 房间 %s 存档写入失败: %v", r.ID, err)
		}
	}()
}

// loadSnapshot 异步加载冷存档，命中时在开局前注入
func (r *Room) loadSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec, err := r.snapshots.LoadSnapshot(ctx, r.CorrelationID)
	if err != nil {
		log.Printf("⚠️ 房间 %s 读取存档失败，从新状态开始: %v", r.ID, err)
		return
	}
	if rec == nil {
		return
	}

	r.post(func() {
		if r.started || r.disposed {
			return // 已经开局，存档作废
		}
		if err := r.cont.Hydrate(rec.State); err != nil {
			log.Printf("⚠️ 房间 %s 存档损坏，从新状态开始: %v", r.ID, err)
			return
		}
		log.Printf("💾 房间 %s 从存档恢复 (tick=%d)", r.ID, rec.Tick)
	})
}

// --- 外部查询接口（跨协程安全） ---

// CurrentPhase 返回当前阶段
func (r *Room) CurrentPhase() Phase {
	var phase Phase
	if !r.do(func() { phase = r.phase }) {
		return PhaseFinished
	}
	return phase
}

// ParticipantCount 返回占座玩家数与观战者数
func (r *Room) ParticipantCount() (players, spectators int) {
	r.do(func() {
		players = r.seatedPlayers()
		spectators = len(r.spectators)
	})
	return players, spectators
}

// IsDisposed 房间是否已销毁
func (r *Room) IsDisposed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// IsActive 是否有对局进行中（优雅关闭时统计用）
func (r *Room) IsActive() bool {
	active := false
	r.do(func() {
		active = r.phase == PhaseCountdown || r.phase == PhasePlaying
	})
	return active
}

// Dispose 外部请求销毁房间
func (r *Room) Dispose() {
	r.post(func() { r.dispose() })
}
