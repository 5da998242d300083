package server

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spirekeep/idlespire/internal/auction"
	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/command"
	"github.com/spirekeep/idlespire/internal/config"
	"github.com/spirekeep/idlespire/internal/database"
	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/loot"
	"github.com/spirekeep/idlespire/internal/namefilter"
	"github.com/spirekeep/idlespire/internal/player"
	"github.com/spirekeep/idlespire/internal/records"
	"github.com/spirekeep/idlespire/internal/worldboss"
)

// connected pairs a live session with its connection so broadcasts and
// snapshot pushes can reach the client.
type connected struct {
	sess   *player.Session
	client Client
}

type Server struct {
	cfg     *config.ServerConfig
	db      *database.Database
	catalog *catalog.Catalog
	loot    *loot.Engine
	boss    *worldboss.Coordinator
	house   *auction.House
	records *records.Registry
	deps    *command.Deps

	mu      sync.RWMutex
	clients map[string]*connected // keyed by player id

	httpSrv      *http.Server
	connLimiter  *ConnLimiter
	loginLimiter *LoginRateLimiter
	nameFilter   *namefilter.Filter

	// tickRng belongs to the simulation goroutine only.
	tickRng *rand.Rand

	shutdown     chan struct{}
	shutdownOnce sync.Once
	StartTime    time.Time
}

// NewServer wires the simulation core together. Run starts it.
func NewServer(cfg *config.ServerConfig, db *database.Database, cat *catalog.Catalog) (*Server, error) {
	reg, err := records.NewRegistry(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		db:      db,
		catalog: cat,
		records: reg,
		clients: make(map[string]*connected),
		loot: loot.NewEngine(cat, cfg.Simulation.BossFloorInterval,
			cfg.Economy.SkipChance, cfg.Economy.DropChance, cfg.Economy.BossDropChance),
		connLimiter:  NewConnLimiter(cfg.Connections),
		loginLimiter: NewLoginRateLimiter(cfg.RateLimit),
		nameFilter:   namefilter.New(cfg.Names),
		tickRng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		shutdown:     make(chan struct{}),
		StartTime:    time.Now(),
	}

	s.boss = worldboss.NewCoordinator(worldboss.Config{
		BaseHP:          float64(cfg.WorldBoss.BaseHP),
		HPGrowth:        cfg.WorldBoss.HPGrowth,
		Attack:          cfg.WorldBoss.Attack,
		Defense:         cfg.WorldBoss.Defense,
		RewardPool:      cfg.WorldBoss.RewardPool,
		TicketDraws:     cfg.WorldBoss.TicketDraws,
		RespawnDelay:    time.Duration(cfg.WorldBoss.RespawnSeconds) * time.Second,
		DailySpawnTimes: cfg.WorldBoss.DailySpawnTimes,
	}, cat, rand.New(rand.NewSource(time.Now().UnixNano())))

	s.boss.OnSpawn = func(snap worldboss.Snapshot) {
		logger.Always("World boss spawned", "spawn_id", snap.SpawnID, "hp", snap.MaxHP)
		s.BroadcastToAll("*** The world boss has risen! Type 'target boss' to join the fight. ***")
	}
	// Settlement runs off the defeating player's tick goroutine: distribution
	// takes other sessions' locks.
	s.boss.OnSettle = func(st worldboss.Settlement) {
		go s.distributeSettlement(st)
	}

	s.house = auction.NewHouse(db, s)

	s.deps = &command.Deps{
		Catalog: cat,
		Loot:    s.loot,
		House:   s.house,
		Boss:    s.boss,
		Records: reg,
		DB:      db,
		Config:  cfg,
		Game:    s,
	}

	return s, nil
}

// Run starts the background loops and serves WebSocket connections until
// Shutdown. Blocks.
func (s *Server) Run() error {
	go s.startTickLoop()
	go s.startBossBroadcastLoop()
	go s.startAutoSaveLoop()
	s.boss.StartDailySchedule()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	s.httpSrv = &http.Server{Addr: s.cfg.WebSocket.Address, Handler: mux}

	logger.Always("Server listening", "address", s.cfg.WebSocket.Address)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleWebSocketUpgrade upgrades an HTTP request and hands the connection
// to the session loop.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := realIP(r.RemoteAddr, r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-IP"))

	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("Connection rejected, limit exceeded", "remote_addr", r.RemoteAddr, "ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Connection rejected, origin not allowed",
					"origin", origin, "host", r.Host, "remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(ip)
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	go func() {
		defer func() {
			s.connLimiter.Release(ip)
			wsConn.Close()
		}()
		s.handleClient(NewWebSocketClient(wsConn), ip)
	}()
}

// Shutdown stops the loops, flushes every session, and closes the listener.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.boss.Stop()
		s.loginLimiter.Stop()

		s.mu.Lock()
		for id, cp := range s.clients {
			if err := s.saveSession(cp.sess); err != nil {
				logger.Error("Failed to save player on shutdown", "player", id, "error", err)
			}
			cp.client.WriteLine("Server is shutting down. Your progress has been saved.")
			cp.client.Close()
		}
		s.clients = make(map[string]*connected)
		s.mu.Unlock()

		if s.httpSrv != nil {
			s.httpSrv.Close()
		}
		logger.Always("Server shutdown complete, all players saved")
	})
}

// Find returns the live session for a player id, nil when offline.
// Satisfies the auction house's session registry.
func (s *Server) Find(playerID string) *player.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cp, ok := s.clients[playerID]; ok {
		return cp.sess
	}
	return nil
}

// OnlineNames returns the display names of all connected players.
func (s *Server) OnlineNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.clients))
	for _, cp := range s.clients {
		names = append(names, cp.sess.Name)
	}
	return names
}

// OnlineCount returns the number of connected players.
func (s *Server) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// BroadcastToAll sends one message to every connected client.
func (s *Server) BroadcastToAll(message string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cp := range s.clients {
		cp.client.WriteLine(message)
	}
}

// GrantItem delivers items to a player: into the live session when online,
// through the durable store when not. The online path runs on its own
// goroutine because the caller may hold another session's lock.
func (s *Server) GrantItem(playerID, templateID string, quantity int) error {
	tmpl, ok := s.catalog.Get(templateID)
	if !ok {
		return fmt.Errorf("unknown item template: %s", templateID)
	}

	s.mu.RLock()
	cp := s.clients[playerID]
	s.mu.RUnlock()

	if cp != nil {
		go func() {
			cp.sess.WithLock(func() {
				cp.sess.AddItem(item.New(tmpl, quantity))
				cp.sess.LogActivity(fmt.Sprintf("Received %s x%d", tmpl.Name, quantity))
			})
			cp.client.WriteLine(fmt.Sprintf("You received %s x%d.", tmpl.Name, quantity))
		}()
		return nil
	}

	if _, err := s.db.LoadPlayer(playerID); err != nil {
		return fmt.Errorf("no such player: %s", playerID)
	}
	return s.db.PushItemsOffline(playerID, []*item.Instance{item.New(tmpl, quantity)})
}
