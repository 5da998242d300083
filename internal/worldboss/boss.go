// Package worldboss manages the shared boss singleton: spawn, concurrent
// damage accumulation from every contributing player's tick, defeat
// settlement with proportional rewards, and the respawn schedule.
package worldboss

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spirekeep/idlespire/internal/catalog"
)

// Boss is the active world boss instance.
type Boss struct {
	SpawnID   string
	HP        float64
	MaxHP     float64
	Attack    float64
	Defense   float64
	SpawnedAt time.Time
}

// Snapshot is the read-only boss state pushed to clients.
type Snapshot struct {
	Active       bool      `json:"active"`
	SpawnID      string    `json:"spawn_id,omitempty"`
	HP           float64   `json:"hp"`
	MaxHP        float64   `json:"max_hp"`
	SpawnedAt    time.Time `json:"spawned_at,omitempty"`
	Participants int       `json:"participants"`
}

// Reward is one participant's settlement payout.
type Reward struct {
	Share        float64
	Gold         int
	Tickets      int
	ItemTemplate string // rare+ item template id, empty unless this player won the draw
}

// Settlement is the outcome of a boss defeat.
type Settlement struct {
	SpawnID string
	TotalDamage float64
	Rewards map[string]Reward // keyed by player id
}

// Config holds boss tuning.
type Config struct {
	BaseHP         float64
	HPGrowth       float64
	Attack         float64
	Defense        float64
	RewardPool     int
	TicketDraws    int
	RespawnDelay   time.Duration
	DailySpawnTimes []string // "HH:MM"
}

// Coordinator owns the boss lifecycle. All state is guarded by one mutex so
// the defeat check and settlement trigger exactly once.
type Coordinator struct {
	cfg     Config
	catalog *catalog.Catalog

	mu       sync.Mutex
	rng      *rand.Rand
	boss     *Boss
	damage   map[string]float64
	kills    int
	respawn  *time.Timer
	stopOnce sync.Once
	stop     chan struct{}

	// OnSpawn and OnSettle are invoked outside the coordinator lock.
	OnSpawn  func(Snapshot)
	OnSettle func(Settlement)
}

// NewCoordinator creates a dormant coordinator.
func NewCoordinator(cfg Config, cat *catalog.Catalog, rng *rand.Rand) *Coordinator {
	if cfg.HPGrowth <= 0 {
		cfg.HPGrowth = 1
	}
	return &Coordinator{
		cfg:     cfg,
		catalog: cat,
		rng:     rng,
		damage:  make(map[string]float64),
		stop:    make(chan struct{}),
	}
}

// Spawn activates the boss. Idempotent: a no-op while a boss is active.
// The participant damage map is reset on every new spawn.
func (c *Coordinator) Spawn() {
	c.mu.Lock()
	if c.boss != nil {
		c.mu.Unlock()
		return
	}
	hp := c.cfg.BaseHP * math.Pow(c.cfg.HPGrowth, float64(c.kills))
	c.boss = &Boss{
		SpawnID:   uuid.NewString(),
		HP:        hp,
		MaxHP:     hp,
		Attack:    c.cfg.Attack,
		Defense:   c.cfg.Defense,
		SpawnedAt: time.Now(),
	}
	c.damage = make(map[string]float64)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.OnSpawn != nil {
		c.OnSpawn(snap)
	}
}

// Active reports whether a boss is currently accepting damage.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boss != nil
}

// Defense returns the active boss defense, 0 when dormant.
func (c *Coordinator) Defense() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.boss == nil {
		return 0
	}
	return c.boss.Defense
}

// Snapshot returns the boss state for broadcast. Never mutates.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	if c.boss == nil {
		return Snapshot{}
	}
	return Snapshot{
		Active:       true,
		SpawnID:      c.boss.SpawnID,
		HP:           c.boss.HP,
		MaxHP:        c.boss.MaxHP,
		SpawnedAt:    c.boss.SpawnedAt,
		Participants: len(c.damage),
	}
}

// AddDamage records one player's hit. The applied damage is capped at the
// boss's remaining hp, so the participant map never records more than was
// actually dealt. Returns the applied amount and, if this hit defeated the
// boss, the computed settlement (exactly one caller receives it).
func (c *Coordinator) AddDamage(playerID string, dmg float64) (applied float64, settlement *Settlement) {
	c.mu.Lock()
	if c.boss == nil || dmg <= 0 {
		c.mu.Unlock()
		return 0, nil
	}

	applied = dmg
	if applied > c.boss.HP {
		applied = c.boss.HP
	}
	c.boss.HP -= applied
	c.damage[playerID] += applied

	if c.boss.HP > 0 {
		c.mu.Unlock()
		return applied, nil
	}

	s := c.settleLocked()
	c.mu.Unlock()

	if c.OnSettle != nil {
		c.OnSettle(*s)
	}
	return applied, s
}

// settleLocked computes rewards, deactivates the boss, and arms the respawn
// timer. Caller holds the lock.
func (c *Coordinator) settleLocked() *Settlement {
	s := &Settlement{
		SpawnID: c.boss.SpawnID,
		Rewards: make(map[string]Reward, len(c.damage)),
	}

	for _, d := range c.damage {
		s.TotalDamage += d
	}

	if s.TotalDamage > 0 {
		for id, d := range c.damage {
			share := d / s.TotalDamage
			s.Rewards[id] = Reward{
				Share: share,
				Gold:  int(math.Floor(share * float64(c.cfg.RewardPool))),
			}
		}

		for i := 0; i < c.cfg.TicketDraws; i++ {
			winner := c.drawLocked()
			r := s.Rewards[winner]
			r.Tickets++
			s.Rewards[winner] = r
		}

		if tmpl := c.rarePlusItemLocked(); tmpl != nil {
			winner := c.drawLocked()
			r := s.Rewards[winner]
			r.ItemTemplate = tmpl.ID
			s.Rewards[winner] = r
		}
	}

	c.boss = nil
	c.kills++
	c.respawn = time.AfterFunc(c.cfg.RespawnDelay, c.Spawn)

	return s
}

// drawLocked picks one participant weighted by damage share.
func (c *Coordinator) drawLocked() string {
	total := 0.0
	for _, d := range c.damage {
		total += d
	}
	roll := c.rng.Float64() * total
	var last string
	for id, d := range c.damage {
		last = id
		if roll < d {
			return id
		}
		roll -= d
	}
	return last
}

// rarePlusItemLocked picks the settlement item: a weighted grade roll over
// rare and above, then a uniform pick within the grade pool.
func (c *Coordinator) rarePlusItemLocked() *catalog.Template {
	grade := catalog.GradeRare
	switch roll := c.rng.Intn(100); {
	case roll < 70:
		grade = catalog.GradeRare
	case roll < 95:
		grade = catalog.GradeEpic
	default:
		grade = catalog.GradeLegendary
	}
	if tmpl := c.catalog.RandomOfGrade(grade, c.rng); tmpl != nil {
		return tmpl
	}
	// Fall back down the grades when a pool is empty.
	for g := grade; g >= catalog.GradeRare; g-- {
		if tmpl := c.catalog.RandomOfGrade(g, c.rng); tmpl != nil {
			return tmpl
		}
	}
	return nil
}

// StartDailySchedule runs the time-of-day force spawner until Stop.
// A dormant boss is spawned whenever the clock hits a configured time.
func (c *Coordinator) StartDailySchedule() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		var lastFired string
		for {
			select {
			case <-c.stop:
				return
			case now := <-ticker.C:
				hhmm := now.Format("15:04")
				if hhmm == lastFired {
					continue
				}
				for _, t := range c.cfg.DailySpawnTimes {
					if t == hhmm {
						lastFired = hhmm
						c.Spawn()
						break
					}
				}
			}
		}
	}()
}

// Stop cancels the respawn timer and the daily schedule.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.mu.Lock()
	if c.respawn != nil {
		c.respawn.Stop()
	}
	c.mu.Unlock()
}
