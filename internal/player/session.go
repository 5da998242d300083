// Package player holds the in-memory session state for one connected (or
// recently connected) player and the mutations the simulation performs on it.
package player

import (
	"sync"
	"time"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/combat"
	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/stats"
)

// TargetMode selects what the player's tick attacks.
type TargetMode int

const (
	TargetFloor TargetMode = iota
	TargetWorldBoss
)

// Starting base stats for a brand-new character. Base-stat training adds on
// top of these in fixed increments, so purchase counts stay derivable.
const (
	BaseHP      = 100.0
	BaseAttack  = 1.0
	BaseDefense = 0.0
)

// MaxActivityEntries caps the recent-activity log.
const MaxActivityEntries = 30

// ArtifactSockets is the fixed number of artifact slots per player.
const ArtifactSockets = 4

// Session is one player's authoritative in-memory state. Every mutation,
// including cross-player credits from boss settlement or auction sales, must
// run under WithLock; the tick step and command handlers both go through it.
type Session struct {
	mu sync.Mutex

	// removed is set when the server drops the session from its registry;
	// a tick step that raced the disconnect sees it and backs off.
	removed bool

	ID   string // stable player id (account username)
	Name string // display name
	Role string // "player" or "admin"

	Gold     int
	Base     stats.Base
	Totals   stats.Totals
	HP       float64
	Floor    int
	MaxFloor int

	// ClearedCount counts floor clears for the guaranteed skip interval.
	ClearedCount int

	Weapon    *item.Instance
	Armor     *item.Instance
	Inventory []*item.Instance

	Companions  []*item.Instance
	EquippedPet *item.Instance

	Artifacts map[string]bool // unlocked artifact ids, at most ArtifactSockets

	Incubator *Incubation
	Fusion    *FusionJob

	// World boss contribution, tied to a specific spawn.
	BossSpawnID string
	BossDamage  float64

	Exploring bool
	Target    TargetMode
	Monster   *combat.Monster

	// ReviveReadyAt gates the companion revival ability.
	ReviveReadyAt time.Time

	Activity []ActivityEntry // most recent first, capped
}

// ActivityEntry is one line of the recent-activity log.
type ActivityEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Incubation is the at-most-one egg in progress.
type Incubation struct {
	Egg         *item.Instance `json:"egg"`
	Started     bool           `json:"started"`
	CompletesAt time.Time      `json:"completes_at"`
}

// FusionJob holds up to two pets pending fusion and its completion time.
type FusionJob struct {
	Slots       []*item.Instance `json:"slots"` // at most two
	Started     bool             `json:"started"`
	CompletesAt time.Time        `json:"completes_at"`
}

// New creates a fresh session with default base stats.
func New(id, name, role string, startingGold int) *Session {
	s := &Session{
		ID:        id,
		Name:      name,
		Role:      role,
		Gold:      startingGold,
		Base:      stats.Base{HP: BaseHP, Attack: BaseAttack, Defense: BaseDefense},
		Floor:     1,
		MaxFloor:  1,
		Artifacts: make(map[string]bool),
	}
	s.Totals = stats.Aggregate(stats.Input{Base: s.Base})
	s.HP = s.Totals.MaxHP
	return s
}

// WithLock runs fn with the session lock held. All mutation goes through
// here; cross-player credits from other goroutines included.
func (s *Session) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// MarkRemoved flags the session as dropped from the server registry.
// Caller holds the lock.
func (s *Session) MarkRemoved() {
	s.removed = true
}

// Removed reports whether the session was dropped from the server registry.
// Caller holds the lock.
func (s *Session) Removed() bool {
	return s.removed
}

// IsAdmin reports whether the session may run privileged commands.
func (s *Session) IsAdmin() bool {
	return s.Role == "admin"
}

// AddGold credits gold. Caller holds the lock.
func (s *Session) AddGold(amount int) {
	s.Gold += amount
}

// SpendGold debits gold if the balance covers it. Caller holds the lock.
func (s *Session) SpendGold(amount int) bool {
	if s.Gold < amount {
		return false
	}
	s.Gold -= amount
	return true
}

// AddItem inserts an item into the inventory honoring the stacking rules.
// Pets go to the companion inventory instead. Caller holds the lock.
func (s *Session) AddItem(inst *item.Instance) {
	if inst.Type == catalog.TypePet {
		item.Stack(&s.Companions, inst)
		return
	}
	item.Stack(&s.Inventory, inst)
}

// LogActivity prepends an entry to the bounded recent-activity log.
// Caller holds the lock.
func (s *Session) LogActivity(message string) {
	entry := ActivityEntry{At: time.Now(), Message: message}
	s.Activity = append([]ActivityEntry{entry}, s.Activity...)
	if len(s.Activity) > MaxActivityEntries {
		s.Activity = s.Activity[:MaxActivityEntries]
	}
}

// OnBossFloor reports whether the player's current floor is a boss floor.
func (s *Session) OnBossFloor(interval int) bool {
	return combat.IsBossFloor(s.Floor, interval)
}

// Recompute rebuilds the derived stat totals and rescales current hp
// proportionally when max hp changed. Idempotent. Caller holds the lock.
func (s *Session) Recompute(cat *catalog.Catalog, bossInterval int) {
	in := stats.Input{
		Base:        s.Base,
		Weapon:      s.Weapon,
		Armor:       s.Armor,
		Artifacts:   s.Artifacts,
		OnBossFloor: s.OnBossFloor(bossInterval),
		ResearchAtk: cat.Research("attack_training"),
		ResearchDef: cat.Research("defense_training"),
		ResearchHP:  cat.Research("vitality"),
	}
	if s.Weapon != nil {
		if tmpl, ok := cat.Get(s.Weapon.TemplateID); ok {
			in.WeaponEffect = tmpl.BaseEffect
		}
	}
	if s.Armor != nil {
		if tmpl, ok := cat.Get(s.Armor.TemplateID); ok {
			in.ArmorEffect = tmpl.BaseEffect
		}
	}
	if s.EquippedPet != nil {
		if eff, ok := cat.Companion(s.EquippedPet.TemplateID); ok {
			in.Companion = &eff
		}
	}

	oldMax := s.Totals.MaxHP
	s.Totals = stats.Aggregate(in)
	if s.Totals.MaxHP != oldMax {
		s.HP = stats.RescaleHP(s.HP, oldMax, s.Totals.MaxHP)
	}
}

// CompanionEffect returns the equipped pet's effect table, nil when none.
func (s *Session) CompanionEffect(cat *catalog.Catalog) *catalog.CompanionEffect {
	if s.EquippedPet == nil {
		return nil
	}
	if eff, ok := cat.Companion(s.EquippedPet.TemplateID); ok {
		return &eff
	}
	return nil
}

// TryRevive attempts the companion revival: if the equipped pet grants one
// and it is off cooldown, hp is restored to the revive fraction of max and
// the cooldown starts. Caller holds the lock.
func (s *Session) TryRevive(cat *catalog.Catalog, now time.Time) bool {
	eff := s.CompanionEffect(cat)
	if eff == nil || eff.ReviveFraction <= 0 {
		return false
	}
	if now.Before(s.ReviveReadyAt) {
		return false
	}
	s.HP = s.Totals.MaxHP * eff.ReviveFraction
	s.ReviveReadyAt = now.Add(time.Duration(eff.ReviveCooldown) * time.Second)
	return true
}

// ResetToFloorOne applies the defeat transition: back to floor 1 with full
// hp, keeping gold and items. Caller holds the lock.
func (s *Session) ResetToFloorOne() {
	s.Floor = 1
	s.Monster = nil
	s.HP = s.Totals.MaxHP
}

// AdvanceFloor moves the player up by steps floors and clears the current
// monster so the next tick spawns the new floor's opponent. Max floor is
// monotonically non-decreasing. Caller holds the lock.
func (s *Session) AdvanceFloor(steps int) {
	s.Floor += steps
	if s.Floor > s.MaxFloor {
		s.MaxFloor = s.Floor
	}
	s.Monster = nil
	s.HP = s.Totals.MaxHP
}
