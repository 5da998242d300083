package worldboss

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/spirekeep/idlespire/internal/catalog"
)

func testCoordinator(t *testing.T, cfg Config) *Coordinator {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	c := NewCoordinator(cfg, cat, rand.New(rand.NewSource(1)))
	t.Cleanup(c.Stop)
	return c
}

func baseConfig() Config {
	return Config{
		BaseHP:       1000,
		HPGrowth:     1.5,
		Attack:       100,
		Defense:      10,
		RewardPool:   10000,
		TicketDraws:  3,
		RespawnDelay: time.Hour,
	}
}

func TestSpawnIsIdempotent(t *testing.T) {
	c := testCoordinator(t, baseConfig())

	c.Spawn()
	first := c.Snapshot()
	if !first.Active {
		t.Fatal("boss should be active after spawn")
	}

	c.Spawn()
	second := c.Snapshot()
	if second.SpawnID != first.SpawnID {
		t.Error("spawning over an active boss must be a no-op")
	}
}

func TestSpawnResetsDamage(t *testing.T) {
	cfg := baseConfig()
	cfg.RespawnDelay = time.Hour
	c := testCoordinator(t, cfg)

	c.Spawn()
	c.AddDamage("alice", 100)
	if c.Snapshot().Participants != 1 {
		t.Fatal("expected one participant")
	}

	// Kill it, then spawn fresh: the damage map starts empty.
	c.AddDamage("alice", 1e9)
	c.Spawn()
	if got := c.Snapshot().Participants; got != 0 {
		t.Errorf("new spawn must start with no participants, got %d", got)
	}
}

func TestAddDamageCappedAtRemainingHP(t *testing.T) {
	c := testCoordinator(t, baseConfig())
	c.Spawn()

	applied, settlement := c.AddDamage("alice", 1e9)
	if applied != 1000 {
		t.Errorf("applied damage must cap at remaining hp, got %v", applied)
	}
	if settlement == nil {
		t.Fatal("lethal hit must return the settlement")
	}
	if settlement.Rewards["alice"].Share != 1 {
		t.Errorf("sole participant gets the full share, got %v", settlement.Rewards["alice"].Share)
	}
	if c.Active() {
		t.Error("boss must deactivate after defeat")
	}
}

func TestAddDamageIgnoredWhenDormant(t *testing.T) {
	c := testCoordinator(t, baseConfig())

	applied, settlement := c.AddDamage("alice", 50)
	if applied != 0 || settlement != nil {
		t.Error("damage against a dormant boss must be ignored")
	}
}

func TestSettlementProportionalShares(t *testing.T) {
	c := testCoordinator(t, baseConfig())
	c.Spawn()

	c.AddDamage("alice", 600)
	c.AddDamage("bob", 300)
	_, settlement := c.AddDamage("carol", 1e9) // remaining 100

	if settlement == nil {
		t.Fatal("expected a settlement")
	}
	if settlement.TotalDamage != 1000 {
		t.Errorf("total damage should equal max hp, got %v", settlement.TotalDamage)
	}

	var shareSum float64
	var goldSum int
	for _, r := range settlement.Rewards {
		shareSum += r.Share
		goldSum += r.Gold
	}
	if math.Abs(shareSum-1) > 1e-9 {
		t.Errorf("shares must sum to 1, got %v", shareSum)
	}
	if goldSum > baseConfig().RewardPool {
		t.Errorf("gold payouts (%d) exceed the reward pool", goldSum)
	}

	if got := settlement.Rewards["alice"].Share; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("alice dealt 60%%, got share %v", got)
	}
	if got := settlement.Rewards["alice"].Gold; got != 6000 {
		t.Errorf("alice expected 6000 gold, got %d", got)
	}
	if got := settlement.Rewards["carol"].Share; math.Abs(got-0.1) > 1e-9 {
		t.Errorf("carol's capped hit is 10%%, got share %v", got)
	}
}

func TestSettlementTicketAndItemDraws(t *testing.T) {
	c := testCoordinator(t, baseConfig())
	c.Spawn()
	c.AddDamage("alice", 500)
	_, settlement := c.AddDamage("bob", 1e9)

	if settlement == nil {
		t.Fatal("expected a settlement")
	}
	tickets := 0
	items := 0
	for _, r := range settlement.Rewards {
		tickets += r.Tickets
		if r.ItemTemplate != "" {
			items++
		}
	}
	if tickets != 3 {
		t.Errorf("expected 3 ticket draws, got %d", tickets)
	}
	if items != 1 {
		t.Errorf("exactly one participant wins the item draw, got %d", items)
	}
}

func TestAddDamageConcurrent(t *testing.T) {
	c := testCoordinator(t, baseConfig())

	var mu sync.Mutex
	settled := 0
	var st Settlement
	c.OnSettle = func(s Settlement) {
		mu.Lock()
		settled++
		st = s
		mu.Unlock()
	}
	c.Spawn()

	// 8 workers x 25 hits x 5 damage exactly exhausts the 1000 max hp, so a
	// single lost increment would leave the boss alive.
	const workers = 8
	const hits = 25
	const dmg = 5.0

	applied := make([]float64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("player-%d", w)
			for i := 0; i < hits; i++ {
				got, _ := c.AddDamage(id, dmg)
				applied[w] += got
			}
		}(w)
	}
	wg.Wait()

	var total float64
	for _, a := range applied {
		total += a
	}
	if total != 1000 {
		t.Errorf("applied damage must sum to max hp, got %v", total)
	}
	if c.Active() {
		t.Error("boss must be dead after its hp worth of damage")
	}

	mu.Lock()
	defer mu.Unlock()
	if settled != 1 {
		t.Fatalf("settlement must fire exactly once, fired %d times", settled)
	}
	if st.TotalDamage != 1000 {
		t.Errorf("settlement total damage: expected 1000, got %v", st.TotalDamage)
	}
	var shareSum float64
	for _, r := range st.Rewards {
		shareSum += r.Share
	}
	if math.Abs(shareSum-1) > 1e-9 {
		t.Errorf("shares must sum to 1, got %v", shareSum)
	}
}

func TestSettlementFiresExactlyOnce(t *testing.T) {
	c := testCoordinator(t, baseConfig())
	settled := 0
	c.OnSettle = func(Settlement) { settled++ }
	c.Spawn()

	c.AddDamage("alice", 1e9)
	// Further hits land on a dormant boss.
	c.AddDamage("alice", 1e9)
	c.AddDamage("bob", 1e9)

	if settled != 1 {
		t.Errorf("settlement must fire exactly once, fired %d times", settled)
	}
}

func TestHPGrowthAcrossKills(t *testing.T) {
	c := testCoordinator(t, baseConfig())

	c.Spawn()
	if got := c.Snapshot().MaxHP; got != 1000 {
		t.Fatalf("first spawn hp: expected 1000, got %v", got)
	}
	c.AddDamage("alice", 1e9)

	c.Spawn()
	if got := c.Snapshot().MaxHP; math.Abs(got-1500) > 1e-9 {
		t.Errorf("second spawn hp grows by 1.5x, got %v", got)
	}
}

func TestOnSpawnCallback(t *testing.T) {
	c := testCoordinator(t, baseConfig())
	var snap Snapshot
	c.OnSpawn = func(s Snapshot) { snap = s }

	c.Spawn()
	if !snap.Active || snap.MaxHP != 1000 {
		t.Errorf("spawn callback received %+v", snap)
	}
}
