package player

import (
	"testing"
	"time"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/item"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	return cat
}

func TestNewSessionDefaults(t *testing.T) {
	s := New("alice", "Alice", "player", 100)

	if s.Floor != 1 || s.MaxFloor != 1 {
		t.Errorf("fresh session starts on floor 1, got %d/%d", s.Floor, s.MaxFloor)
	}
	if s.Gold != 100 {
		t.Errorf("expected starting gold 100, got %d", s.Gold)
	}
	if s.HP != s.Totals.MaxHP {
		t.Error("fresh session starts at full hp")
	}
	if s.IsAdmin() {
		t.Error("player role is not admin")
	}
	if !New("x", "X", "admin", 0).IsAdmin() {
		t.Error("admin role must report admin")
	}
}

func TestSpendGold(t *testing.T) {
	s := New("alice", "Alice", "player", 100)

	if s.SpendGold(101) {
		t.Error("overdraft must be rejected")
	}
	if s.Gold != 100 {
		t.Error("rejected spend must not mutate")
	}
	if !s.SpendGold(100) {
		t.Error("exact spend must succeed")
	}
	if s.Gold != 0 {
		t.Errorf("expected 0 gold left, got %d", s.Gold)
	}
}

func TestAddItemRoutesPetsToCompanions(t *testing.T) {
	cat := testCatalog(t)
	s := New("alice", "Alice", "player", 0)

	petTmpl, _ := cat.Get("ember_fox")
	s.AddItem(item.New(petTmpl, 1))
	potTmpl, _ := cat.Get(catalog.ItemGoldPouch)
	s.AddItem(item.New(potTmpl, 1))

	if len(s.Companions) != 1 {
		t.Errorf("pet goes to companions, got %d there", len(s.Companions))
	}
	if len(s.Inventory) != 1 {
		t.Errorf("consumable goes to inventory, got %d there", len(s.Inventory))
	}
}

func TestLogActivityBounded(t *testing.T) {
	s := New("alice", "Alice", "player", 0)
	for i := 0; i < MaxActivityEntries+10; i++ {
		s.LogActivity("entry")
	}
	if len(s.Activity) != MaxActivityEntries {
		t.Errorf("activity log must cap at %d, got %d", MaxActivityEntries, len(s.Activity))
	}

	s.LogActivity("newest")
	if s.Activity[0].Message != "newest" {
		t.Error("newest entry goes first")
	}
}

func TestAdvanceFloorTracksMax(t *testing.T) {
	s := New("alice", "Alice", "player", 0)
	s.AdvanceFloor(4)
	if s.Floor != 5 || s.MaxFloor != 5 {
		t.Errorf("expected 5/5, got %d/%d", s.Floor, s.MaxFloor)
	}

	s.ResetToFloorOne()
	if s.Floor != 1 {
		t.Errorf("defeat resets floor, got %d", s.Floor)
	}
	if s.MaxFloor != 5 {
		t.Errorf("max floor never regresses, got %d", s.MaxFloor)
	}
	if s.HP != s.Totals.MaxHP {
		t.Error("reset restores full hp")
	}
}

func TestRecomputeAppliesEquipment(t *testing.T) {
	cat := testCatalog(t)
	s := New("alice", "Alice", "player", 0)
	bare := s.Totals

	tmpl, _ := cat.Get("rusty_sword")
	s.Weapon = item.New(tmpl, 1)
	s.Recompute(cat, 10)

	if s.Totals.Attack <= bare.Attack {
		t.Errorf("weapon must raise attack: %v -> %v", bare.Attack, s.Totals.Attack)
	}

	s.Weapon = nil
	s.Recompute(cat, 10)
	if s.Totals.Attack != bare.Attack {
		t.Error("recompute is idempotent when the weapon comes off")
	}
}

func TestTryRevive(t *testing.T) {
	cat := testCatalog(t)
	s := New("alice", "Alice", "player", 0)
	now := time.Now()

	// No pet: no revival.
	if s.TryRevive(cat, now) {
		t.Fatal("revive without a pet must fail")
	}

	// Find a pet granting revival from the companion tables.
	var reviver *catalog.Template
	for _, id := range []string{"ember_fox", "frost_owl", "shade_cat", "sun_phoenix"} {
		if eff, ok := cat.Companion(id); ok && eff.ReviveFraction > 0 {
			reviver, _ = cat.Get(id)
			break
		}
	}
	if reviver == nil {
		t.Skip("no default pet grants revival")
	}

	pet := item.New(reviver, 1)
	s.Companions = append(s.Companions, pet)
	s.EquippedPet = pet
	s.HP = 0

	if !s.TryRevive(cat, now) {
		t.Fatal("equipped reviver pet must revive")
	}
	if s.HP <= 0 {
		t.Error("revive must restore hp")
	}

	// On cooldown immediately after.
	s.HP = 0
	if s.TryRevive(cat, now.Add(time.Second)) {
		t.Error("revive must respect the cooldown")
	}
	if !s.TryRevive(cat, s.ReviveReadyAt.Add(time.Second)) {
		t.Error("revive must work again after the cooldown")
	}
}

func TestStateRoundTrip(t *testing.T) {
	cat := testCatalog(t)
	s := New("alice", "Alice", "player", 4200)
	s.Floor = 17
	s.MaxFloor = 23
	s.ClearedCount = 40
	s.Exploring = true
	s.Artifacts["gold_bonus"] = true

	sword, _ := cat.Get("iron_sword")
	s.Weapon = item.New(sword, 1)
	s.Weapon.Level = 7

	pouch, _ := cat.Get(catalog.ItemGoldPouch)
	s.AddItem(item.New(pouch, 3))

	petTmpl, _ := cat.Get("frost_owl")
	pet := item.New(petTmpl, 1)
	s.AddItem(pet)
	s.EquippedPet = pet

	s.LogActivity("cleared floor 17")

	data, err := MarshalState(s.ExportState())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	st, err := UnmarshalState(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	restored := New("alice", "Alice", "player", 0)
	restored.ApplyState(st)
	restored.Recompute(cat, 10)

	if restored.Gold != 4200 {
		t.Errorf("gold: expected 4200, got %d", restored.Gold)
	}
	if restored.Floor != 17 || restored.MaxFloor != 23 {
		t.Errorf("floors: expected 17/23, got %d/%d", restored.Floor, restored.MaxFloor)
	}
	if restored.ClearedCount != 40 {
		t.Errorf("cleared count: expected 40, got %d", restored.ClearedCount)
	}
	if !restored.Exploring {
		t.Error("exploring flag lost")
	}
	if !restored.Artifacts["gold_bonus"] {
		t.Error("artifact unlock lost")
	}
	if restored.Weapon == nil || restored.Weapon.Level != 7 {
		t.Error("enhanced weapon lost")
	}
	if got := item.CountTemplate(restored.Inventory, catalog.ItemGoldPouch); got != 3 {
		t.Errorf("inventory stack lost, count %d", got)
	}
	if len(restored.Activity) != 1 || restored.Activity[0].Message != "cleared floor 17" {
		t.Error("activity log lost")
	}

	// The equipped pet pointer must re-link to the restored companion slice,
	// not dangle on a deserialized copy.
	if restored.EquippedPet == nil {
		t.Fatal("equipped pet lost")
	}
	found, ok := item.FindByID(restored.Companions, restored.EquippedPet.InstanceID)
	if !ok || found != restored.EquippedPet {
		t.Error("equipped pet must alias the companion inventory entry")
	}
}

func TestApplyStateDefaults(t *testing.T) {
	s := New("alice", "Alice", "player", 0)
	s.ApplyState(State{})

	if s.Floor != 1 {
		t.Errorf("zero floor defaults to 1, got %d", s.Floor)
	}
	if s.MaxFloor != 1 {
		t.Errorf("max floor clamps up to floor, got %d", s.MaxFloor)
	}
	if s.Base.HP != BaseHP {
		t.Error("empty base stats keep the defaults")
	}
}
