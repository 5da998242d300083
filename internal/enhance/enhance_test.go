package enhance

import (
	"math"
	"math/rand"
	"testing"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/item"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testWeapon(level int) *item.Instance {
	inst := item.New(&catalog.Template{
		ID:       "iron_sword",
		Name:     "Iron Sword",
		Type:     catalog.TypeWeapon,
		Grade:    catalog.GradeCommon,
		Tradable: true,
	}, 1)
	inst.Level = level
	return inst
}

func TestTableRowsSumToOne(t *testing.T) {
	for level := 0; level < 25; level++ {
		p := TableFor(level)
		sum := p.Success + p.Maintain + p.Fail + p.Destroy
		if !almostEqual(sum, 1) {
			t.Errorf("level %d row sums to %v", level, sum)
		}
	}
}

func TestTableForKnownRows(t *testing.T) {
	p := TableFor(9) // attempt to +10
	if !almostEqual(p.Success, 0.30) || !almostEqual(p.Maintain, 0.45) ||
		!almostEqual(p.Fail, 0.25) || !almostEqual(p.Destroy, 0) {
		t.Errorf("row for +10 attempt wrong: %+v", p)
	}

	// Past the table end every attempt uses the high-level row.
	deep := TableFor(50)
	if !almostEqual(deep.Success, 0.03) || !almostEqual(deep.Destroy, 0.30) {
		t.Errorf("high level fallback wrong: %+v", deep)
	}
}

func TestPickBucketOrder(t *testing.T) {
	p := Probabilities{Success: 0.30, Maintain: 0.45, Fail: 0.25}

	cases := []struct {
		roll     float64
		expected Outcome
	}{
		{0.0, OutcomeSuccess},
		{0.29, OutcomeSuccess},
		{0.30, OutcomeMaintain},
		{0.74, OutcomeMaintain},
		{0.75, OutcomeFail},
		{0.95, OutcomeFail},
		{0.999, OutcomeFail},
	}
	for _, tc := range cases {
		if got := p.Pick(tc.roll); got != tc.expected {
			t.Errorf("roll %v: expected %v, got %v", tc.roll, tc.expected, got)
		}
	}

	destroyRow := Probabilities{Success: 0.05, Maintain: 0.27, Fail: 0.40, Destroy: 0.28}
	if got := destroyRow.Pick(0.99); got != OutcomeDestroy {
		t.Errorf("high roll should land in destroy, got %v", got)
	}
}

func TestApplyCatalyst(t *testing.T) {
	// Drains destroy first, then fail. Total mass stays 1.
	p := Probabilities{Success: 0.12, Maintain: 0.35, Fail: 0.38, Destroy: 0.15}
	b := p.ApplyCatalyst()

	if !almostEqual(b.Success, 0.22) {
		t.Errorf("success should gain the full bonus, got %v", b.Success)
	}
	if !almostEqual(b.Destroy, 0.05) {
		t.Errorf("destroy drains first, got %v", b.Destroy)
	}
	if !almostEqual(b.Fail, 0.38) || !almostEqual(b.Maintain, 0.35) {
		t.Error("fail and maintain must not change when destroy covers the bonus")
	}
	sum := b.Success + b.Maintain + b.Fail + b.Destroy
	if !almostEqual(sum, 1) {
		t.Errorf("catalyst row sums to %v", sum)
	}
}

func TestApplyCatalystSmallDestroy(t *testing.T) {
	p := Probabilities{Success: 0.25, Maintain: 0.40, Fail: 0.30, Destroy: 0.05}
	b := p.ApplyCatalyst()

	if b.Destroy != 0 {
		t.Errorf("destroy must drain to zero, got %v", b.Destroy)
	}
	if !almostEqual(b.Fail, 0.25) {
		t.Errorf("fail covers the remainder, got %v", b.Fail)
	}
	if !almostEqual(b.Success, 0.35) {
		t.Errorf("success gains the full bonus, got %v", b.Success)
	}
	if b.Destroy < 0 || b.Fail < 0 || b.Maintain < 0 {
		t.Error("no bucket may go negative")
	}
}

func TestCostCurve(t *testing.T) {
	cases := []struct {
		level    int
		expected int
	}{
		{0, 1000},
		{1, 2100},
		{2, 4410},
		{3, 9261},
		{-1, 1000}, // clamped
	}
	for _, tc := range cases {
		if got := Cost(tc.level); got != tc.expected {
			t.Errorf("Cost(%d): expected %d, got %d", tc.level, tc.expected, got)
		}
	}
}

func TestAttemptRejectsNonEquipment(t *testing.T) {
	potion := item.New(&catalog.Template{
		ID:   "hp_potion",
		Name: "Healing Potion",
		Type: catalog.TypeConsumable,
	}, 1)

	rng := rand.New(rand.NewSource(1))
	if _, err := Attempt(rng, Request{Item: potion, Gold: 100000}); err != ErrNotEquipment {
		t.Errorf("expected ErrNotEquipment, got %v", err)
	}
}

func TestAttemptRejectsInsufficientGold(t *testing.T) {
	w := testWeapon(0)
	rng := rand.New(rand.NewSource(1))

	_, err := Attempt(rng, Request{Item: w, Gold: 999})
	if err != ErrInsufficientGold {
		t.Fatalf("expected ErrInsufficientGold, got %v", err)
	}
	if w.Level != 0 {
		t.Error("failed validation must not mutate the item")
	}
}

func TestAttemptSuccessLevelsUp(t *testing.T) {
	// Level 0 -> 1 succeeds with 95% probability; scan seeds for one that
	// rolls into the success bucket.
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		w := testWeapon(0)
		res, err := Attempt(rng, Request{Item: w, Gold: 10000})
		if err != nil {
			t.Fatalf("attempt failed: %v", err)
		}
		if res.Outcome == OutcomeSuccess {
			if w.Level != 1 || res.NewLevel != 1 {
				t.Errorf("success must raise level to 1, item %d result %d", w.Level, res.NewLevel)
			}
			if res.Cost != 1000 {
				t.Errorf("level 0 attempt costs 1000, got %d", res.Cost)
			}
			return
		}
	}
	t.Fatal("no seed produced a success at 95% odds")
}

func TestAttemptFailDropsOneLevel(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		w := testWeapon(8)
		res, err := Attempt(rng, Request{Item: w, Gold: 1 << 40})
		if err != nil {
			t.Fatalf("attempt failed: %v", err)
		}
		if res.Outcome == OutcomeFail {
			if w.Level != 7 {
				t.Errorf("fail must drop one level, got %d", w.Level)
			}
			return
		}
	}
	t.Fatal("no seed produced a fail outcome")
}

func TestAttemptProtectConvertsDestroy(t *testing.T) {
	// At +12 the destroy bucket is live; with a protect ticket the outcome
	// downgrades to maintain and the ticket is consumed.
	var sawProtected bool
	for seed := int64(0); seed < 2000; seed++ {
		rng := rand.New(rand.NewSource(seed))
		w := testWeapon(12)
		res, err := Attempt(rng, Request{
			Item: w, Gold: 1 << 40, UseProtect: true, TicketsOwned: 1,
		})
		if err != nil {
			t.Fatalf("attempt failed: %v", err)
		}
		if res.Outcome == OutcomeDestroy {
			t.Fatal("destroy must never surface when protected")
		}
		if res.ConsumedTicket {
			sawProtected = true
			if res.Outcome != OutcomeMaintain {
				t.Errorf("protected destroy becomes maintain, got %v", res.Outcome)
			}
			if w.Level != 12 {
				t.Errorf("maintain keeps the level, got %d", w.Level)
			}
			if res.Destroyed {
				t.Error("protected item must not be destroyed")
			}
		}
	}
	if !sawProtected {
		t.Fatal("no seed exercised the protect path")
	}
}

func TestAttemptProtectIgnoredBelowMinLevel(t *testing.T) {
	// Below the protect threshold a ticket is never consumed even when offered.
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		w := testWeapon(5)
		res, err := Attempt(rng, Request{
			Item: w, Gold: 1 << 40, UseProtect: true, TicketsOwned: 1,
		})
		if err != nil {
			t.Fatalf("attempt failed: %v", err)
		}
		if res.ConsumedTicket {
			t.Fatal("ticket consumed below the protect threshold")
		}
	}
}

func TestAttemptDestroyWithoutProtection(t *testing.T) {
	var sawDestroy bool
	for seed := int64(0); seed < 2000; seed++ {
		rng := rand.New(rand.NewSource(seed))
		w := testWeapon(15)
		res, err := Attempt(rng, Request{Item: w, Gold: 1 << 40})
		if err != nil {
			t.Fatalf("attempt failed: %v", err)
		}
		if res.Outcome == OutcomeDestroy {
			sawDestroy = true
			if !res.Destroyed {
				t.Error("destroy outcome must set Destroyed")
			}
			break
		}
	}
	if !sawDestroy {
		t.Fatal("no seed produced a destroy at +15 odds")
	}
}

func TestAttemptCatalystConsumedOnlyWhenOwned(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	w := testWeapon(0)
	res, err := Attempt(rng, Request{Item: w, Gold: 10000, UseCatalyst: true, CatalystsOwned: 0})
	if err != nil {
		t.Fatalf("attempt failed: %v", err)
	}
	if res.ConsumedCatalyst {
		t.Error("catalyst consumed while owning none")
	}

	rng = rand.New(rand.NewSource(1))
	w = testWeapon(0)
	res, err = Attempt(rng, Request{Item: w, Gold: 10000, UseCatalyst: true, CatalystsOwned: 1})
	if err != nil {
		t.Fatalf("attempt failed: %v", err)
	}
	if !res.ConsumedCatalyst {
		t.Error("owned catalyst must be consumed when requested")
	}
}
