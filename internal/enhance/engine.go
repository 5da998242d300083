package enhance

import (
	"errors"
	"math/rand"

	"github.com/spirekeep/idlespire/internal/item"
)

// ErrNotEquipment is returned when the target item carries no enhancement level.
var ErrNotEquipment = errors.New("only weapons and armor can be enhanced")

// ErrInsufficientGold is returned when the attempt cost exceeds the caller's gold.
var ErrInsufficientGold = errors.New("not enough gold")

// Request describes one enhancement attempt.
type Request struct {
	Item          *item.Instance
	Gold          int  // caller's gold balance
	UseProtect    bool // consume a protection ticket on destroy
	UseCatalyst   bool // consume a catalyst to boost success
	TicketsOwned  int
	CatalystsOwned int
}

// Result describes what happened. The caller applies the side effects:
// deduct Cost, consume the flagged consumables, remove the item on Destroyed.
type Result struct {
	Outcome          Outcome
	Cost             int
	NewLevel         int
	Destroyed        bool
	ConsumedTicket   bool
	ConsumedCatalyst bool
}

// Attempt resolves one enhancement attempt against the target item. The item's
// level is mutated on success/fail; destruction is reported in the result for
// the caller to apply. Validation failures return before any mutation.
func Attempt(rng *rand.Rand, req Request) (Result, error) {
	if req.Item == nil || !req.Item.IsEquipment() {
		return Result{}, ErrNotEquipment
	}

	cost := Cost(req.Item.Level)
	if req.Gold < cost {
		return Result{}, ErrInsufficientGold
	}

	probs := TableFor(req.Item.Level)
	res := Result{Cost: cost}

	if req.UseCatalyst && req.CatalystsOwned > 0 {
		probs = probs.ApplyCatalyst()
		res.ConsumedCatalyst = true
	}

	res.Outcome = probs.Pick(rng.Float64())

	if res.Outcome == OutcomeDestroy && req.UseProtect && req.TicketsOwned > 0 && req.Item.Level >= ProtectMinLevel {
		res.Outcome = OutcomeMaintain
		res.ConsumedTicket = true
	}

	switch res.Outcome {
	case OutcomeSuccess:
		req.Item.Level++
	case OutcomeFail:
		if req.Item.Level > 0 {
			req.Item.Level--
		}
	case OutcomeDestroy:
		res.Destroyed = true
	}

	res.NewLevel = req.Item.Level
	return res, nil
}
