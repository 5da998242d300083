// Package enhance implements the equipment enhancement gamble: per-level
// outcome tables, catalyst probability shifting, protection tickets, and the
// gold cost curve.
package enhance

import "math"

// Outcome is the result of one enhancement attempt. Exactly one outcome
// occurs per attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeMaintain
	OutcomeFail
	OutcomeDestroy
)

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMaintain:
		return "maintain"
	case OutcomeFail:
		return "fail"
	case OutcomeDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Probabilities is one row of the outcome table. The four buckets sum to 1.
type Probabilities struct {
	Success  float64
	Maintain float64
	Fail     float64
	Destroy  float64
}

// CatalystBonus is the maximum probability mass a catalyst moves into the
// success bucket.
const CatalystBonus = 0.10

// ProtectMinLevel is the minimum enhancement level at which a protection
// ticket can downgrade a destroy outcome to maintain.
const ProtectMinLevel = 10

// BaseCost and CostGrowth define the attempt cost curve:
// cost = floor(BaseCost * CostGrowth^currentLevel).
const (
	BaseCost   = 1000
	CostGrowth = 2.1
)

// table is indexed by target level (current level + 1). Levels past the table
// fall back to highLevelRow.
var table = map[int]Probabilities{
	1:  {0.95, 0.05, 0.00, 0.00},
	2:  {0.90, 0.10, 0.00, 0.00},
	3:  {0.85, 0.15, 0.00, 0.00},
	4:  {0.80, 0.20, 0.00, 0.00},
	5:  {0.70, 0.25, 0.05, 0.00},
	6:  {0.60, 0.30, 0.10, 0.00},
	7:  {0.50, 0.35, 0.15, 0.00},
	8:  {0.45, 0.35, 0.20, 0.00},
	9:  {0.35, 0.40, 0.25, 0.00},
	10: {0.30, 0.45, 0.25, 0.00},
	11: {0.25, 0.40, 0.30, 0.05},
	12: {0.20, 0.40, 0.33, 0.07},
	13: {0.17, 0.38, 0.35, 0.10},
	14: {0.15, 0.35, 0.38, 0.12},
	15: {0.12, 0.35, 0.38, 0.15},
	16: {0.10, 0.33, 0.39, 0.18},
	17: {0.08, 0.32, 0.40, 0.20},
	18: {0.07, 0.30, 0.40, 0.23},
	19: {0.06, 0.28, 0.41, 0.25},
	20: {0.05, 0.27, 0.40, 0.28},
}

var highLevelRow = Probabilities{0.03, 0.27, 0.40, 0.30}

// TableFor returns the outcome probabilities for an attempt from
// currentLevel to currentLevel+1.
func TableFor(currentLevel int) Probabilities {
	if row, ok := table[currentLevel+1]; ok {
		return row
	}
	return highLevelRow
}

// Cost returns the gold cost of an attempt from the given level.
func Cost(currentLevel int) int {
	if currentLevel < 0 {
		currentLevel = 0
	}
	return int(math.Floor(BaseCost * math.Pow(CostGrowth, float64(currentLevel))))
}

// ApplyCatalyst shifts up to CatalystBonus of probability mass into success,
// draining destroy first, then fail, then maintain. No bucket goes negative
// and success never gains more than CatalystBonus.
func (p Probabilities) ApplyCatalyst() Probabilities {
	remaining := CatalystBonus

	take := math.Min(remaining, p.Destroy)
	p.Destroy -= take
	p.Success += take
	remaining -= take

	take = math.Min(remaining, p.Fail)
	p.Fail -= take
	p.Success += take
	remaining -= take

	take = math.Min(remaining, p.Maintain)
	p.Maintain -= take
	p.Success += take

	return p
}

// Pick maps a uniform roll in [0,1) onto an outcome. Buckets are laid out in
// order success, maintain, fail, destroy.
func (p Probabilities) Pick(roll float64) Outcome {
	switch {
	case roll < p.Success:
		return OutcomeSuccess
	case roll < p.Success+p.Maintain:
		return OutcomeMaintain
	case roll < p.Success+p.Maintain+p.Fail:
		return OutcomeFail
	default:
		return OutcomeDestroy
	}
}
