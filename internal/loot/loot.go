// Package loot implements floor clear rewards, bonus floor skips, item drops,
// exploration loot, and gold pouch rolls. Every roll takes an injected
// *rand.Rand so tests can seed it.
package loot

import (
	"math/rand"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/combat"
	"github.com/spirekeep/idlespire/internal/item"
)

// goldArtifactMultiplier is the floor clear gold bonus of the gold artifact.
const goldArtifactMultiplier = 1.25

// FloorSkipInterval is how many clears the skip artifact needs per
// guaranteed bonus floor.
const FloorSkipInterval = 10

// Engine rolls loot against the catalog and economy tuning.
type Engine struct {
	catalog        *catalog.Catalog
	bossInterval   int
	skipChance     float64
	dropChance     float64
	bossDropChance float64
}

// NewEngine creates a loot engine.
func NewEngine(cat *catalog.Catalog, bossInterval int, skipChance, dropChance, bossDropChance float64) *Engine {
	return &Engine{
		catalog:        cat,
		bossInterval:   bossInterval,
		skipChance:     skipChance,
		dropChance:     dropChance,
		bossDropChance: bossDropChance,
	}
}

// ClearGold returns the gold granted for clearing a floor: floor number,
// x10 on boss floors, x1.25 with the gold artifact.
func (e *Engine) ClearGold(floor int, goldArtifact bool) int {
	gold := float64(floor)
	if combat.IsBossFloor(floor, e.bossInterval) {
		gold *= 10
	}
	if goldArtifact {
		gold *= goldArtifactMultiplier
	}
	return int(gold)
}

// SkipResult describes a bonus floor skip roll.
type SkipResult struct {
	Skipped    bool
	Guaranteed bool // artifact interval hit rather than a random roll
	Gold       int
}

// RollSkip decides whether a floor clear triggers a bonus skip.
// The skip artifact guarantees a skip every FloorSkipInterval clears and takes
// precedence; otherwise the base chance plus the companion bonus rolls once.
// The two never double-trigger from the same clear.
func (e *Engine) RollSkip(rng *rand.Rand, clearedCount int, skipArtifact bool, companionBonus float64, nextFloor int, goldArtifact bool) SkipResult {
	if skipArtifact && clearedCount > 0 && clearedCount%FloorSkipInterval == 0 {
		return SkipResult{Skipped: true, Guaranteed: true, Gold: e.ClearGold(nextFloor, goldArtifact)}
	}
	if rng.Float64() < e.skipChance+companionBonus {
		return SkipResult{Skipped: true, Gold: e.ClearGold(nextFloor, goldArtifact)}
	}
	return SkipResult{}
}

// gradeWeight is one entry of a floor bracket's grade table.
type gradeWeight struct {
	grade  catalog.Grade
	weight int
}

// gradeTableFor returns the weighted grade table for a floor bracket.
func gradeTableFor(floor int) []gradeWeight {
	switch {
	case floor <= 10:
		return []gradeWeight{
			{catalog.GradeCommon, 70},
			{catalog.GradeUncommon, 25},
			{catalog.GradeRare, 5},
		}
	case floor <= 30:
		return []gradeWeight{
			{catalog.GradeCommon, 45},
			{catalog.GradeUncommon, 35},
			{catalog.GradeRare, 15},
			{catalog.GradeEpic, 5},
		}
	case floor <= 50:
		return []gradeWeight{
			{catalog.GradeCommon, 25},
			{catalog.GradeUncommon, 35},
			{catalog.GradeRare, 25},
			{catalog.GradeEpic, 12},
			{catalog.GradeLegendary, 3},
		}
	default:
		return []gradeWeight{
			{catalog.GradeCommon, 10},
			{catalog.GradeUncommon, 25},
			{catalog.GradeRare, 30},
			{catalog.GradeEpic, 22},
			{catalog.GradeLegendary, 10},
			{catalog.GradeMythic, 3},
		}
	}
}

// rollGrade performs the weighted grade roll for a floor.
func rollGrade(rng *rand.Rand, floor int) catalog.Grade {
	table := gradeTableFor(floor)
	total := 0
	for _, gw := range table {
		total += gw.weight
	}
	roll := rng.Intn(total)
	for _, gw := range table {
		if roll < gw.weight {
			return gw.grade
		}
		roll -= gw.weight
	}
	return table[len(table)-1].grade
}

// RollDrop rolls the item drop for a floor clear. Returns nil when the drop
// chance misses or the grade pool is empty.
func (e *Engine) RollDrop(rng *rand.Rand, floor int) *item.Instance {
	chance := e.dropChance
	if combat.IsBossFloor(floor, e.bossInterval) {
		chance = e.bossDropChance
	}
	if rng.Float64() >= chance {
		return nil
	}

	grade := rollGrade(rng, floor)
	tmpl := e.catalog.RandomOfGrade(grade, rng)
	if tmpl == nil {
		return nil
	}
	return item.New(tmpl, 1)
}

// explorationEntry is one row of the exploration table: the first entry whose
// cumulative threshold exceeds the roll wins.
type explorationEntry struct {
	templateID string
	cumulative float64
}

var explorationTable = []explorationEntry{
	{catalog.ItemProtectTicket, 0.02},
	{catalog.ItemCatalyst, 0.05},
	{catalog.ItemGoldPouch, 0.10},
	{catalog.ItemEgg, 0.12},
}

// RollExploration rolls the exploration loot table for one tick. A roll past
// the table's total probability mass yields nothing.
func (e *Engine) RollExploration(rng *rand.Rand) *item.Instance {
	roll := rng.Float64()
	for _, entry := range explorationTable {
		if roll < entry.cumulative {
			if tmpl, ok := e.catalog.Get(entry.templateID); ok {
				return item.New(tmpl, 1)
			}
			return nil
		}
	}
	return nil
}

// pouchRange is one row of the gold pouch table.
type pouchRange struct {
	min, max int
	weight   int
}

var pouchTable = []pouchRange{
	{100, 500, 60},
	{500, 2000, 30},
	{2000, 10000, 9},
	{10000, 100000, 1},
}

// RollPouch rolls one gold pouch: a weighted range pick, then a uniform
// amount within the range.
func (e *Engine) RollPouch(rng *rand.Rand) int {
	total := 0
	for _, pr := range pouchTable {
		total += pr.weight
	}
	roll := rng.Intn(total)
	for _, pr := range pouchTable {
		if roll < pr.weight {
			return pr.min + rng.Intn(pr.max-pr.min+1)
		}
		roll -= pr.weight
	}
	return pouchTable[0].min
}
