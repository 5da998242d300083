// Package stats derives a player's total combat stats from base stats,
// equipped gear, the equipped companion, and unlocked artifacts.
package stats

import (
	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/item"
)

// BaseCritChance is the player's critical hit chance before companion bonuses.
const BaseCritChance = 0.05

// bossArtifactMultiplier is applied to attack and defense on boss floors
// while the boss damage artifact is unlocked.
const bossArtifactMultiplier = 1.5

// Base holds the player's raw, upgradeable stats.
type Base struct {
	HP      float64 `json:"hp"`
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

// Totals is the derived stat block used by the combat resolver. It is
// recomputed after every equipment, enhancement, companion, base stat, or
// artifact change and never persisted independently.
type Totals struct {
	MaxHP      float64
	Attack     float64
	Defense    float64
	DefensePen float64
	CritChance float64
	CritResist float64
}

// Input collects everything the aggregation reads.
type Input struct {
	Base         Base
	Weapon       *item.Instance // nil when slot empty
	WeaponEffect float64        // catalog base effect of the equipped weapon
	Armor        *item.Instance
	ArmorEffect  float64
	Companion    *catalog.CompanionEffect // nil when no pet equipped
	Artifacts    map[string]bool          // unlocked artifact ids
	OnBossFloor  bool
	ResearchAtk  float64 // fractional research bonuses, 0 when none
	ResearchDef  float64
	ResearchHP   float64
}

// EnhanceBonus computes the stat bonus an enhanced piece of gear grants:
// baseEffect scaled by 10% per level for the first ten levels and 50% per
// level beyond that.
func EnhanceBonus(baseEffect float64, level int) float64 {
	if level < 0 {
		level = 0
	}
	increments := 0.0
	if level <= 10 {
		increments = 0.1 * float64(level)
	} else {
		increments = 0.1*10 + 0.5*float64(level-10)
	}
	return baseEffect * (1 + increments)
}

// Aggregate recomputes the total stat block. It is a pure function of its
// input: calling it twice with the same input yields identical totals.
func Aggregate(in Input) Totals {
	t := Totals{
		MaxHP:      in.Base.HP * (1 + in.ResearchHP),
		Attack:     in.Base.Attack * (1 + in.ResearchAtk),
		Defense:    in.Base.Defense * (1 + in.ResearchDef),
		CritChance: BaseCritChance,
	}

	if in.Weapon != nil {
		t.Attack += EnhanceBonus(in.WeaponEffect, in.Weapon.Level)
	}
	if in.Armor != nil {
		bonus := EnhanceBonus(in.ArmorEffect, in.Armor.Level)
		// Armor contributes its effect to defense and twice that to max hp.
		t.Defense += bonus
		t.MaxHP += bonus * 2
	}

	if in.OnBossFloor && in.Artifacts[catalog.ArtifactBossDamage] {
		t.Attack *= bossArtifactMultiplier
		t.Defense *= bossArtifactMultiplier
	}

	if in.Companion != nil {
		t.CritChance += in.Companion.CritChance
		t.CritResist += in.Companion.CritResist
		t.DefensePen += in.Companion.DefensePen
	}

	return t
}

// RescaleHP maps current hp proportionally onto a new maximum, clamped so it
// never exceeds the new max. A zero old max yields the full new max.
func RescaleHP(current, oldMax, newMax float64) float64 {
	if oldMax <= 0 {
		return newMax
	}
	rescaled := current / oldMax * newMax
	if rescaled > newMax {
		rescaled = newMax
	}
	if rescaled < 0 {
		rescaled = 0
	}
	return rescaled
}
