package combat

import (
	"math/rand"

	"github.com/spirekeep/idlespire/internal/stats"
)

// MonsterCritChance returns the monster's critical hit chance for a floor,
// reduced by the player's critical resistance and floored at zero.
func MonsterCritChance(floor int, critResist float64) float64 {
	var chance float64
	switch {
	case floor <= 10:
		chance = 0.05
	case floor <= 30:
		chance = 0.08
	case floor <= 50:
		chance = 0.10
	default:
		chance = 0.15
	}
	chance -= critResist
	if chance < 0 {
		chance = 0
	}
	return chance
}

// PlayerDamage computes the damage one player hit deals to a monster.
// Criticals deal full attack with no defense applied; otherwise the monster's
// defense is reduced by the player's defense penetration fraction.
func PlayerDamage(t stats.Totals, m *Monster, crit bool) float64 {
	if crit {
		return t.Attack
	}
	effDef := m.Defense * (1 - t.DefensePen)
	dmg := t.Attack - effDef
	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// MonsterDamage computes the damage one monster hit deals to the player.
// The player's effective defense is halved when defending against a boss.
func MonsterDamage(m *Monster, t stats.Totals, crit bool) float64 {
	if crit {
		return m.Attack
	}
	effDef := t.Defense
	if m.Boss {
		effDef /= 2
	}
	dmg := m.Attack - effDef
	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// Round is the outcome of one combat tick between a player and a monster.
type Round struct {
	PlayerCrit      bool
	MonsterCrit     bool
	DamageDealt     float64
	DamageTaken     float64
	MonsterDefeated bool
	PlayerDefeated  bool
}

// Fight resolves one tick of floor combat. Both sides strike; the monster's
// hp is mutated, the player's hp change is reported in the round for the
// caller to apply. Crits roll independently for each side.
func Fight(rng *rand.Rand, t stats.Totals, playerHP float64, m *Monster) Round {
	r := Round{
		PlayerCrit:  rng.Float64() < t.CritChance,
		MonsterCrit: rng.Float64() < MonsterCritChance(m.Floor, t.CritResist),
	}

	r.DamageDealt = PlayerDamage(t, m, r.PlayerCrit)
	r.DamageTaken = MonsterDamage(m, t, r.MonsterCrit)

	m.HP -= r.DamageDealt
	if m.HP <= 0 {
		m.HP = 0
		r.MonsterDefeated = true
	}

	if playerHP-r.DamageTaken <= 0 {
		r.PlayerDefeated = true
	}

	return r
}
