// Package combat implements the per-tick combat resolution: floor monster
// scaling, critical rolls, and the damage formulas.
package combat

import "fmt"

// Monster is the procedurally scaled opponent for a floor.
type Monster struct {
	Floor   int     `json:"floor"`
	HP      float64 `json:"hp"`
	MaxHP   float64 `json:"max_hp"`
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
	Boss    bool    `json:"boss"`
}

// Scaling contains difficulty scaling parameters for floor monsters.
type Scaling struct {
	BossFloorInterval int
	BossAttackScale   float64
	BossDefenseScale  float64
}

// IsBossFloor returns true if the floor number is a boss floor.
func IsBossFloor(floor, interval int) bool {
	if interval <= 0 {
		return false
	}
	return floor > 0 && floor%interval == 0
}

// MonsterForFloor computes the monster for a floor deterministically.
// Base formulas: hp = n(n+1)/2, attack = 0.5n, defense = 0.2n, which puts the
// floor 1 monster at hp 1, attack 0.5, defense 0.2. Boss floors carry 10x hp
// and configured attack/defense scaling.
func MonsterForFloor(floor int, s Scaling) Monster {
	if floor < 1 {
		floor = 1
	}
	n := float64(floor)
	m := Monster{
		Floor:   floor,
		HP:      n * (n + 1) / 2,
		Attack:  0.5 * n,
		Defense: 0.2 * n,
	}

	if IsBossFloor(floor, s.BossFloorInterval) {
		m.Boss = true
		m.HP *= 10
		m.Attack *= s.BossAttackScale
		m.Defense *= s.BossDefenseScale
	}

	m.MaxHP = m.HP
	return m
}

// String returns a display name for the monster.
func (m *Monster) String() string {
	if m.Boss {
		return fmt.Sprintf("Floor %d Guardian", m.Floor)
	}
	return fmt.Sprintf("Floor %d Monster", m.Floor)
}
