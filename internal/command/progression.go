package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spirekeep/idlespire/internal/player"
)

// Base stat training increments and first-purchase prices. Each purchase of
// a stat raises its next price by the base price again.
const (
	hpPerUpgrade      = 10.0
	attackPerUpgrade  = 1.0
	defensePerUpgrade = 0.5

	hpUpgradeCost      = 50
	attackUpgradeCost  = 100
	defenseUpgradeCost = 100
)

func executeStatus(s *player.Session, d *Deps) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s ===\n", s.Name)
	fmt.Fprintf(&sb, "Floor: %d (best %d)\n", s.Floor, s.MaxFloor)
	fmt.Fprintf(&sb, "HP: %.0f/%.0f\n", s.HP, s.Totals.MaxHP)
	fmt.Fprintf(&sb, "Attack: %.1f  Defense: %.1f\n", s.Totals.Attack, s.Totals.Defense)
	fmt.Fprintf(&sb, "Crit: %.0f%%  Crit Resist: %.0f%%  Def Pen: %.0f%%\n",
		s.Totals.CritChance*100, s.Totals.CritResist*100, s.Totals.DefensePen*100)
	fmt.Fprintf(&sb, "Gold: %d\n", s.Gold)

	weapon, armor := "none", "none"
	if s.Weapon != nil {
		weapon = s.Weapon.String()
	}
	if s.Armor != nil {
		armor = s.Armor.String()
	}
	fmt.Fprintf(&sb, "Weapon: %s\nArmor: %s\n", weapon, armor)

	if s.EquippedPet != nil {
		fmt.Fprintf(&sb, "Companion: %s\n", s.EquippedPet.Name)
	}

	target := "tower monsters"
	if s.Target == player.TargetWorldBoss {
		target = "the world boss"
	}
	fmt.Fprintf(&sb, "Attacking: %s", target)
	if s.Exploring {
		sb.WriteString("\nExploration mode is ON (no combat, loot only)")
	}
	return sb.String()
}

func executeUpgrade(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(2, "Usage: upgrade <hp|attack|defense> <amount|max>"); err != nil {
		return err.Error()
	}

	stat := strings.ToLower(c.Args[0])
	var perUpgrade float64
	var baseCost int
	var bought int
	switch stat {
	case "hp", "health":
		perUpgrade, baseCost = hpPerUpgrade, hpUpgradeCost
		bought = int((s.Base.HP - player.BaseHP) / hpPerUpgrade)
	case "attack", "atk":
		perUpgrade, baseCost = attackPerUpgrade, attackUpgradeCost
		bought = int((s.Base.Attack - player.BaseAttack) / attackPerUpgrade)
	case "defense", "def":
		perUpgrade, baseCost = defensePerUpgrade, defenseUpgradeCost
		bought = int(s.Base.Defense / defensePerUpgrade)
	default:
		return fmt.Sprintf("Unknown stat: %s (try hp, attack, or defense)", stat)
	}

	want := 0
	if strings.ToLower(c.Args[1]) == "max" {
		want = -1
	} else {
		n, err := strconv.Atoi(c.Args[1])
		if err != nil || n < 1 {
			return "Amount must be a positive number or 'max'."
		}
		want = n
	}

	purchased := 0
	spent := 0
	for want == -1 || purchased < want {
		cost := baseCost * (bought + 1)
		if !s.SpendGold(cost) {
			break
		}
		spent += cost
		bought++
		purchased++
	}
	if purchased == 0 {
		return fmt.Sprintf("Not enough gold (next %s upgrade costs %d).", stat, baseCost*(bought+1))
	}

	switch stat {
	case "hp", "health":
		s.Base.HP += float64(purchased) * perUpgrade
	case "attack", "atk":
		s.Base.Attack += float64(purchased) * perUpgrade
	case "defense", "def":
		s.Base.Defense += float64(purchased) * perUpgrade
	}
	s.Recompute(d.Catalog, d.Config.Simulation.BossFloorInterval)

	return fmt.Sprintf("Trained %s x%d for %d gold.", stat, purchased, spent)
}

func executeTarget(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(1, "Usage: target <monster|boss>"); err != nil {
		return err.Error()
	}

	switch strings.ToLower(c.Args[0]) {
	case "monster", "tower", "floor":
		s.Target = player.TargetFloor
		return "You turn your attention back to the tower."
	case "boss", "worldboss":
		snap := d.Boss.Snapshot()
		if !snap.Active {
			return "The world boss is not here right now."
		}
		s.Target = player.TargetWorldBoss
		s.Exploring = false
		return "You join the assault on the world boss!"
	default:
		return "Usage: target <monster|boss>"
	}
}

func executeExplore(s *player.Session) string {
	s.Exploring = !s.Exploring
	if s.Exploring {
		s.Target = player.TargetFloor
		return "You start exploring. Combat is paused; you may stumble on treasure."
	}
	return "You stop exploring and ready your weapon."
}
