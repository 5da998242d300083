package command

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/player"
)

func executeInventory(s *player.Session) string {
	if len(s.Inventory) == 0 && len(s.Companions) == 0 {
		return "Your bags are empty."
	}

	var sb strings.Builder
	sb.WriteString("=== Inventory ===")
	for _, inst := range s.Inventory {
		sb.WriteString("\n  " + inst.String())
	}
	if len(s.Companions) > 0 {
		sb.WriteString("\n=== Companions ===")
		for _, pet := range s.Companions {
			line := "\n  " + pet.Name
			if s.EquippedPet != nil && s.EquippedPet.InstanceID == pet.InstanceID {
				line += " (active)"
			}
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func executeEquip(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(1, "Usage: equip <item name>"); err != nil {
		return err.Error()
	}

	name := strings.Join(c.Args, " ")
	inst, ok := item.FindByName(s.Inventory, name)
	if !ok {
		return fmt.Sprintf("You don't have '%s'.", name)
	}
	if !inst.IsEquipment() {
		return fmt.Sprintf("%s cannot be equipped.", inst.Name)
	}

	// A stacked instance equips a single split-off unit.
	toEquip := inst
	if inst.Quantity > 1 {
		split, err := inst.Split(1)
		if err != nil {
			return err.Error()
		}
		toEquip = split
	} else {
		item.Remove(&s.Inventory, inst.InstanceID)
	}

	var prev *item.Instance
	switch toEquip.Type {
	case catalog.TypeWeapon:
		prev, s.Weapon = s.Weapon, toEquip
	case catalog.TypeArmor:
		prev, s.Armor = s.Armor, toEquip
	}
	if prev != nil {
		s.AddItem(prev)
	}

	s.Recompute(d.Catalog, d.Config.Simulation.BossFloorInterval)
	return fmt.Sprintf("You equip %s.", toEquip.String())
}

func executeUnequip(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(1, "Usage: unequip <weapon|armor>"); err != nil {
		return err.Error()
	}

	var inst *item.Instance
	switch strings.ToLower(c.Args[0]) {
	case "weapon":
		inst, s.Weapon = s.Weapon, nil
	case "armor":
		inst, s.Armor = s.Armor, nil
	default:
		return "Usage: unequip <weapon|armor>"
	}
	if inst == nil {
		return "Nothing is equipped there."
	}

	s.AddItem(inst)
	s.Recompute(d.Catalog, d.Config.Simulation.BossFloorInterval)
	return fmt.Sprintf("You unequip %s.", inst.String())
}

func executeSell(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(1, "Usage: sell <item name> [all]"); err != nil {
		return err.Error()
	}

	args := c.Args
	sellAll := false
	if strings.ToLower(args[len(args)-1]) == "all" && len(args) > 1 {
		sellAll = true
		args = args[:len(args)-1]
	}

	name := strings.Join(args, " ")
	inst, ok := item.FindByName(s.Inventory, name)
	if !ok {
		return fmt.Sprintf("You don't have '%s'.", name)
	}

	tmpl, ok := d.Catalog.Get(inst.TemplateID)
	if !ok || tmpl.SellValue <= 0 {
		return fmt.Sprintf("No merchant wants %s.", inst.Name)
	}

	qty := 1
	if sellAll {
		qty = inst.Quantity
	}

	if qty >= inst.Quantity {
		item.Remove(&s.Inventory, inst.InstanceID)
		qty = inst.Quantity
	} else {
		inst.Quantity -= qty
	}

	total := tmpl.SellValue * qty
	s.AddGold(total)
	return fmt.Sprintf("Sold %s x%d for %d gold.", inst.Name, qty, total)
}

func executeUse(c *Command, s *player.Session, d *Deps, rng *rand.Rand) string {
	if err := c.RequireArgs(1, "Usage: use <item name> [all]"); err != nil {
		return err.Error()
	}

	args := c.Args
	useAll := false
	if strings.ToLower(args[len(args)-1]) == "all" && len(args) > 1 {
		useAll = true
		args = args[:len(args)-1]
	}

	name := strings.Join(args, " ")
	inst, ok := item.FindByName(s.Inventory, name)
	if !ok {
		return fmt.Sprintf("You don't have '%s'.", name)
	}

	switch inst.TemplateID {
	case catalog.ItemGoldPouch:
		qty := 1
		if useAll {
			qty = inst.Quantity
		}
		total := 0
		for i := 0; i < qty; i++ {
			total += d.Loot.RollPouch(rng)
		}
		if qty >= inst.Quantity {
			item.Remove(&s.Inventory, inst.InstanceID)
		} else {
			inst.Quantity -= qty
		}
		s.AddGold(total)
		s.LogActivity(fmt.Sprintf("Opened %d gold pouch(es) for %d gold", qty, total))
		return fmt.Sprintf("You open %d pouch(es) and pocket %d gold.", qty, total)
	case catalog.ItemProtectTicket, catalog.ItemCatalyst:
		return fmt.Sprintf("%s is consumed automatically when you enhance with the matching flag.", inst.Name)
	case catalog.ItemEgg:
		return "Place the egg in the incubator: incubator place " + inst.Name
	default:
		return fmt.Sprintf("You can't use %s.", inst.Name)
	}
}
