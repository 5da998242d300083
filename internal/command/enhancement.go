package command

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/enhance"
	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/player"
	"github.com/spirekeep/idlespire/internal/records"
)

func executeEnhance(c *Command, s *player.Session, d *Deps, rng *rand.Rand) string {
	if err := c.RequireArgs(1, "Usage: enhance <item name> [protect] [catalyst]"); err != nil {
		return err.Error()
	}

	args := c.Args
	useProtect, useCatalyst := false, false
	for len(args) > 1 {
		flag := strings.ToLower(args[len(args)-1])
		if flag != "protect" && flag != "catalyst" {
			break
		}
		if flag == "protect" {
			useProtect = true
		} else {
			useCatalyst = true
		}
		args = args[:len(args)-1]
	}

	name := strings.Join(args, " ")
	target, equipped := findEnhanceTarget(s, name)
	if target == nil {
		return fmt.Sprintf("You don't have '%s'.", name)
	}

	// A stacked instance enhances a single split-off unit. Validate before
	// splitting so a rejected attempt leaves the stack untouched.
	wasSplit := false
	if !equipped && target.Quantity > 1 {
		if !target.IsEquipment() {
			return enhance.ErrNotEquipment.Error()
		}
		if enhance.Cost(target.Level) > s.Gold {
			return enhance.ErrInsufficientGold.Error()
		}
		split, err := target.Split(1)
		if err != nil {
			return err.Error()
		}
		s.Inventory = append(s.Inventory, split)
		target = split
		wasSplit = true
	}

	res, err := enhance.Attempt(rng, enhance.Request{
		Item:           target,
		Gold:           s.Gold,
		UseProtect:     useProtect,
		UseCatalyst:    useCatalyst,
		TicketsOwned:   item.CountTemplate(s.Inventory, catalog.ItemProtectTicket),
		CatalystsOwned: item.CountTemplate(s.Inventory, catalog.ItemCatalyst),
	})
	if err != nil {
		return err.Error()
	}

	s.SpendGold(res.Cost)
	if res.ConsumedTicket {
		item.ConsumeTemplate(&s.Inventory, catalog.ItemProtectTicket, 1)
	}
	if res.ConsumedCatalyst {
		item.ConsumeTemplate(&s.Inventory, catalog.ItemCatalyst, 1)
	}

	var out string
	switch res.Outcome {
	case enhance.OutcomeSuccess:
		out = fmt.Sprintf("Enhancement succeeded! %s is now +%d.", target.Name, res.NewLevel)
		s.LogActivity(fmt.Sprintf("Enhanced %s to +%d", target.Name, res.NewLevel))
		noteEnhanceMilestone(s, d, target, res.NewLevel)
	case enhance.OutcomeMaintain:
		if res.ConsumedTicket {
			out = fmt.Sprintf("The protection ticket crumbles; %s survives at +%d.", target.Name, res.NewLevel)
		} else {
			out = fmt.Sprintf("Nothing happens. %s stays at +%d.", target.Name, res.NewLevel)
		}
	case enhance.OutcomeFail:
		out = fmt.Sprintf("Enhancement failed. %s drops to +%d.", target.Name, res.NewLevel)
	case enhance.OutcomeDestroy:
		if equipped {
			if s.Weapon == target {
				s.Weapon = nil
			}
			if s.Armor == target {
				s.Armor = nil
			}
		} else {
			item.Remove(&s.Inventory, target.InstanceID)
		}
		out = fmt.Sprintf("%s shatters into dust!", target.Name)
		s.LogActivity(fmt.Sprintf("%s was destroyed during enhancement", target.Name))
	}

	// A split unit that survives at +0 folds back into its stack.
	if wasSplit && res.Outcome != enhance.OutcomeDestroy && target.Level == 0 {
		if removed, ok := item.Remove(&s.Inventory, target.InstanceID); ok {
			item.Stack(&s.Inventory, removed)
		}
	}

	s.Recompute(d.Catalog, d.Config.Simulation.BossFloorInterval)
	return out
}

// findEnhanceTarget resolves an item name against the equipped slots first,
// then the inventory. Reports whether the match was an equipped slot.
func findEnhanceTarget(s *player.Session, name string) (*item.Instance, bool) {
	lower := strings.ToLower(name)
	if s.Weapon != nil && strings.Contains(strings.ToLower(s.Weapon.Name), lower) {
		return s.Weapon, true
	}
	if s.Armor != nil && strings.Contains(strings.ToLower(s.Armor.Name), lower) {
		return s.Armor, true
	}
	if inst, ok := item.FindByName(s.Inventory, name); ok {
		return inst, false
	}
	return nil, false
}

// noteEnhanceMilestone updates server records and announces big successes.
func noteEnhanceMilestone(s *player.Session, d *Deps, inst *item.Instance, level int) {
	kind := records.KindWeaponEnhance
	if inst.Type == catalog.TypeArmor {
		kind = records.KindArmorEnhance
	}
	if _, err := d.Records.Observe(kind, s.Name, int64(level), fmt.Sprintf("%s +%d", inst.Name, level)); err != nil {
		logger.Error("Failed to persist enhancement record", "player", s.ID, "error", err)
	}

	if level >= d.Config.Economy.AnnounceEnhanceLevel {
		d.Game.BroadcastToAll(fmt.Sprintf("*** %s enhanced %s to +%d! ***", s.Name, inst.Name, level))
	}
}
