package command

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/player"
)

func executePet(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(2, "Usage: pet <equip|unequip> <pet name>"); err != nil {
		if len(c.Args) == 1 && strings.ToLower(c.Args[0]) == "unequip" {
			return executePetUnequip(s, d)
		}
		return err.Error()
	}

	name := strings.Join(c.Args[1:], " ")
	switch strings.ToLower(c.Args[0]) {
	case "equip":
		pet, ok := item.FindByName(s.Companions, name)
		if !ok {
			return fmt.Sprintf("You don't have a pet called '%s'.", name)
		}
		s.EquippedPet = pet
		s.Recompute(d.Catalog, d.Config.Simulation.BossFloorInterval)
		return fmt.Sprintf("%s is now fighting at your side.", pet.Name)
	case "unequip":
		return executePetUnequip(s, d)
	default:
		return "Usage: pet <equip|unequip> <pet name>"
	}
}

func executePetUnequip(s *player.Session, d *Deps) string {
	if s.EquippedPet == nil {
		return "You have no active companion."
	}
	name := s.EquippedPet.Name
	s.EquippedPet = nil
	s.Recompute(d.Catalog, d.Config.Simulation.BossFloorInterval)
	return fmt.Sprintf("%s returns to your pack.", name)
}

func executeIncubator(c *Command, s *player.Session, d *Deps, rng *rand.Rand) string {
	if len(c.Args) == 0 {
		return executeIncubatorStatus(s)
	}

	sub := strings.ToLower(c.Args[0])
	switch sub {
	case "place":
		name := strings.Join(c.Args[1:], " ")
		if name == "" {
			return "Usage: incubator place <egg name>"
		}
		egg, ok := item.FindByName(s.Inventory, name)
		if !ok {
			return fmt.Sprintf("You don't have '%s'.", name)
		}
		if err := s.IncubatorPlace(egg.InstanceID); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("You settle %s into the incubator.", egg.Name)
	case "start":
		if err := s.IncubatorStart(time.Now()); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("The incubator hums to life. Ready in %s.", player.IncubationTime)
	case "remove":
		if err := s.IncubatorRemove(); err != nil {
			return err.Error()
		}
		return "You take the egg back out of the incubator."
	case "claim":
		pet, err := s.IncubatorClaim(d.Catalog, rng, time.Now())
		if err != nil {
			return err.Error()
		}
		s.LogActivity(fmt.Sprintf("Hatched %s", pet.Name))
		return fmt.Sprintf("The egg cracks open: %s joins your companions!", pet.Name)
	case "status":
		return executeIncubatorStatus(s)
	default:
		return "Usage: incubator <place|start|remove|claim> ..."
	}
}

func executeIncubatorStatus(s *player.Session) string {
	if s.Incubator == nil {
		return "The incubator is empty."
	}
	if !s.Incubator.Started {
		return fmt.Sprintf("%s is waiting in the incubator. Use 'incubator start'.", s.Incubator.Egg.Name)
	}
	remaining := time.Until(s.Incubator.CompletesAt)
	if remaining <= 0 {
		return "The incubator is done! Use 'incubator claim'."
	}
	return fmt.Sprintf("%s is incubating; %s remaining.", s.Incubator.Egg.Name, remaining.Round(time.Second))
}

func executeFusion(c *Command, s *player.Session, d *Deps, rng *rand.Rand) string {
	if len(c.Args) == 0 {
		return executeFusionStatus(s)
	}

	sub := strings.ToLower(c.Args[0])
	switch sub {
	case "slot":
		name := strings.Join(c.Args[1:], " ")
		if name == "" {
			return "Usage: fusion slot <pet name>"
		}
		pet, ok := item.FindByName(s.Companions, name)
		if !ok {
			return fmt.Sprintf("You don't have a pet called '%s'.", name)
		}
		if err := s.FusionSlot(pet.InstanceID); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("%s steps onto the fusion altar.", pet.Name)
	case "unslot":
		name := strings.Join(c.Args[1:], " ")
		if name == "" {
			return "Usage: fusion unslot <pet name>"
		}
		if s.Fusion == nil || len(s.Fusion.Slots) == 0 {
			return "The fusion altar is empty."
		}
		pet, ok := item.FindByName(s.Fusion.Slots, name)
		if !ok {
			return fmt.Sprintf("'%s' is not on the altar.", name)
		}
		if err := s.FusionUnslot(pet.InstanceID); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("%s hops back down.", pet.Name)
	case "start":
		if err := s.FusionStart(time.Now()); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("The altar flares. Fusion completes in %s.", player.FusionTime)
	case "claim":
		pet, err := s.FusionClaim(d.Catalog, rng, time.Now())
		if err != nil {
			return err.Error()
		}
		s.LogActivity(fmt.Sprintf("Fused a new companion: %s", pet.Name))
		return fmt.Sprintf("The light fades: %s emerges from the fusion!", pet.Name)
	case "status":
		return executeFusionStatus(s)
	default:
		return "Usage: fusion <slot|unslot|start|claim> ..."
	}
}

func executeFusionStatus(s *player.Session) string {
	if s.Fusion == nil || len(s.Fusion.Slots) == 0 {
		return "The fusion altar is empty."
	}

	names := make([]string, 0, len(s.Fusion.Slots))
	for _, pet := range s.Fusion.Slots {
		names = append(names, pet.Name)
	}
	line := "On the altar: " + strings.Join(names, ", ")
	if !s.Fusion.Started {
		return line
	}
	remaining := time.Until(s.Fusion.CompletesAt)
	if remaining <= 0 {
		return line + "\nThe fusion is complete! Use 'fusion claim'."
	}
	return fmt.Sprintf("%s\nFusing; %s remaining.", line, remaining.Round(time.Second))
}
