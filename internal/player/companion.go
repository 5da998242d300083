package player

import (
	"errors"
	"math/rand"
	"time"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/item"
)

// Incubation and fusion durations.
const (
	IncubationTime = time.Hour
	FusionTime     = 30 * time.Minute
)

var (
	ErrIncubatorOccupied = errors.New("the incubator already holds an egg")
	ErrIncubatorEmpty    = errors.New("the incubator is empty")
	ErrIncubatorRunning  = errors.New("the incubation has already started")
	ErrNotReady          = errors.New("not finished yet")
	ErrNotAnEgg          = errors.New("only eggs can be incubated")
	ErrFusionFull        = errors.New("both fusion slots are occupied")
	ErrFusionRunning     = errors.New("the fusion has already started")
	ErrFusionNeedsTwo    = errors.New("fusion needs two pets slotted")
	ErrNotAPet           = errors.New("only pets can be fused")
	ErrItemNotFound      = errors.New("item not found")
)

// IncubatorPlace moves one egg from the inventory into the incubator.
// Caller holds the lock.
func (s *Session) IncubatorPlace(instanceID string) error {
	if s.Incubator != nil {
		return ErrIncubatorOccupied
	}
	inst, ok := item.FindByID(s.Inventory, instanceID)
	if !ok {
		return ErrItemNotFound
	}
	if inst.Type != catalog.TypeEgg {
		return ErrNotAnEgg
	}

	egg := inst
	if inst.Quantity > 1 {
		split, err := inst.Split(1)
		if err != nil {
			return err
		}
		egg = split
	} else {
		item.Remove(&s.Inventory, instanceID)
	}

	s.Incubator = &Incubation{Egg: egg}
	return nil
}

// IncubatorStart begins the incubation countdown. Caller holds the lock.
func (s *Session) IncubatorStart(now time.Time) error {
	if s.Incubator == nil {
		return ErrIncubatorEmpty
	}
	if s.Incubator.Started {
		return ErrIncubatorRunning
	}
	s.Incubator.Started = true
	s.Incubator.CompletesAt = now.Add(IncubationTime)
	return nil
}

// IncubatorRemove returns the egg to the inventory and clears the incubator.
// Caller holds the lock.
func (s *Session) IncubatorRemove() error {
	if s.Incubator == nil {
		return ErrIncubatorEmpty
	}
	s.AddItem(s.Incubator.Egg)
	s.Incubator = nil
	return nil
}

// IncubatorClaim hatches a finished egg into a random pet. The grade roll
// favors uncommon pets with a small legendary tail. Caller holds the lock.
func (s *Session) IncubatorClaim(cat *catalog.Catalog, rng *rand.Rand, now time.Time) (*item.Instance, error) {
	if s.Incubator == nil {
		return nil, ErrIncubatorEmpty
	}
	if !s.Incubator.Started || now.Before(s.Incubator.CompletesAt) {
		return nil, ErrNotReady
	}

	var grade catalog.Grade
	switch roll := rng.Intn(100); {
	case roll < 55:
		grade = catalog.GradeUncommon
	case roll < 85:
		grade = catalog.GradeRare
	case roll < 98:
		grade = catalog.GradeEpic
	default:
		grade = catalog.GradeLegendary
	}

	tmpl := petOfGrade(cat, grade, rng)
	if tmpl == nil {
		// Unreachable combination: give the egg back rather than eat it.
		s.AddItem(s.Incubator.Egg)
		s.Incubator = nil
		return nil, ErrNotReady
	}

	pet := item.New(tmpl, 1)
	s.Incubator = nil
	s.AddItem(pet)
	return pet, nil
}

// FusionSlot moves a pet from the companion inventory into a free fusion
// slot. Caller holds the lock.
func (s *Session) FusionSlot(instanceID string) error {
	if s.Fusion != nil && s.Fusion.Started {
		return ErrFusionRunning
	}
	if s.Fusion != nil && len(s.Fusion.Slots) >= 2 {
		return ErrFusionFull
	}
	inst, ok := item.FindByID(s.Companions, instanceID)
	if !ok {
		return ErrItemNotFound
	}
	if inst.Type != catalog.TypePet {
		return ErrNotAPet
	}
	if s.EquippedPet != nil && s.EquippedPet.InstanceID == instanceID {
		s.EquippedPet = nil
	}

	pet := inst
	if inst.Quantity > 1 {
		split, err := inst.Split(1)
		if err != nil {
			return err
		}
		pet = split
	} else {
		item.Remove(&s.Companions, instanceID)
	}

	if s.Fusion == nil {
		s.Fusion = &FusionJob{}
	}
	s.Fusion.Slots = append(s.Fusion.Slots, pet)
	return nil
}

// FusionUnslot returns a slotted pet to the companion inventory.
// Caller holds the lock.
func (s *Session) FusionUnslot(instanceID string) error {
	if s.Fusion == nil {
		return ErrItemNotFound
	}
	if s.Fusion.Started {
		return ErrFusionRunning
	}
	for i, pet := range s.Fusion.Slots {
		if pet.InstanceID == instanceID {
			s.Fusion.Slots = append(s.Fusion.Slots[:i], s.Fusion.Slots[i+1:]...)
			s.AddItem(pet)
			if len(s.Fusion.Slots) == 0 {
				s.Fusion = nil
			}
			return nil
		}
	}
	return ErrItemNotFound
}

// FusionStart begins the fusion countdown. Requires both slots filled.
// Caller holds the lock.
func (s *Session) FusionStart(now time.Time) error {
	if s.Fusion == nil || len(s.Fusion.Slots) < 2 {
		return ErrFusionNeedsTwo
	}
	if s.Fusion.Started {
		return ErrFusionRunning
	}
	s.Fusion.Started = true
	s.Fusion.CompletesAt = now.Add(FusionTime)
	return nil
}

// FusionClaim resolves a finished fusion: the result is a random pet one
// grade above the better ingredient. When no higher-grade pet exists the
// materials are returned instead of being discarded. Caller holds the lock.
func (s *Session) FusionClaim(cat *catalog.Catalog, rng *rand.Rand, now time.Time) (*item.Instance, error) {
	if s.Fusion == nil || len(s.Fusion.Slots) < 2 {
		return nil, ErrFusionNeedsTwo
	}
	if !s.Fusion.Started || now.Before(s.Fusion.CompletesAt) {
		return nil, ErrNotReady
	}

	best := s.Fusion.Slots[0].Grade
	if s.Fusion.Slots[1].Grade > best {
		best = s.Fusion.Slots[1].Grade
	}

	tmpl := petOfGrade(cat, best+1, rng)
	if tmpl == nil {
		// Unreachable combination: compensate by returning the materials.
		for _, pet := range s.Fusion.Slots {
			s.AddItem(pet)
		}
		s.Fusion = nil
		return nil, ErrNotReady
	}

	result := item.New(tmpl, 1)
	s.Fusion = nil
	s.AddItem(result)
	return result, nil
}

// petOfGrade picks a uniform random pet template of the given grade,
// nil when none exists.
func petOfGrade(cat *catalog.Catalog, grade catalog.Grade, rng *rand.Rand) *catalog.Template {
	pool := cat.GradePool(grade)
	var pets []string
	for _, id := range pool {
		if tmpl, ok := cat.Get(id); ok && tmpl.Type == catalog.TypePet {
			pets = append(pets, id)
		}
	}
	if len(pets) == 0 {
		return nil
	}
	tmpl, _ := cat.Get(pets[rng.Intn(len(pets))])
	return tmpl
}
