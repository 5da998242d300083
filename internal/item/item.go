// Package item defines runtime item instances and the inventory stacking rules.
package item

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spirekeep/idlespire/internal/catalog"
)

// Instance is a concrete item held by a player, an auction listing, or a
// reward in flight. It is generated from a catalog template and carries
// denormalized display attributes so it renders without a catalog lookup.
type Instance struct {
	InstanceID string           `json:"instance_id"`
	TemplateID string           `json:"template_id"`
	Name       string           `json:"name"`
	Type       catalog.ItemType `json:"type"`
	Grade      catalog.Grade    `json:"grade"`
	Quantity   int              `json:"quantity"`
	Level      int              `json:"level"` // enhancement level, weapon/armor only
	Tradable   bool             `json:"tradable"`
}

// New creates a fresh instance from a template.
func New(t *catalog.Template, quantity int) *Instance {
	if quantity < 1 {
		quantity = 1
	}
	return &Instance{
		InstanceID: uuid.NewString(),
		TemplateID: t.ID,
		Name:       t.Name,
		Type:       t.Type,
		Grade:      t.Grade,
		Quantity:   quantity,
		Tradable:   t.Tradable,
	}
}

// IsEquipment returns true for weapon and armor instances.
func (i *Instance) IsEquipment() bool {
	return i.Type == catalog.TypeWeapon || i.Type == catalog.TypeArmor
}

// Stackable reports whether this instance may merge with others of the same
// template: unenhanced, tradable, and not equipment currently worn (the
// caller never passes equipped instances through Stack).
func (i *Instance) Stackable() bool {
	return i.Level == 0 && i.Tradable
}

// CanMergeWith reports whether two instances satisfy the stacking invariant.
func (i *Instance) CanMergeWith(other *Instance) bool {
	return i.TemplateID == other.TemplateID && i.Stackable() && other.Stackable()
}

// Split carves n units off a stack into a new instance with a fresh id.
// Returns an error when n would empty or exceed the stack.
func (i *Instance) Split(n int) (*Instance, error) {
	if n < 1 || n >= i.Quantity {
		return nil, fmt.Errorf("cannot split %d of %d", n, i.Quantity)
	}
	i.Quantity -= n
	out := *i
	out.InstanceID = uuid.NewString()
	out.Quantity = n
	return &out, nil
}

// String returns a display string for the instance.
func (i *Instance) String() string {
	if i.Level > 0 {
		return fmt.Sprintf("+%d %s", i.Level, i.Name)
	}
	if i.Quantity > 1 {
		return fmt.Sprintf("%s x%d", i.Name, i.Quantity)
	}
	return i.Name
}
