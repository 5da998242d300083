package item

import "strings"

// Stack inserts an instance into an inventory, merging it into an existing
// compatible stack when the stacking rules allow. The inventory never holds
// two separate entries for the same stackable template.
func Stack(inv *[]*Instance, inst *Instance) {
	if inst.Stackable() {
		for _, existing := range *inv {
			if existing.CanMergeWith(inst) {
				existing.Quantity += inst.Quantity
				return
			}
		}
	}
	*inv = append(*inv, inst)
}

// Remove deletes an instance from an inventory by instance id.
// Returns the removed instance and true if found.
func Remove(inv *[]*Instance, instanceID string) (*Instance, bool) {
	for i, inst := range *inv {
		if inst.InstanceID == instanceID {
			removed := inst
			*inv = append((*inv)[:i], (*inv)[i+1:]...)
			return removed, true
		}
	}
	return nil, false
}

// FindByID returns the instance with the given instance id.
func FindByID(inv []*Instance, instanceID string) (*Instance, bool) {
	for _, inst := range inv {
		if inst.InstanceID == instanceID {
			return inst, true
		}
	}
	return nil, false
}

// FindByTemplate returns the first instance of a template id.
func FindByTemplate(inv []*Instance, templateID string) (*Instance, bool) {
	for _, inst := range inv {
		if inst.TemplateID == templateID {
			return inst, true
		}
	}
	return nil, false
}

// FindByName searches by name, exact match first, then partial
// (case-insensitive). Returns the first match.
func FindByName(inv []*Instance, name string) (*Instance, bool) {
	lowered := strings.ToLower(name)

	for _, inst := range inv {
		if strings.EqualFold(inst.Name, name) {
			return inst, true
		}
	}
	for _, inst := range inv {
		if strings.Contains(strings.ToLower(inst.Name), lowered) {
			return inst, true
		}
	}

	return nil, false
}

// CountTemplate sums the quantity held of a template id.
func CountTemplate(inv []*Instance, templateID string) int {
	total := 0
	for _, inst := range inv {
		if inst.TemplateID == templateID {
			total += inst.Quantity
		}
	}
	return total
}

// ConsumeTemplate removes n units of a template from an inventory, draining
// stacks in order. Returns false without mutating when fewer than n are held.
func ConsumeTemplate(inv *[]*Instance, templateID string, n int) bool {
	if CountTemplate(*inv, templateID) < n {
		return false
	}
	remaining := n
	for i := 0; i < len(*inv) && remaining > 0; {
		inst := (*inv)[i]
		if inst.TemplateID != templateID {
			i++
			continue
		}
		if inst.Quantity > remaining {
			inst.Quantity -= remaining
			remaining = 0
			break
		}
		remaining -= inst.Quantity
		*inv = append((*inv)[:i], (*inv)[i+1:]...)
	}
	return true
}
