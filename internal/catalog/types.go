// Package catalog holds the immutable template tables the simulation reads:
// item templates, companion effects, artifact definitions, and research
// bonuses. The tables are loaded once at startup and never mutated.
package catalog

// ItemType classifies an item template.
type ItemType int

const (
	TypeMisc ItemType = iota
	TypeWeapon
	TypeArmor
	TypeConsumable
	TypePet
	TypeEgg
)

// String returns the string representation of an ItemType
func (t ItemType) String() string {
	switch t {
	case TypeWeapon:
		return "weapon"
	case TypeArmor:
		return "armor"
	case TypeConsumable:
		return "consumable"
	case TypePet:
		return "pet"
	case TypeEgg:
		return "egg"
	default:
		return "misc"
	}
}

// Grade is an item rarity tier.
type Grade int

const (
	GradeCommon Grade = iota + 1
	GradeUncommon
	GradeRare
	GradeEpic
	GradeLegendary
	GradeMythic
)

// String returns the string representation of a Grade
func (g Grade) String() string {
	switch g {
	case GradeCommon:
		return "common"
	case GradeUncommon:
		return "uncommon"
	case GradeRare:
		return "rare"
	case GradeEpic:
		return "epic"
	case GradeLegendary:
		return "legendary"
	case GradeMythic:
		return "mythic"
	default:
		return "unknown"
	}
}

// Template is a static item definition. Instances are generated from
// templates at creation time and carry denormalized display fields.
type Template struct {
	ID         string
	Name       string
	Type       ItemType
	Grade      Grade
	BaseEffect float64 // weapon: attack bonus base, armor: hp bonus base
	Tradable   bool
	SellValue  int
}

// IsEquipment returns true for weapon and armor templates. Only equipment
// carries an enhancement level.
func (t *Template) IsEquipment() bool {
	return t.Type == TypeWeapon || t.Type == TypeArmor
}

// CompanionEffect holds the flat combat bonuses an equipped companion grants.
type CompanionEffect struct {
	CritChance     float64 `yaml:"crit_chance"`
	CritResist     float64 `yaml:"crit_resist"`
	DefensePen     float64 `yaml:"defense_pen"`
	ReviveFraction float64 `yaml:"revive_fraction"` // share of max hp restored on revival, 0 = no revival
	ReviveCooldown int     `yaml:"revive_cooldown"` // seconds between revivals
	SkipChance     float64 `yaml:"skip_chance"`     // added bonus floor skip chance
}

// Artifact is a permanent unlockable bonus occupying a socket.
type Artifact struct {
	ID          string
	Name        string
	Description string
}

// Well-known artifact ids. The aggregator and loot engine key off these.
const (
	ArtifactBossDamage = "boss_damage"  // +50% attack/defense on boss floors
	ArtifactGoldBonus  = "gold_bonus"   // +25% floor clear gold
	ArtifactFloorSkip  = "floor_skip"   // guaranteed skip every N clears
)

// Well-known consumable template ids.
const (
	ItemProtectTicket = "protect_ticket"
	ItemCatalyst      = "catalyst"
	ItemGoldPouch     = "gold_pouch"
	ItemEgg           = "pet_egg"
)
