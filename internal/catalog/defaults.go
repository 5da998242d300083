package catalog

// defaultFile returns the embedded catalog used when no data file is present.
// Every template id referenced by the drop and exploration tables exists here,
// so the server can run from an empty data directory.
func defaultFile() fileFormat {
	return fileFormat{
		Items: map[string]TemplateDefinition{
			// Weapons
			"rusty_sword":    {Name: "Rusty Sword", Type: "weapon", Grade: "common", BaseEffect: 10, Tradable: true, SellValue: 50},
			"iron_sword":     {Name: "Iron Sword", Type: "weapon", Grade: "uncommon", BaseEffect: 25, Tradable: true, SellValue: 200},
			"knight_blade":   {Name: "Knight's Blade", Type: "weapon", Grade: "rare", BaseEffect: 60, Tradable: true, SellValue: 1000},
			"dragon_fang":    {Name: "Dragon Fang", Type: "weapon", Grade: "epic", BaseEffect: 140, Tradable: true, SellValue: 5000},
			"storm_greatsword": {Name: "Storm Greatsword", Type: "weapon", Grade: "legendary", BaseEffect: 320, Tradable: true, SellValue: 25000},
			"worldrender":    {Name: "Worldrender", Type: "weapon", Grade: "mythic", BaseEffect: 700, Tradable: true, SellValue: 120000},

			// Armor
			"cloth_tunic":    {Name: "Cloth Tunic", Type: "armor", Grade: "common", BaseEffect: 20, Tradable: true, SellValue: 50},
			"leather_vest":   {Name: "Leather Vest", Type: "armor", Grade: "uncommon", BaseEffect: 50, Tradable: true, SellValue: 200},
			"chain_hauberk":  {Name: "Chain Hauberk", Type: "armor", Grade: "rare", BaseEffect: 120, Tradable: true, SellValue: 1000},
			"drake_plate":    {Name: "Drake Plate", Type: "armor", Grade: "epic", BaseEffect: 280, Tradable: true, SellValue: 5000},
			"aegis_of_dawn":  {Name: "Aegis of Dawn", Type: "armor", Grade: "legendary", BaseEffect: 640, Tradable: true, SellValue: 25000},
			"spireheart_mail": {Name: "Spireheart Mail", Type: "armor", Grade: "mythic", BaseEffect: 1400, Tradable: true, SellValue: 120000},

			// Consumables
			ItemProtectTicket: {Name: "Protection Ticket", Type: "consumable", Grade: "rare", Tradable: true, SellValue: 500},
			ItemCatalyst:      {Name: "Starfire Catalyst", Type: "consumable", Grade: "rare", Tradable: true, SellValue: 300},
			ItemGoldPouch:     {Name: "Gold Pouch", Type: "consumable", Grade: "uncommon", Tradable: true, SellValue: 0},
			ItemEgg:           {Name: "Mysterious Egg", Type: "egg", Grade: "rare", Tradable: true, SellValue: 100},

			// Pets
			"ember_fox":   {Name: "Ember Fox", Type: "pet", Grade: "uncommon", Tradable: true, SellValue: 300},
			"frost_owl":   {Name: "Frost Owl", Type: "pet", Grade: "rare", Tradable: true, SellValue: 1500},
			"shade_cat":   {Name: "Shade Cat", Type: "pet", Grade: "epic", Tradable: true, SellValue: 8000},
			"sun_phoenix": {Name: "Sun Phoenix", Type: "pet", Grade: "legendary", Tradable: false, SellValue: 0},
		},
		Companions: map[string]CompanionEffect{
			"ember_fox":   {CritChance: 0.03, SkipChance: 0.01},
			"frost_owl":   {CritChance: 0.05, CritResist: 0.03, DefensePen: 0.05},
			"shade_cat":   {CritChance: 0.08, CritResist: 0.05, DefensePen: 0.10, SkipChance: 0.02},
			"sun_phoenix": {CritChance: 0.10, CritResist: 0.08, DefensePen: 0.15, ReviveFraction: 0.5, ReviveCooldown: 600},
		},
		Artifacts: map[string]ArtifactDefinition{
			ArtifactBossDamage: {Name: "Wrath Sigil", Description: "Attack and defense +50% on boss floors."},
			ArtifactGoldBonus:  {Name: "Midas Coin", Description: "Floor clear gold +25%."},
			ArtifactFloorSkip:  {Name: "Hermes Anklet", Description: "Guaranteed bonus floor every 10 clears."},
		},
		Research: map[string]float64{
			"attack_training":  0.0,
			"defense_training": 0.0,
			"vitality":         0.0,
		},
	}
}
