package catalog

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TemplateDefinition is an item template as it appears in the YAML file.
type TemplateDefinition struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Grade      string  `yaml:"grade"`
	BaseEffect float64 `yaml:"base_effect,omitempty"`
	Tradable   bool    `yaml:"tradable,omitempty"`
	SellValue  int     `yaml:"sell_value,omitempty"`
}

// ArtifactDefinition is an artifact as it appears in the YAML file.
type ArtifactDefinition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// fileFormat is the structure of the catalog YAML file.
type fileFormat struct {
	Items      map[string]TemplateDefinition `yaml:"items"`
	Companions map[string]CompanionEffect    `yaml:"companions"`
	Artifacts  map[string]ArtifactDefinition `yaml:"artifacts"`
	Research   map[string]float64            `yaml:"research"`
}

// Catalog is the loaded, immutable template registry.
type Catalog struct {
	items      map[string]*Template
	companions map[string]CompanionEffect
	artifacts  map[string]*Artifact
	research   map[string]float64
	gradePools map[Grade][]string // equipment/pet ids per grade, sorted for determinism
}

// Load reads a catalog YAML file and merges it over the embedded defaults.
// A missing file yields the defaults alone.
func Load(path string) (*Catalog, error) {
	ff := defaultFile()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var loaded fileFormat
			if err := yaml.Unmarshal(data, &loaded); err != nil {
				return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
			}
			for id, def := range loaded.Items {
				ff.Items[id] = def
			}
			for id, eff := range loaded.Companions {
				ff.Companions[id] = eff
			}
			for id, def := range loaded.Artifacts {
				ff.Artifacts[id] = def
			}
			for id, v := range loaded.Research {
				ff.Research[id] = v
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
	}

	return build(ff)
}

// build converts the raw file format into the indexed catalog.
func build(ff fileFormat) (*Catalog, error) {
	c := &Catalog{
		items:      make(map[string]*Template, len(ff.Items)),
		companions: make(map[string]CompanionEffect, len(ff.Companions)),
		artifacts:  make(map[string]*Artifact, len(ff.Artifacts)),
		research:   make(map[string]float64, len(ff.Research)),
		gradePools: make(map[Grade][]string),
	}

	for id, def := range ff.Items {
		t, err := def.toTemplate(id)
		if err != nil {
			return nil, err
		}
		c.items[id] = t
		if t.Type == TypeWeapon || t.Type == TypeArmor || t.Type == TypePet {
			c.gradePools[t.Grade] = append(c.gradePools[t.Grade], id)
		}
	}
	for grade := range c.gradePools {
		sort.Strings(c.gradePools[grade])
	}

	for id, eff := range ff.Companions {
		c.companions[id] = eff
	}
	for id, def := range ff.Artifacts {
		c.artifacts[id] = &Artifact{ID: id, Name: def.Name, Description: def.Description}
	}
	for id, v := range ff.Research {
		c.research[id] = v
	}

	return c, nil
}

func (d TemplateDefinition) toTemplate(id string) (*Template, error) {
	itemType, err := parseItemType(d.Type)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", id, err)
	}
	grade, err := parseGrade(d.Grade)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", id, err)
	}
	return &Template{
		ID:         id,
		Name:       d.Name,
		Type:       itemType,
		Grade:      grade,
		BaseEffect: d.BaseEffect,
		Tradable:   d.Tradable,
		SellValue:  d.SellValue,
	}, nil
}

func parseItemType(s string) (ItemType, error) {
	switch s {
	case "weapon":
		return TypeWeapon, nil
	case "armor":
		return TypeArmor, nil
	case "consumable":
		return TypeConsumable, nil
	case "pet":
		return TypePet, nil
	case "egg":
		return TypeEgg, nil
	case "misc", "":
		return TypeMisc, nil
	default:
		return TypeMisc, fmt.Errorf("unknown item type %q", s)
	}
}

func parseGrade(s string) (Grade, error) {
	switch s {
	case "common", "":
		return GradeCommon, nil
	case "uncommon":
		return GradeUncommon, nil
	case "rare":
		return GradeRare, nil
	case "epic":
		return GradeEpic, nil
	case "legendary":
		return GradeLegendary, nil
	case "mythic":
		return GradeMythic, nil
	default:
		return GradeCommon, fmt.Errorf("unknown grade %q", s)
	}
}

// Get returns the template for an id.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.items[id]
	return t, ok
}

// Companion returns the effect table for a pet template id.
func (c *Catalog) Companion(id string) (CompanionEffect, bool) {
	eff, ok := c.companions[id]
	return eff, ok
}

// Artifact returns an artifact definition by id.
func (c *Catalog) Artifact(id string) (*Artifact, bool) {
	a, ok := c.artifacts[id]
	return a, ok
}

// Research returns a research/tech bonus value, 0 when absent.
func (c *Catalog) Research(id string) float64 {
	return c.research[id]
}

// GradePool returns the equipment/pet template ids of a grade.
func (c *Catalog) GradePool(grade Grade) []string {
	return c.gradePools[grade]
}

// RandomOfGrade picks a uniform random template of the given grade.
// Returns nil when the grade pool is empty.
func (c *Catalog) RandomOfGrade(grade Grade, rng *rand.Rand) *Template {
	pool := c.gradePools[grade]
	if len(pool) == 0 {
		return nil
	}
	return c.items[pool[rng.Intn(len(pool))]]
}
