package catalog

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults failed: %v", err)
	}

	// The simulation depends on these well-known ids existing.
	for _, id := range []string{ItemProtectTicket, ItemCatalyst, ItemGoldPouch, ItemEgg} {
		if _, ok := cat.Get(id); !ok {
			t.Errorf("defaults missing template %s", id)
		}
	}
	for _, id := range []string{ArtifactBossDamage, ArtifactGoldBonus, ArtifactFloorSkip} {
		if _, ok := cat.Artifact(id); !ok {
			t.Errorf("defaults missing artifact %s", id)
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("a missing file must fall back to defaults: %v", err)
	}
	if _, ok := cat.Get(ItemEgg); !ok {
		t.Error("defaults missing after fallback")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	yaml := `
items:
  rusty_sword:
    name: Rustier Sword
    type: weapon
    grade: common
    base_effect: 5
    tradable: true
  void_lance:
    name: Void Lance
    type: weapon
    grade: mythic
    base_effect: 999
    tradable: true
research:
  attack_training: 0.5
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// Overridden entry replaces the default.
	sword, ok := cat.Get("rusty_sword")
	if !ok || sword.Name != "Rustier Sword" || sword.BaseEffect != 5 {
		t.Errorf("override lost: %+v", sword)
	}
	// New entry appears.
	if _, ok := cat.Get("void_lance"); !ok {
		t.Error("new template lost")
	}
	// Untouched defaults survive.
	if _, ok := cat.Get("iron_sword"); !ok {
		t.Error("unmentioned default lost")
	}
	if got := cat.Research("attack_training"); got != 0.5 {
		t.Errorf("research override lost, got %v", got)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("items: [not a map"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML must fail loudly, not fall back")
	}
}

func TestLoadRejectsUnknownTypeAndGrade(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad type", "items:\n  thing:\n    name: Thing\n    type: vehicle\n"},
		{"bad grade", "items:\n  thing:\n    name: Thing\n    type: weapon\n    grade: cursed\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestGradePoolsHoldOnlyEquipmentAndPets(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	for g := GradeCommon; g <= GradeMythic; g++ {
		for _, id := range cat.GradePool(g) {
			tmpl, ok := cat.Get(id)
			if !ok {
				t.Fatalf("pool references unknown id %s", id)
			}
			if tmpl.Type != TypeWeapon && tmpl.Type != TypeArmor && tmpl.Type != TypePet {
				t.Errorf("%s (%v) does not belong in a grade pool", id, tmpl.Type)
			}
			if tmpl.Grade != g {
				t.Errorf("%s filed under grade %v but is %v", id, g, tmpl.Grade)
			}
		}
	}
}

func TestRandomOfGrade(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		tmpl := cat.RandomOfGrade(GradeCommon, rng)
		if tmpl == nil {
			t.Fatal("common pool must not be empty")
		}
		if tmpl.Grade != GradeCommon {
			t.Fatalf("picked %s of grade %v from the common pool", tmpl.ID, tmpl.Grade)
		}
	}

	if got := cat.RandomOfGrade(Grade(99), rng); got != nil {
		t.Error("an empty pool yields nil")
	}
}
