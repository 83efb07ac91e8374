// Package rules loads the game's tunable numbers from named rule documents.
// Missing or bad values always fall back to built-in defaults, so a Rules
// value is usable no matter what was on disk.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Document names, without extension.
const (
	DocRules          = "rules"
	DocSquadTactics   = "squad_tactics"
	DocMakingMercs    = "making_mercs"
	DocBuildingWorlds = "building_worlds"
)

// Documents lists every rule document in load order.
var Documents = []string{DocRules, DocSquadTactics, DocMakingMercs, DocBuildingWorlds}

var extensions = []string{".yaml", ".yml", ".json"}

type GameMechanics struct {
	LevelUpBonus int `json:"level_up_bonus" yaml:"level_up_bonus"`
	XPPerLevel   int `json:"xp_per_level" yaml:"xp_per_level"`
}

type Combat struct {
	HitBonus    int `json:"hit_bonus" yaml:"hit_bonus"`
	DamageBonus int `json:"damage_bonus" yaml:"damage_bonus"`
	Difficulty  int `json:"difficulty" yaml:"difficulty"`
	// EnemyArmorClass rolls against the enemy's armor class instead of
	// Difficulty.
	EnemyArmorClass bool `json:"enemy_armor_class" yaml:"enemy_armor_class"`
}

type CharacterCreation struct {
	BaseAttributes  int `json:"base_attributes" yaml:"base_attributes"`
	AttributePoints int `json:"attribute_points" yaml:"attribute_points"`
}

type WorldGeneration struct {
	MaxLocations int     `json:"max_locations" yaml:"max_locations"`
	NPCDensity   float64 `json:"npc_density" yaml:"npc_density"`
}

// Rules is read-only after Load. Pass it by value.
type Rules struct {
	GameMechanics     GameMechanics     `json:"game_mechanics"`
	Combat            Combat            `json:"combat"`
	CharacterCreation CharacterCreation `json:"character_creation"`
	WorldGeneration   WorldGeneration   `json:"world_generation"`
}

// Defaults returns the built-in rules.
func Defaults() Rules {
	return Rules{
		GameMechanics:     GameMechanics{LevelUpBonus: 5, XPPerLevel: 1000},
		Combat:            Combat{HitBonus: 2, DamageBonus: 1, Difficulty: 10},
		CharacterCreation: CharacterCreation{BaseAttributes: 10, AttributePoints: 5},
		WorldGeneration:   WorldGeneration{MaxLocations: 10, NPCDensity: 0.5},
	}
}

// On-disk document shapes. Pointers tell "absent" apart from zero.
type (
	rulesDoc struct {
		GameMechanics *struct {
			LevelUpBonus *int `yaml:"level_up_bonus"`
			XPPerLevel   *int `yaml:"xp_per_level"`
		} `yaml:"game_mechanics"`
	}
	squadTacticsDoc struct {
		Combat *struct {
			HitBonus        *int  `yaml:"hit_bonus"`
			DamageBonus     *int  `yaml:"damage_bonus"`
			Difficulty      *int  `yaml:"difficulty"`
			EnemyArmorClass *bool `yaml:"enemy_armor_class"`
		} `yaml:"combat"`
	}
	makingMercsDoc struct {
		CharacterCreation *struct {
			BaseAttributes  *int `yaml:"base_attributes"`
			AttributePoints *int `yaml:"attribute_points"`
		} `yaml:"character_creation"`
	}
	buildingWorldsDoc struct {
		WorldGeneration *struct {
			MaxLocations *int     `yaml:"max_locations"`
			NPCDensity   *float64 `yaml:"npc_density"`
		} `yaml:"world_generation"`
	}
)

// Load reads the rule documents from dir. It never fails: a missing or
// malformed document, or an invalid field, keeps the default and is
// logged at warn level. An empty dir yields Defaults.
func Load(dir string, logger *slog.Logger) Rules {
	if logger == nil {
		logger = slog.Default()
	}
	r := Defaults()
	if dir == "" {
		return r
	}
	for _, doc := range Documents {
		problems, err := r.apply(dir, doc)
		if err != nil {
			logger.Warn("Using default rules", "document", doc, "error", err)
			continue
		}
		for _, p := range problems {
			logger.Warn("Invalid rule value, using default", "document", doc, "problem", p)
		}
	}
	return r
}

// Validate checks the rule documents in dir and reports every problem.
// Missing documents are not an error.
func Validate(dir string) error {
	r := Defaults()
	var errs []error
	for _, doc := range Documents {
		problems, err := r.apply(dir, doc)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", doc, err))
			continue
		}
		for _, p := range problems {
			errs = append(errs, fmt.Errorf("%s: %s", doc, p))
		}
	}
	return errors.Join(errs...)
}

// apply overlays one document onto r and returns the fields it rejected.
func (r *Rules) apply(dir, doc string) ([]string, error) {
	data, path, err := readDocument(dir, doc)
	if err != nil {
		return nil, err
	}

	var problems []string
	positive := func(field string, v *int, dst *int) {
		if v == nil {
			return
		}
		if *v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %d", field, *v))
			return
		}
		*dst = *v
	}
	nonNegative := func(field string, v *int, dst *int) {
		if v == nil {
			return
		}
		if *v < 0 {
			problems = append(problems, fmt.Sprintf("%s must not be negative, got %d", field, *v))
			return
		}
		*dst = *v
	}

	switch doc {
	case DocRules:
		var d rulesDoc
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if s := d.GameMechanics; s != nil {
			nonNegative("level_up_bonus", s.LevelUpBonus, &r.GameMechanics.LevelUpBonus)
			positive("xp_per_level", s.XPPerLevel, &r.GameMechanics.XPPerLevel)
		}
	case DocSquadTactics:
		var d squadTacticsDoc
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if s := d.Combat; s != nil {
			nonNegative("hit_bonus", s.HitBonus, &r.Combat.HitBonus)
			nonNegative("damage_bonus", s.DamageBonus, &r.Combat.DamageBonus)
			positive("difficulty", s.Difficulty, &r.Combat.Difficulty)
			if s.EnemyArmorClass != nil {
				r.Combat.EnemyArmorClass = *s.EnemyArmorClass
			}
		}
	case DocMakingMercs:
		var d makingMercsDoc
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if s := d.CharacterCreation; s != nil {
			positive("base_attributes", s.BaseAttributes, &r.CharacterCreation.BaseAttributes)
			nonNegative("attribute_points", s.AttributePoints, &r.CharacterCreation.AttributePoints)
		}
	case DocBuildingWorlds:
		var d buildingWorldsDoc
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if s := d.WorldGeneration; s != nil {
			positive("max_locations", s.MaxLocations, &r.WorldGeneration.MaxLocations)
			if v := s.NPCDensity; v != nil {
				if *v < 0 || *v > 1 {
					problems = append(problems, fmt.Sprintf("npc_density must be within [0,1], got %g", *v))
				} else {
					r.WorldGeneration.NPCDensity = *v
				}
			}
		}
	default:
		return nil, fmt.Errorf("unknown rule document %q", doc)
	}
	return problems, nil
}

func readDocument(dir, doc string) ([]byte, string, error) {
	for _, ext := range extensions {
		path := filepath.Join(dir, doc+ext)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, path, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("document %s: %w", doc, os.ErrNotExist)
}
