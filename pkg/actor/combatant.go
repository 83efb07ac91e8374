package actor

import (
	"fmt"
	"maps"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/text-rpg/pkg/gameerr"
)

var ErrInvalidCombatant = gameerr.New(gameerr.KindValidation, "invalid enemy definition")

// EnemyTemplate is the static definition an enemy is spawned from.
type EnemyTemplate struct {
	Name       string         `json:"name" yaml:"name"`
	Level      int            `json:"level" yaml:"level"`
	HitPoints  int            `json:"hit_points" yaml:"hit_points"`
	AC         int            `json:"ac,omitempty" yaml:"ac,omitempty"`
	Attributes map[string]int `json:"attributes" yaml:"attributes"`
}

// Combatant is the single shape for anything the player fights, whether
// spawned from a template or built ad hoc.
type Combatant struct {
	Name         string         `json:"name"`
	Level        int            `json:"level"`
	HitPoints    int            `json:"hit_points"`
	MaxHitPoints int            `json:"max_hit_points"`
	AC           int            `json:"ac"`
	Attributes   map[string]int `json:"attributes,omitempty"`
}

// NewCombatant builds a combatant from a template. The stat block is
// resolved through a d20 actor once, at spawn time.
func NewCombatant(t EnemyTemplate) (*Combatant, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidCombatant)
	}
	if t.HitPoints <= 0 {
		return nil, fmt.Errorf("%w: %s has no hit points", ErrInvalidCombatant, t.Name)
	}
	level := t.Level
	if level < 1 {
		level = 1
	}
	attrs := maps.Clone(t.Attributes)
	if attrs == nil {
		attrs = map[string]int{}
	}
	for _, n := range []string{"strength", "dexterity", "constitution"} {
		if _, ok := attrs[n]; !ok {
			attrs[n] = DefaultAttribute
		}
	}
	ac := t.AC
	if ac == 0 {
		ac = 10 + Modifier(attrs["dexterity"])
	}

	a, err := d20.NewActor(t.Name).
		WithHP(t.HitPoints).
		WithAC(ac).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCombatant, t.Name, err)
	}

	c := &Combatant{
		Name:         t.Name,
		Level:        level,
		HitPoints:    a.HP(),
		MaxHitPoints: a.MaxHP(),
		AC:           a.AC(),
		Attributes:   make(map[string]int, len(attrs)),
	}
	for k := range attrs {
		if v, ok := a.Attribute(k); ok {
			c.Attributes[k] = v
		}
	}
	return c, nil
}

// Strength is the attribute used for attack and damage rolls.
func (c *Combatant) Strength() int {
	return c.Attributes["strength"]
}

// TakeDamage reduces hit points. Hit points may go negative on an
// overkill; IsDefeated covers both cases.
func (c *Combatant) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	c.HitPoints -= n
}

// IsDefeated returns true once hit points reach 0 or less.
func (c *Combatant) IsDefeated() bool {
	return c.HitPoints <= 0
}

func (c *Combatant) String() string {
	return fmt.Sprintf("%s (level %d, HP %d/%d)", c.Name, c.Level, max(c.HitPoints, 0), c.MaxHitPoints)
}
