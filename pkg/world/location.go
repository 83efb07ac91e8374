// Package world holds the location graph players move through, the enemy
// table and the game clock.
package world

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/actor"
	"github.com/jwebster45206/text-rpg/pkg/gameerr"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDestination = gameerr.New(gameerr.KindValidation, "you can't go there from here")
	ErrUnknownLocation    = gameerr.New(gameerr.KindNotFound, "no such location")
	ErrInvalidWorld       = gameerr.New(gameerr.KindValidation, "invalid world definition")
)

// Location is a place in the world. NPCs is advisory; the NPC registry
// decides who is actually present.
type Location struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Exits       []string `json:"exits" yaml:"exits"`
	NPCs        []string `json:"npcs,omitempty" yaml:"npcs,omitempty"`
	Enemies     []string `json:"enemies,omitempty" yaml:"enemies,omitempty"`
}

func (l Location) clone() Location {
	l.Exits = slices.Clone(l.Exits)
	l.NPCs = slices.Clone(l.NPCs)
	l.Enemies = slices.Clone(l.Enemies)
	return l
}

// Definition is the on-disk shape of a world file.
type Definition struct {
	Start     string                         `json:"start,omitempty" yaml:"start,omitempty"`
	Locations []Location                     `json:"locations" yaml:"locations"`
	Enemies   map[string]actor.EnemyTemplate `json:"enemies,omitempty" yaml:"enemies,omitempty"`
}

// Graph is a validated set of locations. Exits always name real locations.
type Graph struct {
	start   string
	order   []string
	byKey   map[string]*Location
	enemies map[string]actor.EnemyTemplate
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewGraph validates def and builds a graph from it. Every problem found is
// reported, not just the first.
func NewGraph(def Definition) (*Graph, error) {
	g := &Graph{
		byKey:   make(map[string]*Location, len(def.Locations)),
		enemies: make(map[string]actor.EnemyTemplate, len(def.Enemies)),
	}
	var problems []error

	for name, t := range def.Enemies {
		if t.Name == "" {
			t.Name = name
		}
		if _, err := actor.NewCombatant(t); err != nil {
			problems = append(problems, err)
			continue
		}
		g.enemies[key(name)] = t
	}

	for i, loc := range def.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			problems = append(problems, fmt.Errorf("location #%d has no name", i+1))
			continue
		}
		k := key(loc.Name)
		if _, dup := g.byKey[k]; dup {
			problems = append(problems, fmt.Errorf("duplicate location %q", loc.Name))
			continue
		}
		l := loc.clone()
		g.byKey[k] = &l
		g.order = append(g.order, l.Name)
	}

	for _, name := range g.order {
		loc := g.byKey[key(name)]
		for _, exit := range loc.Exits {
			if _, ok := g.byKey[key(exit)]; !ok {
				problems = append(problems, fmt.Errorf("%s: exit %q leads to an unknown location", loc.Name, exit))
			}
		}
		for _, enemy := range loc.Enemies {
			if _, ok := g.enemies[key(enemy)]; !ok {
				problems = append(problems, fmt.Errorf("%s: enemy %q has no template", loc.Name, enemy))
			}
		}
	}

	start := def.Start
	if start == "" {
		start = actor.StartingLocation
	}
	if l, ok := g.byKey[key(start)]; ok {
		g.start = l.Name
	} else if len(g.order) > 0 {
		problems = append(problems, fmt.Errorf("start location %q does not exist", start))
	}
	if len(g.order) == 0 {
		problems = append(problems, errors.New("no locations defined"))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorld, errors.Join(problems...))
	}
	return g, nil
}

// ParseGraph decodes a YAML or JSON world definition.
func ParseGraph(data []byte) (*Graph, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorld, err)
	}
	return NewGraph(def)
}

// LoadGraph reads a world file from disk.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	g, err := ParseGraph(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load world file %s: %w", path, err)
	}
	return g, nil
}

// Clone returns an independent copy, so each session can self-heal its own
// NPC lists.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		start:   g.start,
		order:   slices.Clone(g.order),
		byKey:   make(map[string]*Location, len(g.byKey)),
		enemies: make(map[string]actor.EnemyTemplate, len(g.enemies)),
	}
	for k, l := range g.byKey {
		cl := l.clone()
		c.byKey[k] = &cl
	}
	for k, t := range g.enemies {
		t.Attributes = maps.Clone(t.Attributes)
		c.enemies[k] = t
	}
	return c
}

// Start is the location new characters begin in.
func (g *Graph) Start() string {
	return g.start
}

// Get looks a location up by name, ignoring case. The result is a copy.
func (g *Graph) Get(name string) (Location, bool) {
	l, ok := g.byKey[key(name)]
	if !ok {
		return Location{}, false
	}
	return l.clone(), true
}

// Has reports whether name is a location.
func (g *Graph) Has(name string) bool {
	_, ok := g.byKey[key(name)]
	return ok
}

// Names lists locations in definition order.
func (g *Graph) Names() []string {
	return slices.Clone(g.order)
}

// ResolveExit matches dest against the exits of from, ignoring case, and
// returns the canonical destination name.
func (g *Graph) ResolveExit(from, dest string) (string, error) {
	l, ok := g.byKey[key(from)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLocation, from)
	}
	want := key(dest)
	if want == "" {
		return "", ErrInvalidDestination
	}
	for _, exit := range l.Exits {
		if key(exit) == want {
			return g.byKey[want].Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidDestination, dest)
}

// AddNPC appends name to the location's NPC list if it is missing.
// It reports whether the list changed.
func (g *Graph) AddNPC(location, name string) bool {
	l, ok := g.byKey[key(location)]
	if !ok || strings.TrimSpace(name) == "" {
		return false
	}
	if slices.ContainsFunc(l.NPCs, func(n string) bool { return strings.EqualFold(n, name) }) {
		return false
	}
	l.NPCs = append(l.NPCs, name)
	return true
}

// Enemy returns the template for an enemy name, ignoring case.
func (g *Graph) Enemy(name string) (actor.EnemyTemplate, bool) {
	t, ok := g.enemies[key(name)]
	if ok {
		t.Attributes = maps.Clone(t.Attributes)
	}
	return t, ok
}

// EnemyAt resolves name against the enemies listed at location.
func (g *Graph) EnemyAt(location, name string) (actor.EnemyTemplate, bool) {
	l, ok := g.byKey[key(location)]
	if !ok {
		return actor.EnemyTemplate{}, false
	}
	for _, e := range l.Enemies {
		if key(e) == key(name) {
			return g.Enemy(e)
		}
	}
	return actor.EnemyTemplate{}, false
}
