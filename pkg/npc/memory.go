package npc

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/gameerr"
)

// SameFactionScore is the fixed standing of a faction with itself.
const SameFactionScore = 100

var (
	ErrNPCNotFound  = gameerr.New(gameerr.KindNotFound, "no such NPC")
	ErrDuplicateNPC = gameerr.New(gameerr.KindValidation, "an NPC with that name already exists")
	ErrInvalidNPC   = gameerr.New(gameerr.KindValidation, "NPC name cannot be empty")
)

// Memory owns every NPC in a session plus the faction standings table.
// It is not safe for concurrent use; the owning session serializes access.
type Memory struct {
	npcs     map[string]*NPC
	factions map[string]map[string]int
	now      func() time.Time
}

// Option configures a Memory.
type Option func(*Memory)

// WithClock sets the timestamp source for interactions.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory returns an empty registry.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		npcs:     map[string]*NPC{},
		factions: map[string]map[string]int{},
		now:      func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add registers an NPC. Names are unique ignoring case.
func (m *Memory) Add(n *NPC) error {
	if n == nil || strings.TrimSpace(n.Name) == "" {
		return ErrInvalidNPC
	}
	k := key(n.Name)
	if _, exists := m.npcs[k]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNPC, n.Name)
	}
	n.normalize()
	m.npcs[k] = n
	return nil
}

// Get looks an NPC up by name, ignoring case.
func (m *Memory) Get(name string) (*NPC, bool) {
	n, ok := m.npcs[key(name)]
	return n, ok
}

func (m *Memory) mustGet(name string) (*NPC, error) {
	n, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNPCNotFound, name)
	}
	return n, nil
}

// Len is the number of registered NPCs.
func (m *Memory) Len() int {
	return len(m.npcs)
}

// All returns every NPC sorted by name.
func (m *Memory) All() []*NPC {
	out := slices.Collect(maps.Values(m.npcs))
	slices.SortFunc(out, func(a, b *NPC) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// AtLocation returns the NPCs whose current location is loc.
func (m *Memory) AtLocation(loc string) []*NPC {
	var out []*NPC
	for _, n := range m.All() {
		if n.IsAt(loc) {
			out = append(out, n)
		}
	}
	return out
}

// GetRelationship returns npcName's ledger toward entityID, creating it on
// first access. Creation does not count as an interaction.
func (m *Memory) GetRelationship(npcName, entityID string) (*Relationship, error) {
	n, err := m.mustGet(npcName)
	if err != nil {
		return nil, err
	}
	return n.Relationship(entityID), nil
}

// UpdateRelationship applies a clamped affinity delta and an optional fact,
// and counts the interaction.
func (m *Memory) UpdateRelationship(npcName, entityID string, delta int, fact string) (*Relationship, error) {
	n, err := m.mustGet(npcName)
	if err != nil {
		return nil, err
	}
	return n.Interact(entityID, delta, fact, m.now()), nil
}

// Disposition derives npcName's disposition toward entityID.
func (m *Memory) Disposition(npcName, entityID string) (Disposition, error) {
	n, err := m.mustGet(npcName)
	if err != nil {
		return "", err
	}
	return n.Disposition(entityID), nil
}

// MoveNPC relocates an NPC and records the sighting.
func (m *Memory) MoveNPC(npcName, location string) error {
	n, err := m.mustGet(npcName)
	if err != nil {
		return err
	}
	n.SeenAt(location, m.now())
	return nil
}

// FactionScore returns the standing between two factions. A faction always
// scores SameFactionScore with itself; unknown pairs score 0.
func (m *Memory) FactionScore(a, b string) int {
	if a == b {
		return SameFactionScore
	}
	return m.factions[a][b]
}

// UpdateFactionRelationship adds delta to both A→B and B→A, clamping each.
// Updating a faction against itself is a no-op.
func (m *Memory) UpdateFactionRelationship(a, b string, delta int) {
	if a == b || a == "" || b == "" {
		return
	}
	m.setFaction(a, b, ClampAffinity(m.factions[a][b]+delta))
	m.setFaction(b, a, ClampAffinity(m.factions[b][a]+delta))
}

func (m *Memory) setFaction(a, b string, v int) {
	row, ok := m.factions[a]
	if !ok {
		row = map[string]int{}
		m.factions[a] = row
	}
	row[b] = v
}

// Factions lists every faction seen in the standings table or on an NPC.
func (m *Memory) Factions() []string {
	set := StringSet{}
	for a, row := range m.factions {
		set.Add(a)
		for b := range row {
			set.Add(b)
		}
	}
	for _, n := range m.npcs {
		if n.Faction != "" {
			set.Add(n.Faction)
		}
	}
	return set.Sorted()
}

type memoryJSON struct {
	NPCs     npcList                   `json:"npcs"`
	Factions map[string]map[string]int `json:"factions"`
}

// npcList accepts either a name-keyed object or a bare array of NPCs.
type npcList []*NPC

func (l *npcList) UnmarshalJSON(data []byte) error {
	var asMap map[string]*NPC
	if err := json.Unmarshal(data, &asMap); err == nil {
		out := make(npcList, 0, len(asMap))
		for k, n := range asMap {
			if n == nil {
				continue
			}
			if n.Name == "" {
				n.Name = k
			}
			out = append(out, n)
		}
		*l = out
		return nil
	}
	var asArray []*NPC
	if err := json.Unmarshal(data, &asArray); err != nil {
		return fmt.Errorf("npcs: not a map or array: %w", err)
	}
	*l = slices.DeleteFunc(asArray, func(n *NPC) bool { return n == nil })
	return nil
}

// MarshalJSON writes NPCs keyed by lower-cased name.
func (m *Memory) MarshalJSON() ([]byte, error) {
	npcs := make(map[string]*NPC, len(m.npcs))
	maps.Copy(npcs, m.npcs)
	return json.Marshal(struct {
		NPCs     map[string]*NPC           `json:"npcs"`
		Factions map[string]map[string]int `json:"factions"`
	}{npcs, m.factions})
}

// UnmarshalJSON replaces the contents of m. Affinities and faction scores
// outside the allowed range are clamped. When a document disagrees with
// itself about a faction pair, the lexically first direction wins.
func (m *Memory) UnmarshalJSON(data []byte) error {
	var doc memoryJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	fresh := NewMemory()
	if m.now != nil {
		fresh.now = m.now
	}
	for _, n := range doc.NPCs {
		if err := fresh.Add(n); err != nil {
			return fmt.Errorf("failed to load npc %q: %w", n.Name, err)
		}
	}
	for a, row := range doc.Factions {
		for b, v := range row {
			if a == b {
				continue
			}
			if _, ok := doc.Factions[b][a]; ok && b < a {
				continue
			}
			v = ClampAffinity(v)
			fresh.setFaction(a, b, v)
			fresh.setFaction(b, a, v)
		}
	}
	*m = *fresh
	return nil
}
