// Package npc tracks non-player characters, their relationships toward
// other entities and the standing between factions.
package npc

import (
	"strings"
	"time"
)

// RoleVillager is the role given to NPCs discovered from narrative text.
const RoleVillager = "villager"

// MerchantItem is a price-list entry. Merchant stock is descriptive and
// not made of real inventory items.
type MerchantItem struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
	Type  string `json:"type"`
}

// NPC is a non-player character.
type NPC struct {
	Name              string                   `json:"name"`
	Role              string                   `json:"role"`
	Location          string                   `json:"location"`
	Faction           string                   `json:"faction,omitempty"`
	Description       string                   `json:"description,omitempty"`
	Relationships     map[string]*Relationship `json:"relationships"`
	KnownLocations    StringSet                `json:"known_locations"`
	FirstMet          *time.Time               `json:"first_met"`
	LastSeen          *time.Time               `json:"last_seen"`
	Merchant          bool                     `json:"merchant,omitempty"`
	MerchantInventory []MerchantItem           `json:"merchant_inventory,omitempty"`
}

// New creates an NPC that knows its starting location.
func New(name, role, location, faction string) *NPC {
	n := &NPC{
		Name:           strings.TrimSpace(name),
		Role:           role,
		Location:       location,
		Faction:        faction,
		Relationships:  map[string]*Relationship{},
		KnownLocations: StringSet{},
	}
	if location != "" {
		n.KnownLocations.Add(location)
	}
	return n
}

// WithWares marks the NPC as a merchant selling items.
func (n *NPC) WithWares(items ...MerchantItem) *NPC {
	n.Merchant = true
	n.MerchantInventory = append(n.MerchantInventory, items...)
	return n
}

// Relationship returns the ledger toward entityID, creating a zero-valued
// one on first access. A returned relationship does not imply any prior
// interaction.
func (n *NPC) Relationship(entityID string) *Relationship {
	if n.Relationships == nil {
		n.Relationships = map[string]*Relationship{}
	}
	r, ok := n.Relationships[entityID]
	if !ok {
		r = newRelationship()
		n.Relationships[entityID] = r
	}
	return r
}

// Interact records an interaction with entityID.
func (n *NPC) Interact(entityID string, delta int, fact string, at time.Time) *Relationship {
	r := n.Relationship(entityID)
	r.Record(delta, fact, at)
	if n.FirstMet == nil {
		n.FirstMet = &at
	}
	n.LastSeen = &at
	return r
}

// Disposition toward entityID. Unknown entities are neutral; no
// relationship is created.
func (n *NPC) Disposition(entityID string) Disposition {
	if r, ok := n.Relationships[entityID]; ok {
		return r.Disposition()
	}
	return DispositionFor(0)
}

// HasMet reports whether entityID has interacted with this NPC.
func (n *NPC) HasMet(entityID string) bool {
	r, ok := n.Relationships[entityID]
	return ok && r.InteractionCount > 0
}

// SeenAt moves the NPC and remembers the location.
func (n *NPC) SeenAt(location string, at time.Time) {
	n.Location = location
	if n.KnownLocations == nil {
		n.KnownLocations = StringSet{}
	}
	n.KnownLocations.Add(location)
	n.LastSeen = &at
}

// IsAt compares the NPC's location case-insensitively.
func (n *NPC) IsAt(location string) bool {
	return strings.EqualFold(n.Location, location)
}

func (n *NPC) normalize() {
	if n.Relationships == nil {
		n.Relationships = map[string]*Relationship{}
	}
	for id, r := range n.Relationships {
		if r == nil {
			n.Relationships[id] = newRelationship()
			continue
		}
		r.normalize()
	}
	if n.KnownLocations == nil {
		n.KnownLocations = StringSet{}
	}
}
