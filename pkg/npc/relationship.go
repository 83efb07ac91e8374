package npc

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

const (
	MinAffinity = -100
	MaxAffinity = 100
)

// Disposition is derived from affinity and never stored.
type Disposition string

const (
	Hostile    Disposition = "hostile"
	Unfriendly Disposition = "unfriendly"
	Neutral    Disposition = "neutral"
	Friendly   Disposition = "friendly"
	Ally       Disposition = "ally"
)

// DispositionFor maps an affinity score to its bucket. Each threshold
// belongs to the bucket it closes: -70 is hostile, 70 is friendly.
func DispositionFor(affinity int) Disposition {
	switch {
	case affinity <= -70:
		return Hostile
	case affinity <= -30:
		return Unfriendly
	case affinity <= 30:
		return Neutral
	case affinity <= 70:
		return Friendly
	default:
		return Ally
	}
}

// ClampAffinity bounds v to [MinAffinity, MaxAffinity].
func ClampAffinity(v int) int {
	return min(max(v, MinAffinity), MaxAffinity)
}

// StringSet is an unordered set of strings, serialized as a sorted list.
type StringSet map[string]struct{}

func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	list := s.Sorted()
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	set := make(StringSet, len(list))
	for _, v := range list {
		set.Add(v)
	}
	*s = set
	return nil
}

// Relationship is one NPC's ledger toward another entity.
type Relationship struct {
	Affinity         int        `json:"affinity"`
	InteractionCount int        `json:"interaction_count"`
	LastInteraction  *time.Time `json:"last_interaction"`
	KnownFacts       StringSet  `json:"known_facts"`
}

func newRelationship() *Relationship {
	return &Relationship{KnownFacts: StringSet{}}
}

// Record applies a clamped affinity delta, adds fact when non-empty and
// counts the interaction.
func (r *Relationship) Record(delta int, fact string, at time.Time) {
	r.Affinity = ClampAffinity(r.Affinity + delta)
	if fact != "" {
		if r.KnownFacts == nil {
			r.KnownFacts = StringSet{}
		}
		r.KnownFacts.Add(fact)
	}
	r.InteractionCount++
	r.LastInteraction = &at
}

// Disposition derives the bucket from the current affinity.
func (r *Relationship) Disposition() Disposition {
	return DispositionFor(r.Affinity)
}

func (r *Relationship) normalize() {
	r.Affinity = ClampAffinity(r.Affinity)
	r.InteractionCount = max(r.InteractionCount, 0)
	if r.KnownFacts == nil {
		r.KnownFacts = StringSet{}
	}
}
