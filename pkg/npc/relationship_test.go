package npc

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestDispositionFor(t *testing.T) {
	tests := []struct {
		affinity int
		want     Disposition
	}{
		{-100, Hostile},
		{-71, Hostile},
		{-70, Hostile},
		{-69, Unfriendly},
		{-30, Unfriendly},
		{-29, Neutral},
		{0, Neutral},
		{30, Neutral},
		{31, Friendly},
		{70, Friendly},
		{71, Ally},
		{100, Ally},
	}

	for _, tt := range tests {
		if got := DispositionFor(tt.affinity); got != tt.want {
			t.Errorf("DispositionFor(%d) = %s, want %s", tt.affinity, got, tt.want)
		}
	}
}

func TestRelationship_RecordStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	r := newRelationship()
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := range 1000 {
		delta := rng.IntN(401) - 200
		r.Record(delta, "", at)
		if r.Affinity < MinAffinity || r.Affinity > MaxAffinity {
			t.Fatalf("step %d: affinity %d out of bounds after delta %d", i, r.Affinity, delta)
		}
	}
	if r.InteractionCount != 1000 {
		t.Errorf("InteractionCount = %d, want 1000", r.InteractionCount)
	}
}

func TestRelationship_FactsAreASet(t *testing.T) {
	r := newRelationship()
	at := time.Now()

	r.Record(0, "saved the mayor", at)
	r.Record(0, "saved the mayor", at)
	r.Record(0, "", at)

	if len(r.KnownFacts) != 1 || !r.KnownFacts.Has("saved the mayor") {
		t.Errorf("KnownFacts = %v, want exactly one fact", r.KnownFacts.Sorted())
	}
	if r.InteractionCount != 3 {
		t.Errorf("InteractionCount = %d, want 3", r.InteractionCount)
	}
	if r.LastInteraction == nil || !r.LastInteraction.Equal(at) {
		t.Errorf("LastInteraction = %v, want %v", r.LastInteraction, at)
	}
}

func TestClampAffinity(t *testing.T) {
	tests := map[int]int{-500: -100, -100: -100, 0: 0, 55: 55, 100: 100, 101: 100}
	for in, want := range tests {
		if got := ClampAffinity(in); got != want {
			t.Errorf("ClampAffinity(%d) = %d, want %d", in, got, want)
		}
	}
}
