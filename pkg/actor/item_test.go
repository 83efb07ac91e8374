package actor

import (
	"strings"
	"testing"
)

func TestItem_Equal(t *testing.T) {
	base := NewItem("Iron Sword", ItemWeapon, map[string]float64{"bonus": 5, "weight": 2})

	tests := []struct {
		name  string
		other *Item
		want  bool
	}{
		{"identical", NewItem("Iron Sword", ItemWeapon, map[string]float64{"bonus": 5, "weight": 2}), true},
		{"different name", NewItem("Steel Sword", ItemWeapon, map[string]float64{"bonus": 5, "weight": 2}), false},
		{"different type", NewItem("Iron Sword", ItemTool, map[string]float64{"bonus": 5, "weight": 2}), false},
		{"different stat", NewItem("Iron Sword", ItemWeapon, map[string]float64{"bonus": 6, "weight": 2}), false},
		{"missing stat", NewItem("Iron Sword", ItemWeapon, map[string]float64{"bonus": 5}), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItem_CanStackWith(t *testing.T) {
	stats := map[string]float64{"healing": 10}
	a := NewStackableItem("Potion", ItemConsumable, stats, 5)
	b := NewStackableItem("Potion", ItemConsumable, stats, 5)
	c := NewItem("Potion", ItemConsumable, stats)

	if !a.CanStackWith(b) {
		t.Error("identical stackable items should stack")
	}
	if a.CanStackWith(c) || c.CanStackWith(a) {
		t.Error("a non-stackable item never stacks")
	}
	if a.Quantity != 1 || c.Quantity != 0 {
		t.Errorf("quantities = %d/%d, want 1/0", a.Quantity, c.Quantity)
	}
}

func TestItem_String(t *testing.T) {
	sword := NewItem("Iron Sword", ItemWeapon, nil)
	if got := sword.String(); got != "Iron Sword (weapon)" {
		t.Errorf("String() = %q", got)
	}
	potion := NewStackableItem("Potion", ItemConsumable, nil, 5)
	potion.Quantity = 3
	if got := potion.String(); got != "Potion x3 (consumable)" {
		t.Errorf("String() = %q", got)
	}
}

func TestItem_StatsAreCopied(t *testing.T) {
	stats := map[string]float64{"bonus": 1}
	it := NewItem("Ring", ItemAccessory, stats)
	stats["bonus"] = 99
	if it.Bonus() != 1 {
		t.Errorf("Bonus() = %d, item stats must not alias the caller's map", it.Bonus())
	}
}

func TestItem_Describe(t *testing.T) {
	it := NewItem("Iron Sword", ItemWeapon, map[string]float64{"bonus": 5, "weight": 2})
	got := it.Describe()
	for _, want := range []string{"Examining Iron Sword:", "Type: weapon", "Weight: 2", "Bonus: 5"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() missing %q in:\n%s", want, got)
		}
	}
}
