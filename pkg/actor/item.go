package actor

import (
	"fmt"
	"maps"
	"strings"
)

// ItemType determines which equipment slot, if any, an item fits.
type ItemType string

const (
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemAccessory  ItemType = "accessory"
	ItemConsumable ItemType = "consumable"
	ItemTool       ItemType = "tool"
)

// Item is a single inventory entry. An *Item lives in exactly one
// container at a time: an inventory slice or an equipment slot.
type Item struct {
	Name      string             `json:"name"`
	Type      ItemType           `json:"type"`
	Stats     map[string]float64 `json:"stats,omitempty"`
	Stackable bool               `json:"stackable,omitempty"`
	MaxStack  int                `json:"max_stack,omitempty"`
	Quantity  int                `json:"quantity,omitempty"`
}

// NewItem creates a non-stackable item.
func NewItem(name string, t ItemType, stats map[string]float64) *Item {
	return &Item{
		Name:  name,
		Type:  t,
		Stats: maps.Clone(stats),
	}
}

// NewStackableItem creates a stack of one.
func NewStackableItem(name string, t ItemType, stats map[string]float64, maxStack int) *Item {
	if maxStack < 1 {
		maxStack = 1
	}
	return &Item{
		Name:      name,
		Type:      t,
		Stats:     maps.Clone(stats),
		Stackable: true,
		MaxStack:  maxStack,
		Quantity:  1,
	}
}

// Equal reports structural equality: same name, type and stats.
func (i *Item) Equal(o *Item) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.Name != o.Name || i.Type != o.Type || len(i.Stats) != len(o.Stats) {
		return false
	}
	for k, v := range i.Stats {
		if ov, ok := o.Stats[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// CanStackWith reports whether o may be merged into i.
func (i *Item) CanStackWith(o *Item) bool {
	return i.Stackable && o.Stackable && i.Equal(o)
}

// Stat returns a stat value, or 0 when absent.
func (i *Item) Stat(name string) float64 {
	if i == nil {
		return 0
	}
	return i.Stats[name]
}

// Bonus is the integer "bonus" stat.
func (i *Item) Bonus() int {
	return int(i.Stat("bonus"))
}

// Weight is the weight of the whole stack.
func (i *Item) Weight() float64 {
	if i == nil {
		return 0
	}
	return i.Stat("weight") * float64(i.count())
}

func (i *Item) count() int {
	if i.Stackable && i.Quantity > 0 {
		return i.Quantity
	}
	return 1
}

func (i *Item) String() string {
	if i.Stackable {
		return fmt.Sprintf("%s x%d (%s)", i.Name, i.count(), i.Type)
	}
	return fmt.Sprintf("%s (%s)", i.Name, i.Type)
}

// Describe renders the detailed view used by "examine".
func (i *Item) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Examining %s:\n", i.Name)
	fmt.Fprintf(&b, "Type: %s\n", i.Type)
	fmt.Fprintf(&b, "Weight: %g\n", i.Stat("weight"))
	for _, k := range sortedKeys(i.Stats) {
		if k == "weight" {
			continue
		}
		fmt.Fprintf(&b, "%s: %g\n", titleCase(k), i.Stats[k])
	}
	if i.Stackable {
		fmt.Fprintf(&b, "Quantity: %d/%d\n", i.count(), i.MaxStack)
	}
	return strings.TrimRight(b.String(), "\n")
}
