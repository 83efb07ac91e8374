package actor

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/gameerr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Class is a playable character class.
type Class string

const (
	ClassWarrior Class = "Warrior"
	ClassMage    Class = "Mage"
	ClassRogue   Class = "Rogue"
)

// Classes lists the playable classes in display order.
var Classes = []Class{ClassWarrior, ClassMage, ClassRogue}

const (
	StartingLocation = "Starting Town"
	DefaultAttribute = 10
	MaxCarryWeight   = 50.0
	BaseHitPoints    = 10
	SlotWeapon       = "weapon"
	SlotArmor        = "armor"
	SlotAccessory    = "accessory"
	slotAccessories  = "accessories"
)

var (
	ErrInvalidClass    = gameerr.New(gameerr.KindValidation, "invalid character class; choose Warrior, Mage or Rogue")
	ErrInvalidName     = gameerr.New(gameerr.KindValidation, "character name cannot be empty")
	ErrInvalidSlot     = gameerr.New(gameerr.KindValidation, "invalid slot; use weapon, armor or accessory")
	ErrUnknownItemType = gameerr.New(gameerr.KindValidation, "that item cannot be equipped")
	ErrInvalidLevel    = gameerr.New(gameerr.KindValidation, "level must be at least 1")
	ErrUnknownStat     = gameerr.New(gameerr.KindValidation, "unknown attribute")
	ErrTooHeavy        = gameerr.New(gameerr.KindValidation, "that would exceed your carrying capacity")
	ErrItemNotOwned    = gameerr.New(gameerr.KindNotFound, "you don't have that item")
	ErrSlotEmpty       = gameerr.New(gameerr.KindNotFound, "nothing is equipped in that slot")
)

var titleCaser = cases.Title(language.English)

func titleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// ParseClass normalizes a class name case-insensitively.
func ParseClass(s string) (Class, error) {
	c := Class(titleCase(s))
	if slices.Contains(Classes, c) {
		return c, nil
	}
	return "", ErrInvalidClass
}

// Attributes is the fixed set of six character stats.
type Attributes struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// AttributeNames lists attribute keys in display order.
var AttributeNames = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

// UniformAttributes sets every stat to v.
func UniformAttributes(v int) Attributes {
	return Attributes{v, v, v, v, v, v}
}

func (a *Attributes) field(name string) *int {
	switch strings.ToLower(name) {
	case "strength", "str":
		return &a.Strength
	case "dexterity", "dex":
		return &a.Dexterity
	case "constitution", "con":
		return &a.Constitution
	case "intelligence", "int":
		return &a.Intelligence
	case "wisdom", "wis":
		return &a.Wisdom
	case "charisma", "cha":
		return &a.Charisma
	}
	return nil
}

// Get returns a stat by name.
func (a Attributes) Get(name string) (int, bool) {
	p := a.field(name)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Map returns the stats keyed by name.
func (a Attributes) Map() map[string]int {
	m := make(map[string]int, len(AttributeNames))
	for _, n := range AttributeNames {
		m[n], _ = a.Get(n)
	}
	return m
}

// Modifier is the d20-style modifier floor((v-10)/2).
func Modifier(v int) int {
	d := v - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// Equipment holds the three equipment slots.
type Equipment struct {
	Weapon      *Item   `json:"weapon"`
	Armor       *Item   `json:"armor"`
	Accessories []*Item `json:"accessories"`
}

// Character is the player character.
type Character struct {
	Name            string     `json:"name"`
	Class           Class      `json:"character_class"`
	Level           int        `json:"level"`
	Attributes      Attributes `json:"attributes"`
	HitPoints       int        `json:"hit_points"`
	Inventory       []*Item    `json:"inventory"`
	Equipped        Equipment  `json:"equipped"`
	CurrentLocation string     `json:"current_location"`

	// inventory index each equipped item was taken from
	equippedFrom map[*Item]int
}

// StartingKit returns fresh copies of the class starting items.
func StartingKit(c Class) []*Item {
	switch c {
	case ClassWarrior:
		return []*Item{
			NewItem("Iron Sword", ItemWeapon, map[string]float64{"bonus": 5, "weight": 2}),
			NewItem("Leather Armor", ItemArmor, map[string]float64{"bonus": 3, "weight": 3}),
		}
	case ClassMage:
		return []*Item{
			NewItem("Wooden Staff", ItemWeapon, map[string]float64{"bonus": 3, "weight": 1}),
			NewItem("Robe", ItemArmor, map[string]float64{"bonus": 1, "weight": 2}),
		}
	case ClassRogue:
		return []*Item{
			NewItem("Dagger", ItemWeapon, map[string]float64{"bonus": 4, "weight": 1}),
			NewItem("Leather Armor", ItemArmor, map[string]float64{"bonus": 2, "weight": 2}),
		}
	}
	return nil
}

// NewCharacter creates a level 1 character with the class starting kit in
// its inventory. baseAttribute <= 0 means DefaultAttribute.
func NewCharacter(name, class string, baseAttribute int) (*Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	c, err := ParseClass(class)
	if err != nil {
		return nil, err
	}
	if baseAttribute <= 0 {
		baseAttribute = DefaultAttribute
	}

	ch := &Character{
		Name:            name,
		Class:           c,
		Level:           1,
		Attributes:      UniformAttributes(baseAttribute),
		Inventory:       StartingKit(c),
		CurrentLocation: StartingLocation,
		Equipped:        Equipment{Accessories: []*Item{}},
	}
	ch.HitPoints = ch.MaxHitPoints()
	return ch, nil
}

// MaxHitPoints is derived from constitution and level on every call.
func (c *Character) MaxHitPoints() int {
	return BaseHitPoints + Modifier(c.Attributes.Constitution)*c.Level
}

// SetLevel changes level and restores hit points to the new maximum.
func (c *Character) SetLevel(level int) error {
	if level < 1 {
		return ErrInvalidLevel
	}
	c.Level = level
	c.HitPoints = c.MaxHitPoints()
	return nil
}

// SetAttribute changes a stat. Changing constitution restores hit points
// to the new maximum.
func (c *Character) SetAttribute(name string, v int) error {
	p := c.Attributes.field(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownStat, name)
	}
	*p = v
	if p == &c.Attributes.Constitution {
		c.HitPoints = c.MaxHitPoints()
	}
	return nil
}

// TakeDamage lowers current hit points, never below zero.
func (c *Character) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	c.HitPoints = max(c.HitPoints-n, 0)
}

// AttackBonus is strength plus the equipped weapon's bonus.
func (c *Character) AttackBonus() int {
	return c.Attributes.Strength + c.Equipped.Weapon.Bonus()
}

// DefenseBonus is dexterity plus the equipped armor's bonus.
func (c *Character) DefenseBonus() int {
	return c.Attributes.Dexterity + c.Equipped.Armor.Bonus()
}

// CarryWeight sums inventory and equipped item weight.
func (c *Character) CarryWeight() float64 {
	var w float64
	for _, it := range c.Inventory {
		w += it.Weight()
	}
	w += c.Equipped.Weapon.Weight() + c.Equipped.Armor.Weight()
	for _, it := range c.Equipped.Accessories {
		w += it.Weight()
	}
	return w
}

// AddItem puts an item in the inventory, merging into existing stacks first.
func (c *Character) AddItem(item *Item) error {
	if item == nil {
		return nil
	}
	if c.CarryWeight()+item.Weight() > MaxCarryWeight {
		return ErrTooHeavy
	}
	if item.Stackable {
		remaining := item.count()
		for _, it := range c.Inventory {
			if remaining == 0 {
				break
			}
			if !it.CanStackWith(item) || it.Quantity >= it.MaxStack {
				continue
			}
			n := min(it.MaxStack-it.Quantity, remaining)
			it.Quantity += n
			remaining -= n
		}
		if remaining == 0 {
			return nil
		}
		item.Quantity = remaining
	}
	c.Inventory = append(c.Inventory, item)
	return nil
}

// FindItem returns the first inventory item whose name matches, ignoring case.
func (c *Character) FindItem(name string) (*Item, bool) {
	name = strings.TrimSpace(name)
	for _, it := range c.Inventory {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return nil, false
}

// RemoveItem takes the first item structurally equal to item out of the
// inventory and returns the owned instance.
func (c *Character) RemoveItem(item *Item) (*Item, error) {
	for i, it := range c.Inventory {
		if it == item || it.Equal(item) {
			c.Inventory = slices.Delete(c.Inventory, i, i+1)
			return it, nil
		}
	}
	return nil, ErrItemNotOwned
}

// Equip moves an owned item from the inventory into the slot for its type.
// An item already in a weapon or armor slot takes its place in the
// inventory and is returned.
func (c *Character) Equip(item *Item) (*Item, error) {
	if item == nil {
		return nil, ErrItemNotOwned
	}
	switch item.Type {
	case ItemWeapon, ItemArmor, ItemAccessory:
	default:
		return nil, ErrUnknownItemType
	}
	idx := slices.IndexFunc(c.Inventory, func(it *Item) bool { return it == item || it.Equal(item) })
	if idx < 0 {
		return nil, ErrItemNotOwned
	}
	owned := c.Inventory[idx]

	var displaced *Item
	switch owned.Type {
	case ItemWeapon:
		displaced, c.Equipped.Weapon = c.Equipped.Weapon, owned
	case ItemArmor:
		displaced, c.Equipped.Armor = c.Equipped.Armor, owned
	case ItemAccessory:
		c.Equipped.Accessories = append(c.Equipped.Accessories, owned)
	}
	if displaced != nil {
		c.Inventory[idx] = displaced
		delete(c.equippedFrom, displaced)
	} else {
		c.Inventory = slices.Delete(c.Inventory, idx, idx+1)
	}
	if c.equippedFrom == nil {
		c.equippedFrom = make(map[*Item]int)
	}
	c.equippedFrom[owned] = idx
	return displaced, nil
}

// Unequip moves the item in slot back to the inventory, at the position it
// was equipped from when known. Accessories come off most recent first.
func (c *Character) Unequip(slot string) (*Item, error) {
	var item *Item
	switch strings.ToLower(strings.TrimSpace(slot)) {
	case SlotWeapon:
		item, c.Equipped.Weapon = c.Equipped.Weapon, nil
	case SlotArmor:
		item, c.Equipped.Armor = c.Equipped.Armor, nil
	case SlotAccessory, slotAccessories:
		if n := len(c.Equipped.Accessories); n > 0 {
			item = c.Equipped.Accessories[n-1]
			c.Equipped.Accessories = c.Equipped.Accessories[:n-1]
		}
	default:
		return nil, ErrInvalidSlot
	}
	if item == nil {
		return nil, ErrSlotEmpty
	}

	idx, ok := c.equippedFrom[item]
	delete(c.equippedFrom, item)
	if !ok || idx > len(c.Inventory) {
		idx = len(c.Inventory)
	}
	c.Inventory = slices.Insert(c.Inventory, idx, item)
	return item, nil
}

// Status renders the character sheet.
func (c *Character) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Class: %s\n", c.Class)
	fmt.Fprintf(&b, "Level: %d\n", c.Level)
	fmt.Fprintf(&b, "HP: %d/%d\n", c.HitPoints, c.MaxHitPoints())
	fmt.Fprintf(&b, "Attack: +%d  Defense: +%d\n", c.AttackBonus(), c.DefenseBonus())
	fmt.Fprintf(&b, "Location: %s\n", c.CurrentLocation)
	b.WriteString("\nAttributes:\n")
	for _, n := range AttributeNames {
		v, _ := c.Attributes.Get(n)
		fmt.Fprintf(&b, "%s: %d\n", titleCase(n), v)
	}
	return strings.TrimRight(b.String(), "\n")
}

// DescribeInventory renders equipped slots, carried items and weight.
func (c *Character) DescribeInventory() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weight: %g/%g\n", c.CarryWeight(), MaxCarryWeight)
	b.WriteString("\nEquipped:\n")
	fmt.Fprintf(&b, "Weapon: %s\n", itemName(c.Equipped.Weapon))
	fmt.Fprintf(&b, "Armor: %s\n", itemName(c.Equipped.Armor))
	if len(c.Equipped.Accessories) == 0 {
		b.WriteString("Accessories: None\n")
	} else {
		b.WriteString("Accessories:\n")
		for _, it := range c.Equipped.Accessories {
			fmt.Fprintf(&b, "- %s\n", it.Name)
		}
	}
	if len(c.Inventory) == 0 {
		b.WriteString("\nYour inventory is empty.")
		return b.String()
	}
	b.WriteString("\nInventory:\n")
	for _, it := range c.Inventory {
		fmt.Fprintf(&b, "- %s\n", it)
	}
	return strings.TrimRight(b.String(), "\n")
}

func itemName(it *Item) string {
	if it == nil {
		return "None"
	}
	return it.Name
}
