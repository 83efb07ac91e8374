package npc

// Faction names used by the default population.
const (
	FactionCouncil   = "Town Council"
	FactionMerchants = "Merchants Guild"
	FactionGuard     = "Town Guard"
	FactionRangers   = "Rangers"
)

// DefaultMemory returns the starting population of the default world.
func DefaultMemory(opts ...Option) *Memory {
	m := NewMemory(opts...)

	npcs := []*NPC{
		New("Mayor", "mayor", "Starting Town", FactionCouncil),
		New("Shopkeeper", "shopkeeper", "Starting Town", FactionMerchants).WithWares(
			MerchantItem{Name: "Health Potion", Price: 25, Type: "consumable"},
			MerchantItem{Name: "Torch", Price: 2, Type: "tool"},
			MerchantItem{Name: "Rope", Price: 5, Type: "tool"},
		),
		New("Guard", "guard", "Starting Town", FactionGuard),
		New("Forest Ranger", "ranger", "Forest", FactionRangers),
		New("Herbalist", "herbalist", "Forest", FactionRangers).WithWares(
			MerchantItem{Name: "Healing Herbs", Price: 10, Type: "consumable"},
			MerchantItem{Name: "Antidote", Price: 15, Type: "consumable"},
		),
		New("Merchant", "merchant", "Market Square", FactionMerchants).WithWares(
			MerchantItem{Name: "Silver Ring", Price: 60, Type: "accessory"},
			MerchantItem{Name: "Traveler's Pack", Price: 20, Type: "tool"},
		),
		New("Blacksmith", "blacksmith", "Market Square", FactionMerchants).WithWares(
			MerchantItem{Name: "Steel Sword", Price: 120, Type: "weapon"},
			MerchantItem{Name: "Chainmail", Price: 150, Type: "armor"},
			MerchantItem{Name: "Iron Shield", Price: 80, Type: "armor"},
		),
		New("Innkeeper", "innkeeper", "Market Square", FactionMerchants),
	}
	for _, n := range npcs {
		// names are distinct literals
		_ = m.Add(n)
	}

	m.UpdateFactionRelationship(FactionCouncil, FactionGuard, 60)
	m.UpdateFactionRelationship(FactionMerchants, FactionCouncil, 40)
	m.UpdateFactionRelationship(FactionRangers, FactionGuard, 20)
	m.UpdateFactionRelationship(FactionRangers, FactionMerchants, 10)
	return m
}
