package world

import "github.com/jwebster45206/text-rpg/pkg/actor"

// DefaultDefinition is the built-in world used when no world file is set.
func DefaultDefinition() Definition {
	return Definition{
		Start: actor.StartingLocation,
		Locations: []Location{
			{
				Name:        "Starting Town",
				Description: "A bustling town with cobblestone streets and wooden houses.",
				Exits:       []string{"Forest", "Market Square"},
				NPCs:        []string{"Mayor", "Shopkeeper", "Guard"},
			},
			{
				Name:        "Forest",
				Description: "A dense forest with tall trees and winding paths.",
				Exits:       []string{"Starting Town", "Cave"},
				NPCs:        []string{"Forest Ranger", "Herbalist"},
				Enemies:     []string{"Goblin", "Wolf", "Bandit"},
			},
			{
				Name:        "Market Square",
				Description: "A busy marketplace with various shops and stalls.",
				Exits:       []string{"Starting Town", "Blacksmith", "Tavern"},
				NPCs:        []string{"Merchant", "Blacksmith", "Innkeeper"},
			},
			{
				Name:        "Cave",
				Description: "A dark and foreboding cave with glowing crystals.",
				Exits:       []string{"Forest"},
				Enemies:     []string{"Goblin", "Orc Warrior", "Cave Spider"},
			},
			{
				Name:        "Blacksmith",
				Description: "A hot, smoky forge ringing with the sound of hammer on steel.",
				Exits:       []string{"Market Square"},
			},
			{
				Name:        "Tavern",
				Description: "A warm tavern that smells of ale, woodsmoke and roasting meat.",
				Exits:       []string{"Market Square"},
			},
		},
		Enemies: DefaultEnemies(),
	}
}

// DefaultEnemies is the built-in enemy table.
func DefaultEnemies() map[string]actor.EnemyTemplate {
	return map[string]actor.EnemyTemplate{
		"Goblin": {
			Name: "Goblin", Level: 1, HitPoints: 10,
			Attributes: map[string]int{"strength": 8, "dexterity": 12, "constitution": 9},
		},
		"Orc Warrior": {
			Name: "Orc Warrior", Level: 2, HitPoints: 15,
			Attributes: map[string]int{"strength": 14, "dexterity": 10, "constitution": 12},
		},
		"Wolf": {
			Name: "Wolf", Level: 1, HitPoints: 8,
			Attributes: map[string]int{"strength": 10, "dexterity": 15, "constitution": 8},
		},
		"Bandit": {
			Name: "Bandit", Level: 2, HitPoints: 12,
			Attributes: map[string]int{"strength": 12, "dexterity": 14, "constitution": 10},
		},
		"Cave Spider": {
			Name: "Cave Spider", Level: 3, HitPoints: 20,
			Attributes: map[string]int{"strength": 15, "dexterity": 18, "constitution": 12},
		},
	}
}

// DefaultGraph builds the built-in world. It panics if the built-in data is
// inconsistent, which tests guard against.
func DefaultGraph() *Graph {
	g, err := NewGraph(DefaultDefinition())
	if err != nil {
		panic(err)
	}
	return g
}
