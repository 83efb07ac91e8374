package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/actor"
	"github.com/jwebster45206/text-rpg/pkg/gameerr"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t)
	newPlayer(t, s)
	s.Process(ctx, "equip iron sword")
	s.Process(ctx, "go forest")
	s.Process(ctx, "talk forest ranger")

	assert.Equal(t, "Game saved as 'hero'.", s.ProcessInput(ctx, "save hero"))
	assert.Equal(t, "Game saved as 'hero_1'.", s.ProcessInput(ctx, "save hero"))
	name, err := s.Save(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "save_1714564800", name)

	saved := s.Status()
	savedClock := s.Clock()

	other, _ := newTestSession(t, func(o *Options) { o.Store = store })
	res := other.Process(ctx, "load hero")
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "Game loaded from 'hero'.", res.Chunks[0])
	assert.Contains(t, res.Chunks[1], "You are in Forest.")
	assert.Zero(t, res.Minutes)

	loaded := other.Status()
	assert.Equal(t, saved.Name, loaded.Name)
	assert.Equal(t, saved.Location, loaded.Location)
	assert.Equal(t, saved.AttackBonus, loaded.AttackBonus, "equipped weapon survives")
	assert.Equal(t, saved.Discovered, loaded.Discovered)
	assert.Equal(t, savedClock, other.Clock())

	// the "save hero" commands were recorded after the snapshot was taken
	h := other.History()
	require.GreaterOrEqual(t, len(h), 2)
	assert.Equal(t, "load hero", h[len(h)-1].Action)
	assert.Equal(t, "talk forest ranger", h[len(h)-2].Action)

	detail := other.ProcessInput(ctx, "npc forest ranger")
	assert.Contains(t, detail, "affinity 1")
	assert.Contains(t, detail, "met at Forest")
	h = other.History()
	assert.Equal(t, "npc forest ranger", h[len(h)-1].Action)
}

func TestSession_SaveNameMatchesStoredName(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t)
	newPlayer(t, s)

	first, err := s.Save(ctx, "slot")
	require.NoError(t, err)
	second, err := s.Save(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "slot", first)
	assert.Equal(t, "slot_1", second)

	for _, name := range []string{first, second} {
		data, err := store.Load(ctx, name)
		require.NoError(t, err)
		doc, err := DecodeSave(data)
		require.NoError(t, err)
		assert.Equal(t, name, doc.SaveName)
	}
}

func TestSession_LoadClearsCombat(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	newPlayer(t, s)
	_, err := s.Save(ctx, "town")
	require.NoError(t, err)

	s.Process(ctx, "go forest")
	s.Process(ctx, "go cave")
	s.Process(ctx, "attack cave spider")
	require.True(t, s.InCombat())

	// load is refused mid-fight; the exported call is not
	assert.Equal(t, ErrInCombat.Msg, s.ProcessInput(ctx, "load town"))
	require.NoError(t, s.Load(ctx, "town"))
	assert.False(t, s.InCombat())
	assert.Empty(t, s.Status().Enemy)
	loc, err := s.CurrentLocation()
	require.NoError(t, err)
	assert.Equal(t, "Starting Town", loc.Name)
}

func TestSession_LoadFailuresLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t)
	newPlayer(t, s)
	s.Process(ctx, "go forest")

	store.Put("future", []byte(`{"version":"9.9","player":{}}`), storage.SaveInfo{Name: "future"})
	store.Put("junk", []byte(`{not json`), storage.SaveInfo{Name: "junk"})
	store.Put("nobody", []byte(`{"version":"2.0","game_time":{"day":1,"hour":8,"minute":0}}`), storage.SaveInfo{Name: "nobody"})
	store.Put("lost", []byte(`{"version":"2.0","player":{"name":"X","character_class":"Mage","level":1,"current_location":"Atlantis"},"game_time":{"day":1,"hour":8,"minute":0}}`), storage.SaveInfo{Name: "lost"})

	before := s.Status()
	clock := s.Clock()

	tests := []struct {
		input string
		want  string
		is    error
	}{
		{"load future", "Save 'future' was written by an incompatible version.", ErrIncompatibleVersion},
		{"load junk", "Save 'junk' is corrupt.", ErrCorruptData},
		{"load nobody", "Save 'nobody' is corrupt.", ErrCorruptData},
		{"load lost", "Save 'lost' is corrupt: unknown location Atlantis.", ErrCorruptData},
		{"load missing", "No save named 'missing'.", storage.ErrSaveNotFound},
		{"load", "Load what? Use: load <name> (see: saves)", ErrMissingArgument},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ProcessInput(ctx, tt.input))
			err := s.Load(ctx, tt.input[min(len(tt.input), 5):])
			assert.ErrorIs(t, err, tt.is)
		})
	}

	assert.Equal(t, before, s.Status())
	assert.Equal(t, clock, s.Clock())
}

func TestSession_SaveFailures(t *testing.T) {
	ctx := context.Background()

	s, store := newTestSession(t)
	newPlayer(t, s)
	store.SetSaveError(errors.New("disk full"))
	before := s.Status()
	assert.Equal(t, "Failed to save game.", s.ProcessInput(ctx, "save hero"))
	assert.Equal(t, before, s.Status())
	_, err := s.Save(ctx, "hero")
	assert.ErrorIs(t, err, gameerr.ErrPersistence)

	store.SetSaveError(nil)
	assert.Equal(t, "Invalid save name: ***", s.ProcessInput(ctx, "save ***"))

	noStore, _ := newTestSession(t, func(o *Options) { o.Store = nil })
	newPlayer(t, noStore)
	assert.Equal(t, ErrSavesUnavailable.Msg, noStore.ProcessInput(ctx, "save"))
	assert.Equal(t, ErrSavesUnavailable.Msg, noStore.ProcessInput(ctx, "saves"))
	_, err = noStore.ListSaves(ctx)
	assert.ErrorIs(t, err, ErrSavesUnavailable)
}

func TestSession_ListAndDeleteSaves(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	newPlayer(t, s)
	s.Process(ctx, "save alpha")
	s.Process(ctx, "save beta")

	list := s.ProcessInput(ctx, "saves")
	assert.Contains(t, list, "Saved games:")
	assert.Contains(t, list, "alpha (Test, 2024-05-01 12:00:00)")

	assert.Equal(t, "Deleted save 'alpha'.", s.ProcessInput(ctx, "delete alpha.json"))
	assert.Equal(t, "No save named 'alpha'.", s.ProcessInput(ctx, "delete alpha"))
	assert.Equal(t, "Delete what? Use: delete <name>", s.ProcessInput(ctx, "delete"))

	saves, err := s.ListSaves(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "beta", saves[0].Name)
}

func TestDecodeSave_Current(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	data, err := s.document("hero").Encode()
	require.NoError(t, err)

	doc, err := DecodeSave(data)
	require.NoError(t, err)
	assert.Equal(t, SaveVersion, doc.Version)
	assert.Equal(t, "hero", doc.SaveName)
	assert.Equal(t, actor.ClassWarrior, doc.Player.Class)
	assert.Equal(t, world.NewClock(), doc.GameTime)
	assert.Equal(t, testNow, doc.Timestamp.UTC())
	_, ok := doc.NPCMemory.Get("Mayor")
	assert.True(t, ok)
	assert.Len(t, doc.SessionMemory, 1)
}

func TestDecodeSave_Legacy(t *testing.T) {
	legacy := []byte(`{
		"player": {
			"name": "Old Timer",
			"class": "mage",
			"level": 2,
			"attributes": {"strength": 8, "dexterity": 10, "constitution": 12, "intelligence": 16, "wisdom": 12, "charisma": 10},
			"hit_points": 14,
			"inventory": [{"name": "Wooden Staff", "type": "weapon", "stats": {"bonus": 3, "weight": 1}, "stackable": false, "max_stack": 1, "quantity": null}],
			"equipped": {"weapon": null, "armor": null, "accessories": []}
		},
		"save_metadata": {"timestamp": 1704164645.123456, "version": "1.0", "save_name": "old_game"}
	}`)

	doc, err := DecodeSave(legacy)
	require.NoError(t, err)
	assert.Equal(t, LegacySaveVersion, doc.Version)
	assert.Equal(t, "old_game", doc.SaveName)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC), doc.Timestamp)
	assert.Equal(t, actor.ClassMage, doc.Player.Class)
	assert.Equal(t, 2, doc.Player.Level)
	assert.Equal(t, actor.StartingLocation, doc.Player.CurrentLocation)
	assert.Equal(t, 16, doc.Player.Attributes.Intelligence)
	require.Len(t, doc.Player.Inventory, 1)
	assert.Equal(t, "Wooden Staff", doc.Player.Inventory[0].Name)
	assert.Equal(t, world.NewClock(), doc.GameTime)
	_, ok := doc.NPCMemory.Get("Herbalist")
	assert.True(t, ok, "legacy saves get the default NPCs")
}

func TestDecodeSave_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		is   error
	}{
		{"not json", `[1,2`, ErrCorruptData},
		{"no version", `{"player":{"name":"A","character_class":"Mage"}}`, ErrIncompatibleVersion},
		{"unknown version", `{"version":"3.0"}`, ErrIncompatibleVersion},
		{"missing player", `{"version":"2.0"}`, ErrCorruptData},
		{"bad class", `{"version":"2.0","player":{"name":"A","character_class":"Bard"},"game_time":{"day":1,"hour":0,"minute":0}}`, ErrCorruptData},
		{"bad clock", `{"version":"2.0","player":{"name":"A","character_class":"Mage"},"game_time":{"day":0,"hour":25,"minute":0}}`, ErrCorruptData},
		{"legacy without player", `{"save_metadata":{"version":"1.0"}}`, ErrCorruptData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSave([]byte(tt.data))
			assert.ErrorIs(t, err, tt.is)
			assert.ErrorIs(t, err, gameerr.ErrPersistence)
		})
	}
}
