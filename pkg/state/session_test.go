package state

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/narrative"
	"github.com/jwebster45206/text-rpg/pkg/npc"
	"github.com/jwebster45206/text-rpg/pkg/rules"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testOpt func(*Options)

func withRules(r rules.Rules) testOpt {
	return func(o *Options) { o.Rules = &r }
}

func withGenerator(t *testing.T, gen narrative.Generator) testOpt {
	return func(o *Options) {
		n, err := narrative.NewNarrator(gen, narrative.WithLogger(o.Logger))
		require.NoError(t, err)
		o.Narrator = n
	}
}

func newTestSession(t *testing.T, opts ...testOpt) (*Session, *storage.MockSaveStore) {
	t.Helper()
	store := storage.NewMockSaveStore()
	store.SetClock(func() time.Time { return testNow })
	o := Options{
		Store:      store,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Rand:       rand.New(rand.NewSource(1)),
		Now:        func() time.Time { return testNow },
		Discoverer: npc.NewDiscoverer(true),
	}
	for _, opt := range opts {
		opt(&o)
	}
	s, err := NewSession(o)
	require.NoError(t, err)
	return s, store
}

func newPlayer(t *testing.T, s *Session) {
	t.Helper()
	res := s.Process(context.Background(), "create Test Warrior")
	require.Equal(t, "Welcome, Test the Warrior!", res.Chunks[0])
}

func TestSession_EmptyInput(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Process(context.Background(), "   ")
	assert.Equal(t, []string{"Please enter a command."}, res.Chunks)
	assert.Empty(t, s.History())
}

func TestSession_RequiresCharacter(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	for _, input := range []string{"look", "go forest", "talk mayor", "time", "dance", "save"} {
		res := s.Process(ctx, input)
		assert.Equal(t, ErrNoCharacter.Msg, res.Text(), "input %q", input)
	}
	assert.Equal(t, world.NewClock(), s.Clock(), "rejected commands must not advance the clock")

	assert.Contains(t, s.ProcessInput(ctx, "help"), "Available Commands")
	assert.Equal(t, "No saved games found.", s.ProcessInput(ctx, "saves"))
	assert.Contains(t, s.ProcessInput(ctx, "create Test"), "Use: create <name> <class>")
	assert.Contains(t, s.ProcessInput(ctx, "create Test Bard"), "invalid character class")

	_, err := s.CurrentLocation()
	assert.ErrorIs(t, err, ErrNoCharacter)
}

func TestSession_CreateAndLook(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Process(context.Background(), "create Sir Test Warrior")

	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "Welcome, Sir Test the Warrior!", res.Chunks[0])
	look := res.Chunks[1]
	assert.True(t, strings.HasPrefix(look, "You are in Starting Town.\n"))
	assert.Contains(t, look, "A bustling town with cobblestone streets")
	assert.Contains(t, look, "Exits: Forest, Market Square")
	assert.Contains(t, look, "You see: Mayor, Shopkeeper, Guard")
	assert.NotContains(t, look, "Danger!")
	assert.Equal(t, world.NewClock(), s.Clock())

	st := s.Status()
	assert.True(t, st.HasCharacter)
	assert.Equal(t, "Sir Test", st.Name)
	assert.Equal(t, "Warrior", st.Class)
	assert.Equal(t, []string{"Starting Town"}, st.Discovered)
	assert.Equal(t, "player_sir_test", PlayerEntityID(st.Name))
}

func TestSession_Movement(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()

	res := s.Process(ctx, "go forest")
	require.GreaterOrEqual(t, len(res.Chunks), 3)
	assert.Equal(t, "You have arrived at Forest.", res.Chunks[0])
	assert.Equal(t, "You discovered Forest!", res.Chunks[1])
	assert.Contains(t, res.Chunks[2], "Danger! You spot: Goblin, Wolf, Bandit")
	assert.GreaterOrEqual(t, res.Minutes, minTravel)
	assert.LessOrEqual(t, res.Minutes, minTravel+travelSpread)

	before := s.Clock()
	res = s.Process(ctx, "go market square")
	assert.Equal(t, "You can't go to market square from here.", res.Text())
	assert.Equal(t, before, s.Clock())
	loc, err := s.CurrentLocation()
	require.NoError(t, err)
	assert.Equal(t, "Forest", loc.Name)

	res = s.Process(ctx, "go to starting town")
	assert.Equal(t, "You have arrived at Starting Town.", res.Chunks[0])
	assert.NotContains(t, res.Text(), "You discovered")
	assert.Equal(t, []string{"Starting Town", "Forest"}, s.Discovered())

	_, err = s.Move(ctx, "Cave")
	assert.ErrorIs(t, err, world.ErrInvalidDestination)
}

func TestSession_Equipment(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{"equip iron sword", "Equipped Iron Sword."},
		{"equip", "Equip what? Use: equip <item>"},
		{"equip crown", "You don't have 'crown' in your inventory."},
		{"unequip weapon", "Unequipped Iron Sword from weapon."},
		{"unequip weapon", "No item equipped in weapon."},
		{"unequip boots", "Invalid slot: boots. Use weapon, armor or accessory."},
		{"examine nothing", "No item named 'nothing' in inventory."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ProcessInput(ctx, tt.input), "input %q", tt.input)
	}

	assert.Contains(t, s.ProcessInput(ctx, "examine leather armor"), "Leather Armor")
	assert.Contains(t, s.ProcessInput(ctx, "inventory"), "Iron Sword")

	msg, err := s.Equip("Leather Armor")
	require.NoError(t, err)
	assert.Equal(t, "Equipped Leather Armor.", msg)
	assert.Contains(t, s.ProcessInput(ctx, "examine leather armor"), "(equipped)")
}

func TestSession_CombatKillsWeakEnemy(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()
	s.Process(ctx, "go forest")

	before := s.Clock()
	res := s.Process(ctx, "attack goblin")
	assert.Equal(t, []string{
		"You engage the Goblin!",
		narrative.FallbackCombat,
		"You strike a killing blow! The Goblin falls.",
	}, res.Chunks)
	assert.False(t, s.InCombat())
	assert.Equal(t, 1, res.Minutes)

	after := before
	after.Advance(1)
	assert.Equal(t, after, s.Clock())

	assert.Equal(t, "There is no dragon here to fight.", s.ProcessInput(ctx, "attack dragon"))
	assert.Equal(t, "Attack what? Use: attack <enemy>", s.ProcessInput(ctx, "attack"))
	assert.Equal(t, ErrNotInCombat.Msg, s.ProcessInput(ctx, "flee"))
}

func TestSession_CombatRounds(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()
	s.Process(ctx, "go forest")
	s.Process(ctx, "go cave")

	// strength 10 + damage bonus 1 against 20 hit points
	res := s.Process(ctx, "attack cave spider")
	assert.Equal(t, "You hit the Cave Spider for 11 damage! (9 HP left)", res.Chunks[2])
	assert.True(t, s.InCombat())
	assert.Equal(t, "Cave Spider", s.Status().Enemy)
	assert.Equal(t, 9, s.Status().EnemyHP)

	assert.Equal(t, ErrInCombat.Msg, s.ProcessInput(ctx, "go forest"))
	assert.Equal(t, ErrInCombat.Msg, s.ProcessInput(ctx, "dance"))
	assert.Contains(t, s.ProcessInput(ctx, "status"), "In combat with: Cave Spider (HP 9/20)")

	res = s.Process(ctx, "attack")
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "You strike a killing blow! The Cave Spider falls.", res.Chunks[1])
	assert.False(t, s.InCombat())
}

func TestSession_MissAndFlee(t *testing.T) {
	r := rules.Defaults()
	r.Combat.Difficulty = 100
	s, _ := newTestSession(t, withRules(r))
	newPlayer(t, s)
	ctx := context.Background()
	s.Process(ctx, "go forest")

	res := s.Process(ctx, "attack wolf")
	assert.Equal(t, "You miss the Wolf!", res.Chunks[2])
	assert.True(t, s.InCombat())

	before := s.Clock()
	assert.Equal(t, "You flee from combat!", s.ProcessInput(ctx, "flee"))
	assert.False(t, s.InCombat())
	after := before
	after.Advance(fleeMinutes)
	assert.Equal(t, after, s.Clock())
	assert.Empty(t, s.Status().Enemy)
}

func TestSession_AttackAgainstEnemyArmorClass(t *testing.T) {
	r := rules.Defaults()
	r.Combat.Difficulty = 100
	r.Combat.EnemyArmorClass = true
	s, _ := newTestSession(t, withRules(r))
	newPlayer(t, s)
	ctx := context.Background()
	s.Process(ctx, "go forest")

	// the wolf's armor class is 12, well under the difficulty
	res := s.Process(ctx, "attack wolf")
	require.Len(t, res.Chunks, 3)
	assert.Equal(t, "You strike a killing blow! The Wolf falls.", res.Chunks[2])
	assert.False(t, s.InCombat())
}

func TestSession_Talk(t *testing.T) {
	gen := narrative.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req narrative.Request) (string, error) {
		if req.Kind == narrative.KindDialogue {
			return "Welcome to our town, traveler. You should ask Garrick at the forge about blades.", nil
		}
		return "A quiet place.", nil
	}
	s, _ := newTestSession(t, withGenerator(t, gen))
	newPlayer(t, s)
	ctx := context.Background()

	before := s.Clock()
	res := s.Process(ctx, "talk to mayor")
	assert.Equal(t, "Mayor: Welcome to our town, traveler. You should ask Garrick at the forge about blades.", res.Text())
	assert.Equal(t, 10, res.Minutes)
	after := before
	after.Advance(10)
	assert.Equal(t, after, s.Clock())

	loc, err := s.CurrentLocation()
	require.NoError(t, err)
	assert.Contains(t, loc.NPCs, "Garrick", "NPCs named in dialogue join the location")

	detail := s.ProcessInput(ctx, "npc mayor")
	assert.Contains(t, detail, "Faction: Town Council\nStanding: Merchants Guild +40, Town Guard +60")
	assert.Contains(t, detail, "Disposition: neutral (affinity 1)")
	assert.Contains(t, detail, "Remembers: met at Starting Town")

	assert.Equal(t, "Herbalist is not here.", s.ProcessInput(ctx, "talk Herbalist"))
	assert.Equal(t, "You don't know anyone called Zed.", s.ProcessInput(ctx, "npc Zed"))

	res = s.Process(ctx, "talk shopkeeper")
	require.Len(t, res.Chunks, 2)
	assert.Contains(t, res.Chunks[1], "Shopkeeper has wares for sale:")
	assert.Contains(t, res.Chunks[1], "Health Potion (consumable): 25 gold")

	list := s.ProcessInput(ctx, "npcs")
	assert.Contains(t, list, "Garrick (neutral)")
	assert.Contains(t, list, "Mayor (neutral)")
}

func TestSession_TalkFallback(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()

	assert.Equal(t, "Guard nods at you but says nothing.", s.ProcessInput(ctx, "talk guard"))
	s.Process(ctx, "go forest")
	assert.Contains(t, s.ProcessInput(ctx, "npcs"), "People you have met elsewhere:\n  - Guard, guard at Starting Town (neutral)")
}

func TestSession_FreeformAction(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()

	res := s.Process(ctx, "dance a jig")
	assert.Equal(t, CmdUnknown, res.Command)
	assert.Equal(t, narrative.FallbackAction, res.Text())
	assert.Equal(t, actionMinutes, res.Minutes)

	res = s.Process(ctx, "wave at the mayor")
	assert.Equal(t, "To speak with Mayor, use: talk mayor", res.Text())
	assert.Zero(t, res.Minutes)

	s.Process(ctx, "go forest")
	res = s.Process(ctx, "shout for the Mayor")
	assert.Equal(t, CmdUnknown, res.Command)
	assert.Equal(t, "Mayor is at Starting Town, not here.", res.Text())
	assert.Zero(t, res.Minutes)

	res = s.Process(ctx, "wave at the forest ranger")
	assert.Equal(t, "To speak with Forest Ranger, use: talk forest ranger", res.Text())
}

func TestSession_FreeformActionDiscovers(t *testing.T) {
	gen := narrative.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req narrative.Request) (string, error) {
		if req.Kind == narrative.KindAction {
			return "You whistle. A girl named Tilly waves back from the Forest edge.", nil
		}
		return "Somewhere.", nil
	}
	s, _ := newTestSession(t, withGenerator(t, gen))
	newPlayer(t, s)

	s.Process(context.Background(), "whistle")
	loc, err := s.CurrentLocation()
	require.NoError(t, err)
	assert.Contains(t, loc.NPCs, "Tilly")
	assert.NotContains(t, loc.NPCs, "Forest", "locations are never registered as NPCs")

	last := gen.GenerateCalls[len(gen.GenerateCalls)-1]
	assert.Equal(t, narrative.KindAction, last.Kind)
}

func TestSession_TimeAndQuit(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()

	assert.Equal(t, "It is Day 1, 08:00 (morning).", s.ProcessInput(ctx, "what time is it"))
	res := s.Process(ctx, "quit")
	assert.True(t, res.Quit)
	assert.Equal(t, "Thank you for playing!", res.Text())
}

func TestSession_HistoryRecordsCommands(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()
	s.Process(ctx, "look")
	s.Process(ctx, "go nowhere")

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, "create Test Warrior", h[0].Action)
	assert.Equal(t, "go nowhere", h[2].Action)
	assert.Equal(t, "You can't go to nowhere from here.", h[2].Response)
	assert.Equal(t, "Day 1, 08:00", h[2].GameTime)
	assert.Equal(t, testNow, h[2].Timestamp)
}

func TestSession_ConcurrentCommands(t *testing.T) {
	s, _ := newTestSession(t)
	newPlayer(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.Process(ctx, "time")
			} else {
				s.Status()
			}
		}()
	}
	wg.Wait()

	want := world.NewClock()
	want.Advance(10)
	assert.Equal(t, want, s.Clock())
	assert.Len(t, s.History(), 11)
}

func TestSession_ResultText(t *testing.T) {
	r := Result{Chunks: []string{"a", "b"}}
	assert.Equal(t, "a\n\nb", r.Text())
	assert.Equal(t, "player_ann_lee", PlayerEntityID(" Ann Lee "))
}
