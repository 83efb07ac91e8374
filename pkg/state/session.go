// Package state is the session engine: it owns the player, the current
// fight, the clock, the NPC registry and the world for one game, and turns
// player input into text.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/text-rpg/pkg/actor"
	"github.com/jwebster45206/text-rpg/pkg/gameerr"
	"github.com/jwebster45206/text-rpg/pkg/narrative"
	"github.com/jwebster45206/text-rpg/pkg/npc"
	"github.com/jwebster45206/text-rpg/pkg/rules"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/world"
)

// Options configures a new Session. Every field is optional.
type Options struct {
	ID         uuid.UUID
	World      *world.Graph // cloned; defaults to world.DefaultGraph
	NPCs       *npc.Memory  // defaults to npc.DefaultMemory
	Rules      *rules.Rules // defaults to rules.Defaults
	Narrator   *narrative.Narrator
	Store      storage.SaveStore // nil disables saving
	Discoverer *npc.Discoverer   // nil disables NPC discovery
	Logger     *slog.Logger
	Rand       *rand.Rand
	Now        func() time.Time
}

// Session is one independent game. All exported methods are safe for
// concurrent use; commands are applied one at a time.
type Session struct {
	ID uuid.UUID

	mu         sync.Mutex
	player     *actor.Character
	enemy      *actor.Combatant
	inCombat   bool
	clock      world.Clock
	npcs       *npc.Memory
	world      *world.Graph
	discovered []string
	history    *History

	rules      rules.Rules
	narrator   *narrative.Narrator
	store      storage.SaveStore
	discoverer *npc.Discoverer
	logger     *slog.Logger
	rng        *rand.Rand
	now        func() time.Time
}

// Result is the outcome of one command. Chunks are emitted in order; the
// combat description, for instance, precedes the combat result.
type Result struct {
	Command CommandType `json:"command"`
	Chunks  []string    `json:"chunks"`
	Quit    bool        `json:"quit"`
	Minutes int         `json:"minutes,omitempty"`
}

// Text joins the chunks with blank lines.
func (r Result) Text() string {
	return strings.Join(r.Chunks, "\n\n")
}

// NewSession creates a session with no character yet.
func NewSession(opts Options) (*Session, error) {
	s := &Session{
		ID:         opts.ID,
		clock:      world.NewClock(),
		history:    NewHistory(),
		rules:      rules.Defaults(),
		store:      opts.Store,
		discoverer: opts.Discoverer,
		logger:     opts.Logger,
		rng:        opts.Rand,
		now:        opts.Now,
		narrator:   opts.Narrator,
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("session_id", s.ID.String())
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Rules != nil {
		s.rules = *opts.Rules
	}
	if opts.World != nil {
		s.world = opts.World.Clone()
	} else {
		s.world = world.DefaultGraph()
	}
	s.npcs = opts.NPCs
	if s.npcs == nil {
		s.npcs = npc.DefaultMemory(npc.WithClock(s.now))
	}
	if s.narrator == nil {
		n, err := narrative.NewNarrator(nil, narrative.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create narrator: %w", err)
		}
		s.narrator = n
	}
	return s, nil
}

// ProcessInput handles one line of input and returns the full response.
func (s *Session) ProcessInput(ctx context.Context, raw string) string {
	return s.Process(ctx, raw).Text()
}

// Process handles one line of input. It always returns at least one chunk
// and never panics.
func (s *Session) Process(ctx context.Context, raw string) (res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := ParseCommand(raw)
	res.Command = cmd.Type
	if cmd.Type == CmdNone {
		res.Chunks = []string{"Please enter a command."}
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Command panicked", "command", cmd.Type, "panic", r)
			res.Chunks = []string{"Something went wrong. Please try again."}
			res.Quit = false
		}
	}()

	before := s.clock
	chunks, err := s.dispatch(ctx, cmd)
	if err != nil {
		chunks = []string{s.describeError(cmd, err)}
	} else {
		s.clock.Advance(cmd.Type.minutes())
		res.Quit = cmd.Type == CmdQuit
	}
	if len(chunks) == 0 {
		chunks = []string{narrative.FallbackAction}
	}
	res.Chunks = chunks
	if cmd.Type != CmdLoad {
		res.Minutes = minutesBetween(before, s.clock)
	}

	s.history.Add(Entry{
		Action:    cmd.Raw,
		Response:  res.Text(),
		GameTime:  s.clock.String(),
		Timestamp: s.now(),
	})
	return res
}

func minutesBetween(a, b world.Clock) int {
	total := func(c world.Clock) int { return ((c.Day*24)+c.Hour)*60 + c.Minute }
	return max(total(b)-total(a), 0)
}

func (s *Session) describeError(cmd Command, err error) string {
	switch gameerr.KindOf(err) {
	case gameerr.KindValidation, gameerr.KindNotFound:
		s.logger.Debug("Command rejected", "command", cmd.Type, "error", err)
	default:
		s.logger.Error("Command failed", "command", cmd.Type, "error", err)
	}
	if gameerr.KindOf(err) == "" {
		return "Something went wrong. Please try again."
	}
	return gameerr.Message(err)
}

func (s *Session) dispatch(ctx context.Context, cmd Command) ([]string, error) {
	if s.player == nil && !noCharacterAllowed[cmd.Type] {
		return nil, ErrNoCharacter
	}
	if s.inCombat && !combatAllowed[cmd.Type] {
		return nil, ErrInCombat
	}

	one := func(text string, err error) ([]string, error) {
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	}

	switch cmd.Type {
	case CmdHelp:
		return []string{helpText}, nil
	case CmdQuit:
		return []string{"Thank you for playing!"}, nil
	case CmdCreate:
		return s.createFromArgs(ctx, cmd.Arg)
	case CmdLook:
		return []string{s.look(ctx)}, nil
	case CmdInventory:
		return []string{s.player.DescribeInventory()}, nil
	case CmdStatus:
		return []string{s.statusText()}, nil
	case CmdTime:
		return []string{fmt.Sprintf("It is %s (%s).", s.clock, s.clock.TimeOfDay())}, nil
	case CmdEquip:
		return one(s.equip(cmd.Arg))
	case CmdUnequip:
		return one(s.unequip(cmd.Arg))
	case CmdExamine:
		return one(s.examine(cmd.Arg))
	case CmdGo:
		return s.move(ctx, cmd.Arg)
	case CmdTalk:
		return s.talk(ctx, cmd.Arg)
	case CmdNPCs:
		return []string{s.listNPCs()}, nil
	case CmdNPC:
		return one(s.describeNPC(cmd.Arg))
	case CmdAttack:
		return s.attack(ctx, cmd.Arg)
	case CmdFlee:
		return one(s.flee())
	case CmdSave:
		return one(s.save(ctx, cmd.Arg))
	case CmdLoad:
		return s.load(ctx, cmd.Arg)
	case CmdSaves:
		return one(s.listSaves(ctx))
	case CmdDeleteSave:
		return one(s.deleteSave(ctx, cmd.Arg))
	default:
		return s.action(ctx, cmd.Raw)
	}
}

// PlayerID is the relationship key NPCs use for the current player.
func (s *Session) playerID() string {
	return PlayerEntityID(s.player.Name)
}

// PlayerEntityID derives the relationship key for a player name.
func PlayerEntityID(name string) string {
	return "player_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func (s *Session) createFromArgs(ctx context.Context, arg string) ([]string, error) {
	fields := strings.Fields(arg)
	if len(fields) < 2 {
		return nil, userError(ErrMissingArgument, "Use: create <name> <class> (Warrior, Mage or Rogue)")
	}
	name := strings.Join(fields[:len(fields)-1], " ")
	return s.createCharacter(ctx, name, fields[len(fields)-1])
}

func (s *Session) createCharacter(ctx context.Context, name, class string) ([]string, error) {
	if s.inCombat {
		return nil, ErrInCombat
	}
	c, err := actor.NewCharacter(name, class, s.rules.CharacterCreation.BaseAttributes)
	if err != nil {
		return nil, err
	}
	c.CurrentLocation = s.world.Start()
	s.player = c
	s.discovered = []string{c.CurrentLocation}
	s.logger.Info("Character created", "name", c.Name, "class", c.Class)

	welcome := fmt.Sprintf("Welcome, %s the %s!", c.Name, c.Class)
	return []string{welcome, s.look(ctx)}, nil
}

// CreateCharacter starts the game with a new character, replacing any
// existing one.
func (s *Session) CreateCharacter(ctx context.Context, name, class string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunks, err := s.createCharacter(ctx, name, class)
	if err != nil {
		return "", err
	}
	return strings.Join(chunks, "\n\n"), nil
}

func (s *Session) requirePlayer() error {
	if s.player == nil {
		return ErrNoCharacter
	}
	return nil
}

func (s *Session) requireExploring() error {
	if err := s.requirePlayer(); err != nil {
		return err
	}
	if s.inCombat {
		return ErrInCombat
	}
	return nil
}

func (s *Session) equip(name string) (string, error) {
	if name == "" {
		return "", userError(ErrMissingArgument, "Equip what? Use: equip <item>")
	}
	item, ok := s.player.FindItem(name)
	if !ok {
		return "", userError(actor.ErrItemNotOwned, "You don't have '%s' in your inventory.", name)
	}
	displaced, err := s.player.Equip(item)
	if err != nil {
		if errors.Is(err, actor.ErrUnknownItemType) {
			return "", userError(err, "You can't equip %s.", item.Name)
		}
		return "", err
	}
	msg := fmt.Sprintf("Equipped %s.", item.Name)
	if displaced != nil {
		msg += fmt.Sprintf(" You put %s back in your pack.", displaced.Name)
	}
	return msg, nil
}

// Equip moves an inventory item into its slot.
func (s *Session) Equip(itemName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireExploring(); err != nil {
		return "", err
	}
	msg, err := s.equip(strings.TrimSpace(itemName))
	if err == nil {
		s.clock.Advance(CmdEquip.minutes())
	}
	return msg, err
}

func (s *Session) unequip(slot string) (string, error) {
	if slot == "" {
		return "", userError(ErrMissingArgument, "Unequip what? Use: unequip <weapon|armor|accessory>")
	}
	item, err := s.player.Unequip(slot)
	switch {
	case errors.Is(err, actor.ErrInvalidSlot):
		return "", userError(err, "Invalid slot: %s. Use weapon, armor or accessory.", slot)
	case errors.Is(err, actor.ErrSlotEmpty):
		return "", userError(err, "No item equipped in %s.", strings.ToLower(slot))
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Unequipped %s from %s.", item.Name, strings.ToLower(slot)), nil
}

// Unequip moves the item in slot back into the inventory.
func (s *Session) Unequip(slot string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireExploring(); err != nil {
		return "", err
	}
	msg, err := s.unequip(strings.TrimSpace(slot))
	if err == nil {
		s.clock.Advance(CmdUnequip.minutes())
	}
	return msg, err
}

func (s *Session) examine(name string) (string, error) {
	if name == "" {
		return "", userError(ErrMissingArgument, "Examine what? Use: examine <item>")
	}
	if item, ok := s.player.FindItem(name); ok {
		return item.Describe(), nil
	}
	eq := s.player.Equipped
	for _, item := range append([]*actor.Item{eq.Weapon, eq.Armor}, eq.Accessories...) {
		if item != nil && strings.EqualFold(item.Name, name) {
			return item.Describe() + "\n(equipped)", nil
		}
	}
	return "", userError(actor.ErrItemNotOwned, "No item named '%s' in inventory.", name)
}

func (s *Session) statusText() string {
	text := s.player.Status()
	text += fmt.Sprintf("\nTime: %s (%s)", s.clock, s.clock.TimeOfDay())
	if s.inCombat && s.enemy != nil {
		text += fmt.Sprintf("\nIn combat with: %s (HP %d/%d)", s.enemy.Name, s.enemy.HitPoints, s.enemy.MaxHitPoints)
	}
	return text
}

// action narrates a freeform command. Naming someone present gets a hint
// toward talk instead, and naming someone known elsewhere says where they are.
func (s *Session) action(ctx context.Context, raw string) ([]string, error) {
	if err := s.requireExploring(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(raw)
	for _, name := range s.presentNPCs() {
		if strings.Contains(lower, strings.ToLower(name)) {
			return nil, userError(ErrMissingArgument, "To speak with %s, use: talk %s", name, strings.ToLower(name))
		}
	}
	for _, n := range s.npcs.All() {
		if strings.Contains(lower, strings.ToLower(n.Name)) {
			return nil, userError(ErrNPCNotHere, "%s is at %s, not here.", n.Name, n.Location)
		}
	}

	req := s.baseRequest(narrative.KindAction)
	req.Action = raw
	for _, e := range s.history.Last(3) {
		req.Recent = append(req.Recent, fmt.Sprintf("%s -> %s", e.Action, firstLine(e.Response)))
	}
	text, generated := s.narrator.Generate(ctx, req)
	if generated {
		s.discover(text)
	}
	return []string{text}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// discover registers people named in generated text as villagers here.
func (s *Session) discover(text string) {
	if !s.discoverer.Enabled() {
		return
	}
	loc := s.player.CurrentLocation
	for _, n := range s.npcs.Discover(s.discoverer, text, loc, s.world.Has) {
		s.world.AddNPC(loc, n.Name)
		s.logger.Info("NPC discovered", "npc", n.Name, "location", loc)
	}
}

func (s *Session) baseRequest(kind narrative.Kind) narrative.Request {
	req := narrative.Request{
		Kind:      kind,
		TimeOfDay: s.clock.TimeOfDay(),
	}
	if s.player != nil {
		req.PlayerName = s.player.Name
		req.PlayerClass = string(s.player.Class)
		req.Location = s.player.CurrentLocation
	}
	return req
}

// Status is a summary of the session for clients.
type Status struct {
	SessionID    uuid.UUID `json:"session_id"`
	HasCharacter bool      `json:"has_character"`
	Name         string    `json:"name,omitempty"`
	Class        string    `json:"class,omitempty"`
	Level        int       `json:"level,omitempty"`
	HitPoints    int       `json:"hit_points,omitempty"`
	MaxHitPoints int       `json:"max_hit_points,omitempty"`
	AttackBonus  int       `json:"attack_bonus,omitempty"`
	DefenseBonus int       `json:"defense_bonus,omitempty"`
	Location     string    `json:"location,omitempty"`
	GameTime     string    `json:"game_time"`
	TimeOfDay    string    `json:"time_of_day"`
	InCombat     bool      `json:"in_combat"`
	Enemy        string    `json:"enemy,omitempty"`
	EnemyHP      int       `json:"enemy_hit_points,omitempty"`
	Discovered   []string  `json:"discovered_locations,omitempty"`
	Sheet        string    `json:"sheet,omitempty"`
}

// Status reports the current state without changing it.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		SessionID: s.ID,
		GameTime:  s.clock.String(),
		TimeOfDay: s.clock.TimeOfDay(),
		InCombat:  s.inCombat,
	}
	if s.player == nil {
		return st
	}
	st.HasCharacter = true
	st.Name = s.player.Name
	st.Class = string(s.player.Class)
	st.Level = s.player.Level
	st.HitPoints = s.player.HitPoints
	st.MaxHitPoints = s.player.MaxHitPoints()
	st.AttackBonus = s.player.AttackBonus()
	st.DefenseBonus = s.player.DefenseBonus()
	st.Location = s.player.CurrentLocation
	st.Discovered = append([]string(nil), s.discovered...)
	st.Sheet = s.player.Status()
	if s.enemy != nil {
		st.Enemy = s.enemy.Name
		st.EnemyHP = s.enemy.HitPoints
	}
	return st
}

// History returns the recent command log.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Recent()
}

// Clock returns the current game time.
func (s *Session) Clock() world.Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}
