package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/actor"
	"github.com/jwebster45206/text-rpg/pkg/npc"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/world"
)

const (
	// SaveVersion is written into every new save.
	SaveVersion = "2.0"
	// LegacySaveVersion documents carry only the player.
	LegacySaveVersion = "1.0"
)

// SaveDocument is the on-disk shape of a saved game.
type SaveDocument struct {
	Version             string           `json:"version"`
	SaveName            string           `json:"save_name"`
	Timestamp           time.Time        `json:"timestamp"`
	Player              *actor.Character `json:"player"`
	NPCMemory           *npc.Memory      `json:"npc_memory"`
	GameTime            world.Clock      `json:"game_time"`
	SessionMemory       []Entry          `json:"session_memory"`
	DiscoveredLocations []string         `json:"discovered_locations"`
	SaveMetadata        *SaveMetadata    `json:"save_metadata,omitempty"`
}

// SaveMetadata is the trailer legacy saves carry their version in.
type SaveMetadata struct {
	Timestamp storage.Timestamp `json:"timestamp"`
	Version   string            `json:"version"`
	SaveName  string            `json:"save_name"`
}

// Encode renders the document as indented JSON.
func (d *SaveDocument) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save: %w", err)
	}
	return data, nil
}

// DecodeSave parses and validates a save document of any supported
// version. opts configure the NPC memory it produces.
func DecodeSave(data []byte, opts ...npc.Option) (*SaveDocument, error) {
	var probe struct {
		Version      string `json:"version"`
		SaveMetadata *struct {
			Version string `json:"version"`
		} `json:"save_metadata"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	version := probe.Version
	if version == "" && probe.SaveMetadata != nil {
		version = probe.SaveMetadata.Version
	}

	var (
		doc *SaveDocument
		err error
	)
	switch version {
	case SaveVersion:
		doc, err = decodeCurrent(data, opts)
	case LegacySaveVersion:
		doc, err = decodeLegacy(data, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrIncompatibleVersion, version)
	}
	if err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeCurrent(data []byte, opts []npc.Option) (*SaveDocument, error) {
	var doc SaveDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if doc.NPCMemory == nil {
		doc.NPCMemory = npc.DefaultMemory(opts...)
	} else {
		for _, opt := range opts {
			opt(doc.NPCMemory)
		}
	}
	return &doc, nil
}

// decodeLegacy reads a 1.0 save. Those name the class "class" and have no
// NPC memory or clock.
func decodeLegacy(data []byte, opts []npc.Option) (*SaveDocument, error) {
	var raw struct {
		Player              json.RawMessage `json:"player"`
		GameTime            *world.Clock    `json:"game_time"`
		SessionMemory       []Entry         `json:"session_memory"`
		DiscoveredLocations []string        `json:"discovered_locations"`
		SaveMetadata        *SaveMetadata   `json:"save_metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	doc := &SaveDocument{
		Version:             LegacySaveVersion,
		NPCMemory:           npc.DefaultMemory(opts...),
		GameTime:            world.NewClock(),
		SessionMemory:       raw.SessionMemory,
		DiscoveredLocations: raw.DiscoveredLocations,
		SaveMetadata:        raw.SaveMetadata,
	}
	if raw.GameTime != nil {
		doc.GameTime = *raw.GameTime
	}
	if raw.SaveMetadata != nil {
		doc.SaveName = raw.SaveMetadata.SaveName
		doc.Timestamp = raw.SaveMetadata.Timestamp.Time
	}

	if len(raw.Player) == 0 || string(raw.Player) == "null" {
		return doc, nil
	}
	var player actor.Character
	if err := json.Unmarshal(raw.Player, &player); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if player.Class == "" {
		var legacy struct {
			Class string `json:"class"`
		}
		if err := json.Unmarshal(raw.Player, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		player.Class = actor.Class(legacy.Class)
	}
	doc.Player = &player
	return doc, nil
}

// validate normalizes what it can and rejects what it cannot.
func (d *SaveDocument) validate() error {
	p := d.Player
	if p == nil {
		return fmt.Errorf("%w: missing player", ErrCorruptData)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: player has no name", ErrCorruptData)
	}
	class, err := actor.ParseClass(string(p.Class))
	if err != nil {
		return fmt.Errorf("%w: player class %q", ErrCorruptData, p.Class)
	}
	p.Class = class
	p.Level = max(p.Level, 1)
	p.HitPoints = min(max(p.HitPoints, 0), p.MaxHitPoints())
	if p.Equipped.Accessories == nil {
		p.Equipped.Accessories = []*actor.Item{}
	}
	if p.CurrentLocation == "" {
		p.CurrentLocation = actor.StartingLocation
	}
	if !d.GameTime.Valid() {
		return fmt.Errorf("%w: game time %+v", ErrCorruptData, d.GameTime)
	}
	if len(d.SessionMemory) > PersistedHistoryLimit {
		d.SessionMemory = d.SessionMemory[len(d.SessionMemory)-PersistedHistoryLimit:]
	}
	return nil
}

// document snapshots the session. The history is copied.
func (s *Session) document(name string) *SaveDocument {
	return &SaveDocument{
		Version:             SaveVersion,
		SaveName:            name,
		Timestamp:           s.now(),
		Player:              s.player,
		NPCMemory:           s.npcs,
		GameTime:            s.clock,
		SessionMemory:       s.history.All(),
		DiscoveredLocations: append([]string(nil), s.discovered...),
	}
}

func (s *Session) requireStore() error {
	if s.store == nil {
		return ErrSavesUnavailable
	}
	return nil
}

// persist encodes the session and hands it to the store.
func (s *Session) persist(ctx context.Context, name string) (string, error) {
	if err := s.requireStore(); err != nil {
		return "", err
	}
	doc := s.document("")
	encode := func(final string) ([]byte, error) {
		doc.SaveName = final
		return doc.Encode()
	}
	saved, err := s.store.Save(ctx, name, encode, storage.SaveInfo{
		CharacterName: s.player.Name,
		SavedAt:       doc.Timestamp,
		Version:       SaveVersion,
	})
	if err != nil {
		s.logger.Error("Failed to save game", "name", name, "error", err)
		if errors.Is(err, storage.ErrInvalidSaveName) {
			return "", userError(err, "Invalid save name: %s", name)
		}
		return "", userError(err, "Failed to save game.")
	}
	s.logger.Info("Game saved", "name", saved)
	return saved, nil
}

func (s *Session) save(ctx context.Context, name string) (string, error) {
	saved, err := s.persist(ctx, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Game saved as '%s'.", saved), nil
}

// Save writes the game to the store and returns the name it was saved
// under. A failure leaves the session unchanged.
func (s *Session) Save(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePlayer(); err != nil {
		return "", err
	}
	return s.persist(ctx, name)
}

// readSave fetches and decodes a save without touching the session.
func (s *Session) readSave(ctx context.Context, name string) (*SaveDocument, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, userError(ErrMissingArgument, "Load what? Use: load <name> (see: saves)")
	}
	data, err := s.store.Load(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrSaveNotFound) {
			return nil, userError(err, "No save named '%s'.", name)
		}
		return nil, userError(err, "Failed to load '%s'.", name)
	}
	doc, err := DecodeSave(data, npc.WithClock(s.now))
	if err != nil {
		if errors.Is(err, ErrIncompatibleVersion) {
			return nil, userError(err, "Save '%s' was written by an incompatible version.", name)
		}
		return nil, userError(err, "Save '%s' is corrupt.", name)
	}
	if !s.world.Has(doc.Player.CurrentLocation) {
		return nil, userError(ErrCorruptData, "Save '%s' is corrupt: unknown location %s.", name, doc.Player.CurrentLocation)
	}
	loc, _ := s.world.Get(doc.Player.CurrentLocation)
	doc.Player.CurrentLocation = loc.Name
	return doc, nil
}

// restore swaps the session over to doc in one step.
func (s *Session) restore(doc *SaveDocument) {
	s.player = doc.Player
	s.npcs = doc.NPCMemory
	s.clock = doc.GameTime
	s.history = NewHistory(doc.SessionMemory...)
	s.discovered = doc.DiscoveredLocations
	if len(s.discovered) == 0 {
		s.discovered = []string{s.player.CurrentLocation}
	}
	s.endCombat()
	s.narrator.Purge()
}

func (s *Session) load(ctx context.Context, name string) ([]string, error) {
	doc, err := s.readSave(ctx, name)
	if err != nil {
		return nil, err
	}
	s.restore(doc)
	s.logger.Info("Game loaded", "name", name, "version", doc.Version)
	return []string{fmt.Sprintf("Game loaded from '%s'.", storage.SanitizeName(name)), s.look(ctx)}, nil
}

// Load replaces the session with a saved game. Nothing changes unless the
// save decodes and validates completely.
func (s *Session) Load(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readSave(ctx, name)
	if err != nil {
		return err
	}
	s.restore(doc)
	return nil
}

func (s *Session) listSaves(ctx context.Context) (string, error) {
	saves, err := s.ListSaves(ctx)
	if err != nil {
		return "", err
	}
	if len(saves) == 0 {
		return "No saved games found.", nil
	}
	var b strings.Builder
	b.WriteString("Saved games:")
	for _, sv := range saves {
		fmt.Fprintf(&b, "\n  - %s (%s, %s)", sv.Name, sv.CharacterName, sv.SavedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String(), nil
}

// ListSaves returns the stored saves, newest first. It does not take the
// session lock.
func (s *Session) ListSaves(ctx context.Context) ([]storage.SaveInfo, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	saves, err := s.store.List(ctx)
	if err != nil {
		return nil, userError(err, "Failed to list saves.")
	}
	return saves, nil
}

func (s *Session) deleteSave(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", userError(ErrMissingArgument, "Delete what? Use: delete <name>")
	}
	if err := s.DeleteSave(ctx, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted save '%s'.", storage.SanitizeName(name)), nil
}

// DeleteSave removes a stored save. It does not take the session lock.
func (s *Session) DeleteSave(ctx context.Context, name string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, name); err != nil {
		if errors.Is(err, storage.ErrSaveNotFound) {
			return userError(err, "No save named '%s'.", name)
		}
		return userError(err, "Failed to delete '%s'.", name)
	}
	s.logger.Info("Save deleted", "name", name)
	return nil
}
