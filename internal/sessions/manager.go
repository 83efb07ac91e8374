// Package sessions keeps many independent games alive behind one server.
package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/text-rpg/internal/services/events"
	"github.com/jwebster45206/text-rpg/pkg/gameerr"
	"github.com/jwebster45206/text-rpg/pkg/narrative"
	"github.com/jwebster45206/text-rpg/pkg/npc"
	"github.com/jwebster45206/text-rpg/pkg/rules"
	"github.com/jwebster45206/text-rpg/pkg/state"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/world"
)

var ErrSessionNotFound = gameerr.New(gameerr.KindNotFound, "session not found")

// Deps are shared by every session the manager creates. Each session gets
// its own world copy, NPC memory and narrator.
type Deps struct {
	World      *world.Graph
	Rules      *rules.Rules
	Store      storage.SaveStore
	Generator  narrative.Generator // nil means fallback text only
	Narration  []narrative.Option
	Discoverer *npc.Discoverer
	Events     *events.Broadcaster
	Provider   string
	Logger     *slog.Logger
}

// Info summarizes a live session.
type Info struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

type entry struct {
	session    *state.Session
	createdAt  time.Time
	lastActive time.Time
}

// Manager owns the live sessions, keyed by id.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{
		deps:     deps,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Store returns the save store shared by all sessions, or nil.
func (m *Manager) Store() storage.SaveStore {
	return m.deps.Store
}

// Provider names the narrative provider in use.
func (m *Manager) Provider() string {
	if m.deps.Generator == nil {
		return "none"
	}
	return m.deps.Provider
}

// Events returns the broadcaster, which may be disabled.
func (m *Manager) Events() *events.Broadcaster {
	return m.deps.Events
}

// Create starts a new session without a character.
func (m *Manager) Create() (*state.Session, error) {
	id := uuid.New()
	logger := m.deps.Logger.With("session_id", id.String())

	opts := append([]narrative.Option{narrative.WithLogger(logger)}, m.deps.Narration...)
	narrator, err := narrative.NewNarrator(m.deps.Generator, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrator: %w", err)
	}

	s, err := state.NewSession(state.Options{
		ID:         id,
		World:      m.deps.World,
		Rules:      m.deps.Rules,
		Narrator:   narrator,
		Store:      m.deps.Store,
		Discoverer: m.deps.Discoverer,
		Logger:     m.deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	now := time.Now()
	m.mu.Lock()
	m.sessions[id] = &entry{session: s, createdAt: now, lastActive: now}
	m.mu.Unlock()

	logger.Info("Session created")
	return s, nil
}

// Get returns the session with id or ErrSessionNotFound.
func (m *Manager) Get(id uuid.UUID) (*state.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e.session, nil
}

// Delete ends a session. Its saves are kept.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.deps.Logger.Info("Session deleted", "session_id", id.String())
	return nil
}

// List returns every live session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for id, e := range m.sessions {
		out = append(out, Info{ID: id, CreatedAt: e.createdAt, LastActive: e.lastActive})
	}
	sortInfos(out)
	return out
}

func sortInfos(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune removes sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.deps.Logger.Info("Pruned idle sessions", "count", removed)
	}
	return removed
}

func (m *Manager) touch(id uuid.UUID) {
	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastActive = time.Now()
	}
	m.mu.Unlock()
}

// Run processes one command on a session and broadcasts the result.
// Broadcast failures are logged, never returned.
func (m *Manager) Run(ctx context.Context, id uuid.UUID, command, requestID string) (state.Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return state.Result{}, err
	}
	m.touch(id)

	res := s.Process(ctx, command)
	m.publish(ctx, s, command, requestID, res)
	return res, nil
}

func (m *Manager) publish(ctx context.Context, s *state.Session, command, requestID string, res state.Result) {
	b := m.deps.Events
	if !b.Enabled() {
		return
	}
	log := m.deps.Logger.With("session_id", s.ID.String(), "request_id", requestID)

	for i, chunk := range res.Chunks {
		if err := b.PublishCommandChunk(ctx, s.ID, requestID, i, chunk); err != nil {
			log.Warn("Failed to publish chunk", "error", err)
			return
		}
	}
	if err := b.PublishCommandCompleted(ctx, s.ID, requestID, command, res.Text(), res.Quit); err != nil {
		log.Warn("Failed to publish completion", "error", err)
	}
	st := s.Status()
	if err := b.PublishSessionStateUpdated(ctx, s.ID, st.Location, st.GameTime, st.InCombat); err != nil {
		log.Warn("Failed to publish state", "error", err)
	}
}
