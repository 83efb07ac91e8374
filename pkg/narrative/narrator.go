package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultCacheSize = 128
)

// LocationKey identifies a rendered location description. Any change to the
// NPCs present or the exits produces a different key.
type LocationKey struct {
	Name        string
	Description string
	NPCs        string
	Exits       string
}

// DialogueKey identifies a rendered NPC greeting.
type DialogueKey struct {
	NPC         string
	Location    string
	Disposition string
}

func locationKey(req Request) LocationKey {
	return LocationKey{
		Name:        req.Location,
		Description: req.Description,
		NPCs:        sortedJoin(req.NPCs),
		Exits:       sortedJoin(req.Exits),
	}
}

func sortedJoin(items []string) string {
	s := slices.Clone(items)
	slices.Sort(s)
	return strings.Join(s, ",")
}

// Narrator wraps a Generator with a per-call timeout, fallback text and two
// bounded caches. Cache entries are memoization only; only successful
// generations are stored.
type Narrator struct {
	gen       Generator
	timeout   time.Duration
	filter    func(string) string
	logger    *slog.Logger
	locations *lru.Cache[LocationKey, string]
	dialogue  *lru.Cache[DialogueKey, string]
}

type Option func(*options)

type options struct {
	timeout   time.Duration
	cacheSize int
	filter    func(string) string
	logger    *slog.Logger
}

// WithTimeout bounds every generator call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCacheSize sets the capacity of each cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithTextFilter post-processes every generated text before it is cached.
func WithTextFilter(fn func(string) string) Option {
	return func(o *options) { o.filter = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewNarrator builds a Narrator. gen may be nil, in which case every call
// returns fallback text.
func NewNarrator(gen Generator, opts ...Option) (*Narrator, error) {
	o := options{timeout: DefaultTimeout, cacheSize: DefaultCacheSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	locations, err := lru.New[LocationKey, string](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create location cache: %w", err)
	}
	dialogue, err := lru.New[DialogueKey, string](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialogue cache: %w", err)
	}
	return &Narrator{
		gen:       gen,
		timeout:   o.timeout,
		filter:    o.filter,
		logger:    o.logger,
		locations: locations,
		dialogue:  dialogue,
	}, nil
}

// Available reports whether a generator is configured.
func (n *Narrator) Available() bool {
	return n.gen != nil
}

// Generate renders req without caching. The bool is false when fallback
// text was used.
func (n *Narrator) Generate(ctx context.Context, req Request) (string, bool) {
	if n.gen == nil {
		return Fallback(req), false
	}
	if err := req.Validate(); err != nil {
		n.logger.Warn("Invalid narrative request, using fallback", "kind", req.Kind, "error", err)
		return Fallback(req), false
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := n.gen.Generate(ctx, req)
	if err != nil {
		n.logger.Warn("Narrative generation failed, using fallback",
			"kind", req.Kind,
			"duration", time.Since(start),
			"error", err)
		return Fallback(req), false
	}
	if n.filter != nil {
		text = n.filter(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		n.logger.Warn("Narrative generation returned no text, using fallback", "kind", req.Kind)
		return Fallback(req), false
	}
	n.logger.Debug("Narrative generated", "kind", req.Kind, "duration", time.Since(start))
	return text, true
}

// DescribeLocation renders a location, reusing a cached description while
// the location's name, description, NPCs and exits are unchanged.
func (n *Narrator) DescribeLocation(ctx context.Context, req Request) (string, bool) {
	req.Kind = KindLocation
	k := locationKey(req)
	if text, ok := n.locations.Get(k); ok {
		return text, true
	}
	text, ok := n.Generate(ctx, req)
	if ok {
		n.locations.Add(k, text)
	}
	return text, ok
}

// Dialogue renders an NPC greeting, cached per NPC, location and disposition.
func (n *Narrator) Dialogue(ctx context.Context, req Request) (string, bool) {
	req.Kind = KindDialogue
	k := DialogueKey{NPC: strings.ToLower(req.NPC), Location: strings.ToLower(req.Location), Disposition: req.Disposition}
	if text, ok := n.dialogue.Get(k); ok {
		return text, true
	}
	text, ok := n.Generate(ctx, req)
	if ok {
		n.dialogue.Add(k, text)
	}
	return text, ok
}

// InvalidateLocation drops every cached description of a location.
func (n *Narrator) InvalidateLocation(name string) {
	for _, k := range n.locations.Keys() {
		if strings.EqualFold(k.Name, name) {
			n.locations.Remove(k)
		}
	}
}

// Purge empties both caches.
func (n *Narrator) Purge() {
	n.locations.Purge()
	n.dialogue.Purge()
}

// CacheLen reports the number of cached locations and dialogue lines.
func (n *Narrator) CacheLen() (locations, dialogue int) {
	return n.locations.Len(), n.dialogue.Len()
}
