package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/text-rpg/internal/config"
	"github.com/jwebster45206/text-rpg/internal/services"
	"github.com/jwebster45206/text-rpg/internal/services/events"
	"github.com/jwebster45206/text-rpg/internal/storage"
	"github.com/jwebster45206/text-rpg/pkg/narrative"
	"github.com/jwebster45206/text-rpg/pkg/npc"
	"github.com/jwebster45206/text-rpg/pkg/rules"
	savestore "github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/jwebster45206/text-rpg/pkg/textfilter"
	"github.com/jwebster45206/text-rpg/pkg/world"
)

const connectTimeout = 30 * time.Second

// Setup builds a Manager from configuration: world and rules, the save
// backend, the event broadcaster (whenever REDIS_URL is set) and the
// narrative provider. The returned func releases every connection.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Manager, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Error during shutdown", "error", err)
			}
		}
	}
	fail := func(err error) (*Manager, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	graph := world.DefaultGraph()
	if cfg.WorldFile != "" {
		g, err := world.LoadGraph(cfg.WorldFile)
		if err != nil {
			return fail(err)
		}
		graph = g
		logger.Info("Loaded world", "file", cfg.WorldFile, "locations", len(g.Names()))
	}
	gameRules := rules.Load(cfg.RulesDir, logger)

	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		rs, err := services.NewRedisService(cfg.RedisURL, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, rs.Close)
		waitCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err = rs.WaitForConnection(waitCtx)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		redisService = rs
	}

	var store savestore.SaveStore
	switch cfg.SaveBackend {
	case config.BackendRedis:
		if redisService == nil {
			return fail(fmt.Errorf("REDIS_URL is required for the redis backend"))
		}
		store = storage.NewRedisStore(redisService.GetClient(), logger)
	case config.BackendPostgres:
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		pg, err := storage.NewPostgresStore(connCtx, cfg.DatabaseURL, logger)
		cancel()
		if err != nil {
			return fail(err)
		}
		store = pg
	default:
		fs, err := storage.NewFileStore(cfg.SaveDir, logger)
		if err != nil {
			return fail(err)
		}
		store = fs
	}
	closers = append(closers, store.Close)

	var broadcaster *events.Broadcaster
	if redisService != nil {
		broadcaster = events.NewBroadcaster(redisService.GetClient(), logger)
	}

	llm, err := services.NewLLMService(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	var gen narrative.Generator
	if llm != nil {
		if err := llm.InitModel(ctx, cfg.ModelName); err != nil {
			return fail(fmt.Errorf("failed to initialize LLM model: %w", err))
		}
		if g, ok := llm.(*services.GeminiService); ok {
			closers = append(closers, g.Close)
		}
		gen = services.NewGenerator(llm)
	}

	logger.Info("Session manager ready",
		"save_backend", cfg.SaveBackend,
		"llm_provider", cfg.LLMProvider,
		"events", broadcaster.Enabled(),
		"npc_discovery", cfg.NPCDiscovery)

	return NewManager(Deps{
		World:     graph,
		Rules:     &gameRules,
		Store:     store,
		Generator: gen,
		Narration: []narrative.Option{
			narrative.WithTimeout(cfg.NarrativeTimeout),
			narrative.WithCacheSize(cfg.NarrativeCacheSize),
			narrative.WithTextFilter(textfilter.ForRating(cfg.ContentRating)),
		},
		Discoverer: npc.NewDiscoverer(cfg.NPCDiscovery),
		Events:     broadcaster,
		Provider:   cfg.LLMProvider,
		Logger:     logger,
	}), cleanup, nil
}
