package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/adaptive"
	"github.com/abhisek/edurag/internal/cache"
	"github.com/abhisek/edurag/internal/config"
	"github.com/abhisek/edurag/internal/explain"
	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/llm"
	"github.com/abhisek/edurag/internal/logging"
	"github.com/abhisek/edurag/internal/metrics"
	"github.com/abhisek/edurag/internal/quiz"
	"github.com/abhisek/edurag/internal/store"
)

// runtime holds the wired components shared by the subcommands.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.Store
	metrics   *metrics.Metrics
	provider  llm.Provider // nil when generation is unavailable
	cache     *cache.Redis // nil when redis is not configured
	retriever *index.Retriever
	explainer *explain.Service
	generator *adaptive.Service
	bank      quiz.Bank
}

// newRuntime loads config, opens the store and builds every component. A
// missing or failing generation provider or cache is logged and skipped.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		metrics: metrics.New(),
		bank:    quiz.Bank{Dir: cfg.Paths.Data},
	}

	if lc, ok := cfg.LLMConfig(); ok {
		p, err := llm.NewProvider(ctx, lc, llm.Deps{
			Events:   st.EventRepo(),
			Logger:   logger,
			Observer: rt.metrics,
		})
		if err != nil {
			logger.Warn("generation provider unavailable", zap.Error(err))
		} else {
			rt.provider = p
		}
	} else {
		logger.Debug("no generation provider configured")
	}

	rt.cache = openCache(ctx, cfg, logger)

	rt.retriever = index.NewRetriever(cfg.Paths.Index,
		index.WithLogger(logger),
		index.WithMinScore(cfg.Retrieval.MinScore),
		index.WithObserver(rt.metrics))

	explainOpts := []explain.ServiceOption{explain.WithTopK(cfg.Retrieval.TopK)}
	if rt.cache != nil {
		explainOpts = append(explainOpts, explain.WithCache(rt.cache))
	}
	rt.explainer = explain.NewService(rt.retriever, explain.NewComposer(rt.provider, logger), logger, explainOpts...)

	rt.generator = adaptive.NewService(rt.drafter(), rt.bank,
		adaptive.WithLogger(logger),
		adaptive.WithLanguage(cfg.Quiz.Language))

	return rt, nil
}

// openCache connects to redis when an address is configured.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) *cache.Redis {
	if cfg.Redis.Addr == "" {
		return nil
	}
	c, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, logger)
	if err != nil {
		logger.Warn("explanation cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return nil
	}
	return c
}

// drafter returns nil when generation is unavailable.
func (rt *runtime) drafter() adaptive.Drafter {
	if rt.provider == nil {
		return nil
	}
	return adaptive.NewLLMDrafter(rt.provider, rt.logger)
}

func (rt *runtime) Close() {
	if rt.cache != nil {
		rt.cache.Close()
	}
	rt.store.Close()
	_ = rt.logger.Sync()
}
