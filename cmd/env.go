package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/scopelens/intel-cli/internal/enrich"
	"github.com/scopelens/intel-cli/internal/pipeline"
	"github.com/scopelens/intel-cli/internal/store"
	"github.com/scopelens/intel-cli/pkg/apify"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "intel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEnricher() (enrich.Client, error) {
	switch cfg.Enrich.Driver {
	case "anthropic":
		if cfg.Enrich.AnthropicKey == "" {
			return nil, eris.New("anthropic key is required (SCOPELENS_ENRICH_ANTHROPIC_KEY)")
		}
		return enrich.NewAnthropic(cfg.Enrich.AnthropicKey, cfg.Enrich.AnthropicModel), nil
	case "openai":
		if cfg.Enrich.OpenAIKey == "" {
			return nil, eris.New("openai key is required (SCOPELENS_ENRICH_OPENAI_KEY)")
		}
		return enrich.NewOpenAI(cfg.Enrich.OpenAIKey, cfg.Enrich.OpenAIModel), nil
	default:
		return nil, eris.Errorf("unsupported enrich driver: %s", cfg.Enrich.Driver)
	}
}

// env bundles the store and orchestrator shared by the crawl-facing commands.
type env struct {
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
}

func (e *env) Close() {
	_ = e.Store.Close()
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	enricher, err := initEnricher()
	if err != nil {
		st.Close()
		return nil, err
	}

	if cfg.Apify.Token == "" {
		st.Close()
		return nil, eris.New("apify token is required (SCOPELENS_APIFY_TOKEN)")
	}
	provider := apify.NewClient(cfg.Apify.Token,
		apify.WithBaseURL(cfg.Apify.BaseURL),
		apify.WithActor(cfg.Apify.Actor),
		apify.WithRateLimit(cfg.Apify.RateLimit, 1),
	)

	orch := pipeline.New(st, provider, enricher, pipeline.Config{
		Workers:             cfg.Pipeline.Workers,
		RunTimeout:          cfg.Pipeline.RunTimeout(),
		EnrichTimeout:       cfg.Pipeline.EnrichTimeout(),
		FetchMaxAttempts:    cfg.Pipeline.FetchMaxAttempts,
		EnrichMaxAttempts:   cfg.Pipeline.EnrichMaxAttempts,
		ConfidenceThreshold: cfg.Enrich.ConfidenceThreshold,
		FetchLimit:          cfg.Apify.FetchLimit,
	})

	return &env{Store: st, Orchestrator: orch}, nil
}
