package main

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/coordination"
	"github.com/Pharbi/arachnid/executor"
	"github.com/Pharbi/arachnid/factory"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/provider/anthropic"
	"github.com/Pharbi/arachnid/provider/bedrock"
	"github.com/Pharbi/arachnid/provider/openai"
	"github.com/Pharbi/arachnid/provider/search"
	"github.com/Pharbi/arachnid/storage/pgstore"
	"github.com/Pharbi/arachnid/telemetry"
	"github.com/Pharbi/arachnid/tools"
	"github.com/Pharbi/arachnid/validation"
)

// deps bundles every collaborator a subcommand might need, wired once
// from config.Config so serve/run/status/web/agent share the exact same
// construction path.
type deps struct {
	store          *pgstore.Store
	engine         *coordination.Engine
	metrics        *telemetry.PrometheusMetrics
	metricsHandler http.Handler
	logger         telemetry.Logger
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, func(), error) {
	store, err := pgstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect store: %w", err)
	}
	closeFn := func() { store.Close() }

	llm, err := buildLLM(ctx, cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if cfg.LLMRateLimitTPM > 0 {
		llm = provider.NewRateLimitedLLM(llm, float64(cfg.LLMRateLimitTPM), float64(cfg.LLMRateLimitMaxTPM))
	}
	embedding, err := buildEmbedding(cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	var searchProvider provider.SearchProvider
	if cfg.BraveAPIKey != "" {
		searchProvider, err = search.New(cfg.BraveAPIKey, nil)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("construct brave search provider: %w", err)
		}
	}

	runtime := tools.NewRuntime(tools.RuntimeConfig{SandboxRoot: "/var/lib/arachnid/sandbox", SearchProvider: searchProvider})
	exec := executor.NewAgentExecutor(store, llm, runtime, executor.DefaultExecutorConfig())
	fac := factory.NewAgentFactory(store, llm, embedding, factory.DefaultFactoryConfig())

	budget, err := buildBudgetTracker(cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	validator := validation.NewService(llm, budget, validation.DefaultConfig())

	metrics, metricsHandler := telemetry.NewPrometheusMetrics()
	logger := telemetry.NewClueLogger()
	tracer := telemetry.NewClueTracer()

	engCfg := coordination.DefaultConfig()
	engCfg.MaxIterations = cfg.MaxIterations
	engCfg.PollInterval = cfg.PollInterval
	eng := coordination.New(store, exec, fac, embedding, validator, logger, metrics, tracer, engCfg)

	d := &deps{store: store, engine: eng, metrics: metrics, metricsHandler: metricsHandler, logger: logger}
	return d, closeFn, nil
}

func buildLLM(ctx context.Context, cfg config.Config) (provider.LLMProvider, error) {
	if cfg.AnthropicAPIKey != "" {
		return anthropic.NewFromAPIKey(cfg.AnthropicAPIKey, anthropic.Options{})
	}
	if cfg.BedrockModelID != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config for bedrock: %w", err)
		}
		return bedrock.New(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{ModelID: cfg.BedrockModelID})
	}
	return nil, fmt.Errorf("no completion provider configured: set ANTHROPIC_API_KEY or ARACHNID_BEDROCK_MODEL_ID")
}

func buildEmbedding(cfg config.Config) (provider.EmbeddingProvider, error) {
	if cfg.OpenAIAPIKey != "" {
		return openai.NewFromAPIKey(cfg.OpenAIAPIKey, openai.Options{})
	}
	return nil, fmt.Errorf("no embedding provider configured: set OPENAI_API_KEY")
}

func buildBudgetTracker(cfg config.Config) (validation.BudgetTracker, error) {
	if cfg.RedisURL == "" {
		return validation.NewMemoryBudgetTracker(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL, Password: cfg.RedisPassword})
	return validation.NewRedisBudgetTracker(rdb), nil
}
