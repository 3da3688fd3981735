// Package coordination implements the per-web coordination loop: signal
// processing and context accumulation, agent activation, need handling,
// the convergence/failure detector, and the loop itself (spec §4.3-§4.11).
package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/executor"
	"github.com/Pharbi/arachnid/factory"
	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/telemetry"
	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/validation"
)

// MaxIterations is the coordination loop's hard bound on a single Run call
// (spec §4.10). Exceeding it marks the web Failed.
const MaxIterations = 100

// PollInterval is the loop's inter-iteration sleep (spec §4.11).
const PollInterval = 10 * time.Millisecond

// Config tunes an Engine beyond its collaborators.
type Config struct {
	MaxIterations int
	PollInterval  time.Duration

	// ValidatePostExecution wires the validation service into the
	// post-execution hook using the §4.8 priority heuristic (the engine
	// resolves spec §9's validation-coupling Open Question by doing so
	// whenever a Service is supplied). Set false to keep validation a
	// purely external collaborator.
	ValidatePostExecution bool
}

// DefaultConfig returns the spec-mandated loop bounds.
func DefaultConfig() Config {
	return Config{MaxIterations: MaxIterations, PollInterval: PollInterval, ValidatePostExecution: true}
}

// Engine drives one or more webs' coordination loops over a shared store.
// A single Engine is safe to use concurrently across distinct webs: the
// only shared mutable state is the store itself (spec §5).
type Engine struct {
	store     storage.Store
	executor  *executor.AgentExecutor
	factory   *factory.AgentFactory
	embedding provider.EmbeddingProvider
	validator *validation.Service
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	tracer    telemetry.Tracer
	config    Config

	driftMu  sync.Mutex
	drift    map[types.AgentID]*lifecycle.TuningDriftTracker
	cyclicMu sync.Mutex
	cyclic   map[types.WebID]int

	challengeMu sync.Mutex
	challenges  map[types.AgentID]int
}

// New wires an Engine. validator may be nil to disable the post-execution
// validation hook regardless of Config.ValidatePostExecution. Any
// telemetry collaborator left nil is replaced with its no-op
// implementation.
func New(
	store storage.Store,
	exec *executor.AgentExecutor,
	fac *factory.AgentFactory,
	embedding provider.EmbeddingProvider,
	validator *validation.Service,
	logger telemetry.Logger,
	metrics telemetry.Metrics,
	tracer telemetry.Tracer,
	config Config,
) *Engine {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = MaxIterations
	}
	if config.PollInterval <= 0 {
		config.PollInterval = PollInterval
	}
	return &Engine{
		store:      store,
		executor:   exec,
		factory:    fac,
		embedding:  provider.NewFallbackEmbedding(embedding),
		validator:  validator,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		config:     config,
		drift:      make(map[types.AgentID]*lifecycle.TuningDriftTracker),
		cyclic:     make(map[types.WebID]int),
		challenges: make(map[types.AgentID]int),
	}
}

// CreateWeb seeds a new web with its root agent (instantiated from the
// built-in task-coordinator definition) and an initial downward signal
// carrying task, matching spec §8 scenario 3's "one seed downward signal".
func (e *Engine) CreateWeb(ctx context.Context, task string, webConfig types.WebConfig) (types.Web, error) {
	webID := types.NewWebID()
	def := e.factory.BuiltinTaskCoordinator()
	if err := e.store.CreateDefinition(ctx, def); err != nil {
		return types.Web{}, errs.New(errs.StorageError, "create_web", err)
	}

	root, err := e.factory.SpawnFromDefinition(ctx, def, nil, webID, webConfig, task)
	if err != nil {
		return types.Web{}, errs.New(errs.ProviderError, "create_web", err)
	}
	if err := e.store.CreateAgent(ctx, root); err != nil {
		return types.Web{}, errs.New(errs.StorageError, "create_web", err)
	}

	web := types.NewWeb(root.ID, task, webConfig)
	web.ID = webID
	if err := e.store.CreateWeb(ctx, web); err != nil {
		return types.Web{}, errs.New(errs.StorageError, "create_web", err)
	}

	seed := types.NewSignal(root.ID, root.Tuning, task, types.Downward)
	if err := e.store.CreateSignal(ctx, seed); err != nil {
		return types.Web{}, errs.New(errs.StorageError, "create_web", err)
	}

	e.metrics.IncCounter(telemetry.CounterAgentsSpawned, 1, "web", webID.String())
	e.logger.Info(ctx, "web created", "web_id", webID, "root_agent_id", root.ID)
	return web, nil
}

func (e *Engine) embedText(ctx context.Context, text string) ([]float32, error) {
	return e.embedding.Embed(ctx, text)
}

func (e *Engine) recordFailurePattern(ctx context.Context, webID types.WebID, kind types.FailurePatternType, data any) {
	pattern := types.FailurePattern{
		ID:          types.NewFailurePatternID(),
		WebID:       webID,
		PatternType: kind,
		PatternData: data,
		CreatedAt:   time.Now(),
	}
	if err := e.store.RecordFailurePattern(ctx, pattern); err != nil {
		e.logger.Warn(ctx, "record failure pattern failed", "web_id", webID, "pattern", kind, "err", err)
	}
}

func liveAgentCount(agents []types.Agent) int {
	count := 0
	for _, a := range agents {
		if !a.State.Terminal() {
			count++
		}
	}
	return count
}
