package coordination

import (
	"context"
	"time"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/telemetry"
	"github.com/Pharbi/arachnid/types"
)

// Run drives webID's coordination loop until it converges, fails, or ctx
// is cancelled (spec §4.11). A per-task overall timeout is the caller's
// responsibility: wrap ctx with context.WithTimeout before calling Run.
// An external caller flipping the web's state to Failed (via UpdateWeb)
// is observed and honored at the next iteration boundary.
func (e *Engine) Run(ctx context.Context, webID types.WebID) error {
	for iteration := 0; ; iteration++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		web, err := e.store.GetWeb(ctx, webID)
		if err != nil {
			return errs.New(errs.NotFound, "run", err)
		}
		if web.State != types.WebRunning {
			return nil
		}

		state, terminal, err := e.terminalState(ctx, web, iteration)
		if err != nil {
			return errs.New(errs.StorageError, "run", err)
		}
		if terminal {
			web.State = state
			if err := e.store.UpdateWeb(ctx, web); err != nil {
				return errs.New(errs.StorageError, "run", err)
			}
			e.logger.Info(ctx, "web reached terminal state", "web_id", web.ID, "state", state, "iteration", iteration)
			return nil
		}

		iterCtx, span := e.tracer.Start(ctx, telemetry.SpanIteration)
		e.sweepIdleAgents(iterCtx, web)

		pending, err := e.store.GetPendingSignals(iterCtx, webID)
		if err != nil {
			span.End()
			return errs.New(errs.StorageError, "run", err)
		}
		for _, signal := range pending {
			e.processSignal(iterCtx, web, signal)
		}
		span.End()

		e.metrics.RecordGauge(telemetry.GaugeWebIteration, float64(iteration), "web", webID.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.config.PollInterval):
		}
	}
}
