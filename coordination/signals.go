package coordination

import (
	"context"

	"github.com/Pharbi/arachnid/propagation"
	"github.com/Pharbi/arachnid/telemetry"
	"github.com/Pharbi/arachnid/types"
)

// processSignal runs one pending signal through context accumulation and
// propagation, then marks it processed regardless of partial failure
// (spec §4.3: "failures... do not roll back the processed marker").
func (e *Engine) processSignal(ctx context.Context, web types.Web, signal types.Signal) {
	ctx, span := e.tracer.Start(ctx, telemetry.SpanSignalProcess)
	defer span.End()

	origin, err := e.store.GetAgent(ctx, signal.Origin)
	if err != nil {
		e.logger.Warn(ctx, "signal origin missing, dropping", "signal_id", signal.ID, "err", err)
		e.markProcessed(ctx, signal.ID)
		return
	}

	if signal.Direction == types.Upward && origin.ParentID != nil {
		e.appendContext(ctx, *origin.ParentID, signal, origin.ID)
	}

	results, err := propagation.Propagate(ctx, e.store, signal, web.Config)
	if err != nil {
		span.RecordError(err)
		e.logger.Warn(ctx, "propagation failed", "signal_id", signal.ID, "err", err)
		e.markProcessed(ctx, signal.ID)
		return
	}

	for _, result := range results {
		if !result.Resonance.Activated {
			continue
		}
		if err := e.activate(ctx, web, result.AgentID, signal.Content, signal.Frequency); err != nil {
			e.logger.Warn(ctx, "activation failed", "agent_id", result.AgentID, "signal_id", signal.ID, "err", err)
		}
	}

	e.markProcessed(ctx, signal.ID)
	e.metrics.IncCounter(telemetry.CounterSignalsProcessed, 1, "web", web.ID.String())
}

func (e *Engine) markProcessed(ctx context.Context, signalID types.SignalID) {
	if err := e.store.MarkSignalProcessed(ctx, signalID); err != nil {
		e.logger.Warn(ctx, "mark signal processed failed", "signal_id", signalID, "err", err)
	}
}

// appendContext adds a ContextItem to parentID's accumulated knowledge,
// evicting the oldest entry past the 10-item cap (spec §4.3 step 2).
func (e *Engine) appendContext(ctx context.Context, parentID types.AgentID, signal types.Signal, source types.AgentID) {
	parent, err := e.store.GetAgent(ctx, parentID)
	if err != nil {
		e.logger.Warn(ctx, "context accumulation: parent missing", "parent_id", parentID, "err", err)
		return
	}
	parent.Context.AppendKnowledge(types.ContextItem{
		SourceAgent: source,
		Content:     signal.Content,
		Data:        signal.Payload,
	})
	if err := e.store.UpdateAgent(ctx, parent); err != nil {
		e.logger.Warn(ctx, "context accumulation: update parent failed", "parent_id", parentID, "err", err)
	}
}
