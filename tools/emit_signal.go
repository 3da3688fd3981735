package tools

import (
	"context"
	"fmt"

	"github.com/Pharbi/arachnid/types"
)

type emitSignalTool struct{}

func (t *emitSignalTool) Kind() types.ToolKind { return types.ToolEmitSignal }
func (t *emitSignalTool) Name() string         { return "emit_signal" }
func (t *emitSignalTool) Description() string {
	return "Emit a signal to communicate results or progress to other agents. Signals propagate up to parents (results) or down to children (needs)."
}

func (t *emitSignalTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{"type": "string", "description": "The signal content/message"},
			"direction": map[string]any{
				"type": "string", "enum": []string{"upward", "downward"},
				"description": "Signal direction: 'upward' for results to parents, 'downward' for needs to children",
				"default":     "upward",
			},
			"payload": map[string]any{"type": "object", "description": "Optional structured data payload", "additionalProperties": true},
		},
		"required": []string{"content"},
	}
}

// Execute validates the requested direction and returns a drafted signal
// in its output; emission of an actual types.Signal (with origin,
// amplitude, hop count) is the caller's responsibility — the tool
// runtime has no access to the agent's tuning vector needed to
// materialize one.
func (t *emitSignalTool) Execute(_ context.Context, params map[string]any, _ ToolContext) (types.ToolResult, error) {
	content, _ := params["content"].(string)
	if content == "" {
		return failedResult(types.ToolEmitSignal, "missing content parameter"), nil
	}

	directionStr, _ := params["direction"].(string)
	if directionStr == "" {
		directionStr = "upward"
	}
	var direction types.SignalDirection
	switch directionStr {
	case "upward":
		direction = types.Upward
	case "downward":
		direction = types.Downward
	default:
		return failedResult(types.ToolEmitSignal, fmt.Sprintf("invalid direction: %s", directionStr)), nil
	}

	return types.ToolResult{
		Tool:    types.ToolEmitSignal,
		Success: true,
		Output: map[string]any{
			"content":   content,
			"direction": direction,
			"payload":   params["payload"],
		},
	}, nil
}
