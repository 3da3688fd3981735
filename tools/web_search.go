package tools

import (
	"context"

	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/types"
)

type webSearchTool struct {
	provider provider.SearchProvider
}

func (t *webSearchTool) Kind() types.ToolKind { return types.ToolWebSearch }
func (t *webSearchTool) Name() string         { return "web_search" }
func (t *webSearchTool) Description() string  { return "Search the internet for information." }

func (t *webSearchTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "The search query"},
			"count": map[string]any{"type": "integer", "description": "Number of results to return", "default": 5},
		},
		"required": []string{"query"},
	}
}

func (t *webSearchTool) Execute(ctx context.Context, params map[string]any, _ ToolContext) (types.ToolResult, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return failedResult(types.ToolWebSearch, "missing query parameter"), nil
	}
	count := 5
	if c, ok := params["count"].(float64); ok && c > 0 {
		count = int(c)
	}

	results, err := t.provider.Search(ctx, query, count)
	if err != nil {
		return failedResult(types.ToolWebSearch, err.Error()), nil
	}

	return types.ToolResult{
		Tool:    types.ToolWebSearch,
		Success: true,
		Output:  map[string]any{"results": results},
	}, nil
}

// unavailableTool stands in for a tool kind with no concrete
// implementation in this deployment (spec §1 scopes out concrete
// remote-execution/fetch tool bodies). Calling it always fails with
// provider.ErrProviderUnavailable so the executor maps it to a failed
// tool call rather than a crash.
type unavailableTool struct {
	kind        types.ToolKind
	name        string
	description string
}

func (t unavailableTool) Kind() types.ToolKind             { return t.kind }
func (t unavailableTool) Name() string                     { return t.name }
func (t unavailableTool) Description() string              { return t.description }
func (t unavailableTool) ParametersSchema() map[string]any { return map[string]any{"type": "object"} }

func (t unavailableTool) Execute(context.Context, map[string]any, ToolContext) (types.ToolResult, error) {
	return types.ToolResult{}, provider.ErrProviderUnavailable
}
