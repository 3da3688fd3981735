// Package tools implements the sandboxed tool runtime agents call into
// from the executor's bounded tool-call loop (spec §4.7).
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/types"
)

// ToolContext identifies the calling agent and its web for a single tool
// invocation. The file-system tools do not read SandboxPath: they confine
// paths to RuntimeConfig.SandboxRoot and refuse any path that resolves
// outside it.
type ToolContext struct {
	AgentID     types.AgentID
	WebID       types.WebID
	SandboxPath string
}

// Tool is one callable capability an agent definition may grant.
type Tool interface {
	Kind() types.ToolKind
	Name() string
	Description() string
	ParametersSchema() map[string]any
	Execute(ctx context.Context, params map[string]any, tc ToolContext) (types.ToolResult, error)
}

// Schema is the JSON-shaped tool description surfaced to the model
// provider alongside a completion request.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Runtime holds the tools available in one process and dispatches calls
// by ToolKind.
type Runtime struct {
	tools   map[types.ToolKind]Tool
	schemas map[types.ToolKind]*jsonschema.Schema
}

// RuntimeConfig configures which tools a Runtime registers.
type RuntimeConfig struct {
	// SandboxRoot is the filesystem root ReadFile/WriteFile/SearchCodebase
	// are confined to.
	SandboxRoot string
	// SearchProvider backs the WebSearch tool when non-nil; WebSearch is
	// otherwise registered as an unavailable stub.
	SearchProvider provider.SearchProvider
}

// NewRuntime registers the real sandboxed tools (ReadFile, WriteFile,
// SearchCodebase, EmitSignal) plus WebSearch when a search provider is
// configured, and unavailable stubs for every remaining tool kind
// (FetchUrl, ExecuteCode, SpawnAgent, QueryDatabase) — concrete
// implementations of those are explicitly out of core scope (spec §1).
func NewRuntime(cfg RuntimeConfig) *Runtime {
	r := &Runtime{
		tools:   make(map[types.ToolKind]Tool),
		schemas: make(map[types.ToolKind]*jsonschema.Schema),
	}

	r.register(&readFileTool{sandboxRoot: cfg.SandboxRoot})
	r.register(&writeFileTool{sandboxRoot: cfg.SandboxRoot})
	r.register(&searchCodebaseTool{sandboxRoot: cfg.SandboxRoot})
	r.register(&emitSignalTool{})

	if cfg.SearchProvider != nil {
		r.register(&webSearchTool{provider: cfg.SearchProvider})
	} else {
		r.register(unavailableTool{
			kind: types.ToolWebSearch, name: "web_search",
			description: "Search the internet for information. Not configured in this deployment.",
		})
	}

	for _, stub := range []unavailableTool{
		{kind: types.ToolFetchURL, name: "fetch_url", description: "Retrieve contents of a web page."},
		{kind: types.ToolExecuteCode, name: "execute_code", description: "Run code in a sandboxed environment."},
		{kind: types.ToolSpawnAgent, name: "spawn_agent", description: "Create a child agent for a subtask."},
		{kind: types.ToolQueryDatabase, name: "query_database", description: "Execute read-only SQL queries."},
	} {
		r.register(stub)
	}

	return r
}

// register compiles t's parameters schema once at startup so Execute never
// pays compilation cost per call; a tool whose own schema fails to compile
// is still registered but dispatches unvalidated (its Execute method is the
// final arbiter either way).
func (r *Runtime) register(t Tool) {
	r.tools[t.Kind()] = t
	if schema, err := compileParametersSchema(t.Kind(), t.ParametersSchema()); err == nil {
		r.schemas[t.Kind()] = schema
	}
}

func compileParametersSchema(kind types.ToolKind, raw map[string]any) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	resource := string(kind) + ".json"
	if err := c.AddResource(resource, raw); err != nil {
		return nil, fmt.Errorf("tools: add schema resource for %q: %w", kind, err)
	}
	return c.Compile(resource)
}

// Schemas returns the tool schemas for the given allowed kinds, in the
// order given. Kinds with no registered tool are silently skipped.
func (r *Runtime) Schemas(allowed []types.ToolKind) []Schema {
	out := make([]Schema, 0, len(allowed))
	for _, k := range allowed {
		t, ok := r.tools[k]
		if !ok {
			continue
		}
		out = append(out, Schema{Name: t.Name(), Description: t.Description(), Parameters: t.ParametersSchema()})
	}
	return out
}

// Execute dispatches one tool call, refusing kinds not present in
// allowed even if a tool happens to be registered for them.
func (r *Runtime) Execute(ctx context.Context, call types.ToolCall, allowed []types.ToolKind, tc ToolContext) (types.ToolResult, error) {
	if !toolAllowed(call.Tool, allowed) {
		return types.ToolResult{}, fmt.Errorf("tools: %q is not granted to this agent", call.Tool)
	}
	t, ok := r.tools[call.Tool]
	if !ok {
		return types.ToolResult{}, fmt.Errorf("tools: unknown tool %q", call.Tool)
	}
	params, _ := call.Params.(map[string]any)
	if schema, ok := r.schemas[call.Tool]; ok {
		if err := schema.Validate(toValidatable(params)); err != nil {
			return failedResult(call.Tool, fmt.Sprintf("params do not match schema: %s", err)), nil
		}
	}
	result, err := t.Execute(ctx, params, tc)
	if errors.Is(err, provider.ErrProviderUnavailable) {
		return failedResult(call.Tool, err.Error()), nil
	}
	return result, err
}

// toValidatable turns a possibly-nil params map into the instance shape
// jsonschema.Schema.Validate expects (the same shape json.Unmarshal
// produces into an any): a nil map becomes an empty object rather than
// a Go nil, so a schema requiring an object type doesn't misreport it as
// "null".
func toValidatable(params map[string]any) any {
	if params == nil {
		return map[string]any{}
	}
	return params
}

func toolAllowed(k types.ToolKind, allowed []types.ToolKind) bool {
	for _, a := range allowed {
		if a == k {
			return true
		}
	}
	return false
}
