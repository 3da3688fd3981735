// Package executor runs one agent activation: it assembles a prompt from
// the agent's definition and accumulated context, drives a bounded
// tool-call loop against a model provider, and parses the final response
// into signals, needs, and a completion status (spec §4.7).
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Pharbi/arachnid/capability"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/tools"
	"github.com/Pharbi/arachnid/types"
)

// DefaultMaxToolCalls bounds the tool-call loop (spec §4.7).
const DefaultMaxToolCalls = 10

const (
	emitSignalPrefix = "EMIT_SIGNAL:"
	needMarkerPrefix = "NEED:"
	toolCallPrefix   = "TOOL_CALL:"
	needsMoreMarker  = "NEEDS_MORE"
	failedMarker     = "FAILED"
)

// ExecutorConfig tunes the bounded tool-call loop.
type ExecutorConfig struct {
	MaxToolCalls int
}

// DefaultExecutorConfig returns the spec-mandated default.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{MaxToolCalls: DefaultMaxToolCalls}
}

// AgentExecutor resolves an agent's definition, assembles its prompt, and
// drives its tool-call loop against a model provider.
type AgentExecutor struct {
	store   storage.Store
	llm     provider.LLMProvider
	runtime *tools.Runtime
	config  ExecutorConfig
}

// NewAgentExecutor wires an executor over the given store, provider, tool
// runtime, and config. llm is wrapped with provider.NewFallbackLLM so a
// nil provider (no completion model configured) fails each Complete call
// with provider.ErrProviderUnavailable instead of panicking, letting an
// activation finish as a graceful StatusFailed result (spec §8 scenario
// 3, spec §9 "Provider optionality").
func NewAgentExecutor(store storage.Store, llm provider.LLMProvider, runtime *tools.Runtime, config ExecutorConfig) *AgentExecutor {
	return &AgentExecutor{store: store, llm: provider.NewFallbackLLM(llm), runtime: runtime, config: config}
}

// resolvedDefinition is the subset of an AgentDefinition the executor
// needs, whether sourced from storage or synthesized as a fallback.
type resolvedDefinition struct {
	systemPrompt string
	tools        []types.ToolKind
}

// Execute runs one full activation of agent, with trigger holding the
// content of the signal that activated it (empty for an unsolicited
// activation).
func (e *AgentExecutor) Execute(ctx context.Context, agent types.Agent, trigger string) (types.ExecutionResult, error) {
	def, err := e.resolveDefinition(ctx, agent)
	if err != nil {
		return types.ExecutionResult{}, fmt.Errorf("executor: resolve definition: %w", err)
	}

	messages := []provider.Message{
		provider.System(e.buildSystemPrompt(def)),
		provider.User(e.buildUserPrompt(agent, trigger)),
	}

	toolResults, finalResponse, err := e.runToolCallLoop(ctx, agent, def, messages)
	if err != nil {
		return types.ExecutionResult{}, err
	}

	return e.parseFinalResponse(agent, finalResponse, toolResults), nil
}

// resolveDefinition loads the agent's stored definition, or synthesizes a
// fallback scaffolded from its capability when it has none (spec §4.7;
// the capability-specific scaffold is a supplement over the bare
// single-tool fallback spec.md itself describes).
func (e *AgentExecutor) resolveDefinition(ctx context.Context, agent types.Agent) (resolvedDefinition, error) {
	if agent.DefinitionID != nil {
		def, err := e.store.GetDefinition(ctx, *agent.DefinitionID)
		if err == nil {
			return resolvedDefinition{systemPrompt: def.SystemPrompt, tools: def.Tools}, nil
		}
	}
	return resolvedDefinition{
		systemPrompt: capability.DefaultSystemPrompt(agent.Capability),
		tools:        capability.DefaultTools(agent.Capability),
	}, nil
}

func (e *AgentExecutor) buildSystemPrompt(def resolvedDefinition) string {
	var b strings.Builder
	b.WriteString(def.systemPrompt)
	b.WriteString("\n\nAvailable tools:\n")
	for _, schema := range e.runtime.Schemas(def.tools) {
		fmt.Fprintf(&b, "- %s: %s\n", schema.Name, schema.Description)
	}
	b.WriteString("\nTo call a tool, emit a line of the form:\n")
	b.WriteString(`TOOL_CALL: {"tool": "<name>", "params": {...}}` + "\n")
	b.WriteString("When you are done, emit zero or more lines of the form:\n")
	b.WriteString(`EMIT_SIGNAL: {"content": "...", "direction": "upward"|"downward", "payload": {...}}` + "\n")
	b.WriteString("If the task requires a capability you don't have, emit a line of the form:\n")
	b.WriteString(`NEED: {"description": "...", "suggested_capability": "search"|"synthesizer"|"code_writer"|"code_reviewer"|"analyst"}` + "\n")
	b.WriteString("Then finish with exactly one of NEEDS_MORE or FAILED if applicable; otherwise the work is considered complete.\n")
	return b.String()
}

func (e *AgentExecutor) buildUserPrompt(agent types.Agent, trigger string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purpose: %s\n", agent.Purpose)
	if len(agent.Context.AccumulatedKnowledge) > 0 {
		b.WriteString("\nAccumulated knowledge from child agents:\n")
		for _, item := range agent.Context.AccumulatedKnowledge {
			fmt.Fprintf(&b, "- %s\n", item.Content)
		}
	}
	if trigger != "" {
		fmt.Fprintf(&b, "\nTriggering signal: %s\n", trigger)
	}
	return b.String()
}

// runToolCallLoop asks the provider for a completion, executes any
// TOOL_CALL lines it contains, and feeds the results back until the model
// stops requesting tools or the call budget is exhausted.
func (e *AgentExecutor) runToolCallLoop(ctx context.Context, agent types.Agent, def resolvedDefinition, messages []provider.Message) ([]types.ToolResult, string, error) {
	var allResults []types.ToolResult
	toolContext := tools.ToolContext{AgentID: agent.ID, WebID: agent.WebID, SandboxPath: agent.WebID.String()}

	for calls := 0; ; {
		response, err := e.llm.Complete(ctx, messages)
		if err != nil {
			return allResults, "", fmt.Errorf("executor: model completion: %w", err)
		}

		parsedCalls := parseToolCalls(response)
		if len(parsedCalls) == 0 {
			return allResults, response, nil
		}

		calls += len(parsedCalls)
		if calls > e.config.MaxToolCalls {
			return allResults, "", fmt.Errorf("executor: exceeded max tool calls (%d)", e.config.MaxToolCalls)
		}

		messages = append(messages, provider.Assistant(response))
		for _, call := range parsedCalls {
			result, err := e.runtime.Execute(ctx, call, def.tools, toolContext)
			if err != nil {
				result = types.ToolResult{Tool: call.Tool, Success: false, Error: err.Error()}
			}
			allResults = append(allResults, result)
			messages = append(messages, provider.User(formatToolResult(result)))
		}
	}
}

// toolCallPayload is the JSON shape accepted after a TOOL_CALL: prefix.
type toolCallPayload struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

func parseToolCalls(response string) []types.ToolCall {
	var calls []types.ToolCall
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, toolCallPrefix) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, toolCallPrefix))
		var payload toolCallPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			continue
		}
		kind, ok := types.ParseToolKind(payload.Tool)
		if !ok {
			continue
		}
		calls = append(calls, types.ToolCall{Tool: kind, Params: payload.Params})
	}
	return calls
}

func formatToolResult(result types.ToolResult) string {
	data, _ := json.Marshal(result)
	return fmt.Sprintf("TOOL_RESULT: %s", data)
}

// emitSignalPayload is the JSON shape accepted after an EMIT_SIGNAL:
// prefix.
type emitSignalPayload struct {
	Content   string `json:"content"`
	Direction string `json:"direction"`
	Payload   any    `json:"payload"`
}

func (e *AgentExecutor) parseFinalResponse(agent types.Agent, response string, toolResults []types.ToolResult) types.ExecutionResult {
	status := types.StatusComplete
	for _, r := range toolResults {
		if !r.Success {
			status = types.StatusFailed
		}
	}

	var drafts []types.SignalDraft
	var needs []types.Need
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, emitSignalPrefix):
			if draft, ok := parseSignalDraft(agent, line); ok {
				drafts = append(drafts, draft)
			}
		case strings.HasPrefix(line, needMarkerPrefix):
			if need, ok := parseNeed(line); ok {
				needs = append(needs, need)
			}
		case line == needsMoreMarker:
			status = types.StatusNeedsMore
		case line == failedMarker:
			status = types.StatusFailed
		}
	}

	return types.ExecutionResult{
		Status:       status,
		Output:       response,
		SignalDrafts: drafts,
		Needs:        needs,
		ToolResults:  toolResults,
	}
}

// needPayload is the JSON shape accepted after a NEED: prefix.
type needPayload struct {
	Description         string  `json:"description"`
	SuggestedCapability *string `json:"suggested_capability"`
}

func parseNeed(line string) (types.Need, bool) {
	raw := strings.TrimSpace(strings.TrimPrefix(line, needMarkerPrefix))
	var payload needPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Description == "" {
		return types.Need{}, false
	}
	need := types.Need{Description: payload.Description}
	if payload.SuggestedCapability != nil {
		suggested := types.CapabilityType(*payload.SuggestedCapability)
		need.SuggestedCapability = &suggested
	}
	return need, true
}

func parseSignalDraft(agent types.Agent, line string) (types.SignalDraft, bool) {
	raw := strings.TrimSpace(strings.TrimPrefix(line, emitSignalPrefix))
	var payload emitSignalPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return types.SignalDraft{}, false
	}
	if payload.Content == "" {
		return types.SignalDraft{}, false
	}

	direction := types.Upward
	if payload.Direction == "downward" {
		direction = types.Downward
	}

	return types.SignalDraft{
		Frequency: agent.Tuning,
		Content:   payload.Content,
		Direction: direction,
		Payload:   payload.Payload,
	}, true
}
