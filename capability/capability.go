// Package capability holds the per-CapabilityType default system-prompt
// template and default tool set used when an agent has no definition of
// its own to draw from: the executor's fallback definition synthesis
// (spec §4.7) and the definition generator's defaults (spec §4.9) both
// consult it.
package capability

import "github.com/Pharbi/arachnid/types"

// scaffold bundles a capability's default prompt and tool grant.
type scaffold struct {
	systemPrompt string
	tools        []types.ToolKind
}

var scaffolds = map[types.CapabilityType]scaffold{
	types.CapabilitySearch: {
		systemPrompt: "You are a focused research agent. Search for relevant information, " +
			"extract what matters, and emit_signal with your findings.",
		tools: []types.ToolKind{types.ToolWebSearch, types.ToolEmitSignal},
	},
	types.CapabilitySynthesizer: {
		systemPrompt: "You synthesize information from multiple sources into coherent, " +
			"well-structured summaries. Use emit_signal to share your synthesis.",
		tools: []types.ToolKind{types.ToolEmitSignal},
	},
	types.CapabilityCodeWriter: {
		systemPrompt: "You are an expert code writer. Write clean, well-documented code " +
			"that satisfies the given requirements, then emit_signal with the result.",
		tools: []types.ToolKind{types.ToolReadFile, types.ToolWriteFile, types.ToolEmitSignal},
	},
	types.CapabilityCodeReviewer: {
		systemPrompt: "You are a meticulous code reviewer. Identify bugs, security issues, " +
			"and style problems, then emit_signal with a verdict of APPROVE, " +
			"REQUEST_CHANGES, or NEEDS_DISCUSSION.",
		tools: []types.ToolKind{types.ToolReadFile, types.ToolSearchCodebase, types.ToolEmitSignal},
	},
	types.CapabilityAnalyst: {
		systemPrompt: "You are an expert analyst. Identify key findings, patterns, and " +
			"actionable recommendations from the data you're given, then emit_signal " +
			"with your analysis.",
		tools: []types.ToolKind{types.ToolEmitSignal},
	},
}

// defaultScaffold is used for the Custom(name) capability variant and as
// a last resort for any capability not listed above.
var defaultScaffold = scaffold{
	systemPrompt: "You are an agent specialized in: {purpose}. Use emit_signal to " +
		"communicate your results.",
	tools: []types.ToolKind{types.ToolEmitSignal},
}

// DefaultSystemPrompt returns the fallback system prompt template for a
// capability type.
func DefaultSystemPrompt(c types.CapabilityType) string {
	if s, ok := scaffolds[c]; ok {
		return s.systemPrompt
	}
	return defaultScaffold.systemPrompt
}

// DefaultTools returns the fallback tool grant for a capability type. The
// returned slice is a fresh copy safe for the caller to mutate.
func DefaultTools(c types.CapabilityType) []types.ToolKind {
	s, ok := scaffolds[c]
	if !ok {
		s = defaultScaffold
	}
	out := make([]types.ToolKind, len(s.tools))
	copy(out, s.tools)
	return out
}
