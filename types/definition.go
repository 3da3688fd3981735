package types

import "time"

// AgentDefinition is a reusable template from which concrete agents are
// instantiated (spec §3).
type AgentDefinition struct {
	ID              DefinitionID
	Name            string
	Capability      CapabilityType
	TuningKeywords  []string
	TuningEmbedding []float32
	SystemPrompt    string
	Temperature     float32
	Tools           []ToolKind
	Source          DefinitionSource
	HealthScore     float32
	UseCount        uint32
	CreatedAt       time.Time
	Version         *string
}

// HasTool reports whether the definition grants the given tool kind.
func (d AgentDefinition) HasTool(k ToolKind) bool {
	for _, t := range d.Tools {
		if t == k {
			return true
		}
	}
	return false
}

// FailurePattern is an append-only record of an observed failure mode
// within one web, used for diagnostics (spec §3, §6).
type FailurePattern struct {
	ID          FailurePatternID
	WebID       WebID
	PatternType FailurePatternType
	PatternData interface{}
	CreatedAt   time.Time
}
