package types

// WebState is the terminal-or-running state of a web. A web's state leaves
// Running exactly once, to either Converged or Failed.
type WebState string

const (
	WebRunning   WebState = "running"
	WebConverged WebState = "converged"
	WebFailed    WebState = "failed"
)

// AgentState is a position in the lifecycle FSM described in spec §4.6.
type AgentState string

const (
	AgentActive      AgentState = "active"
	AgentListening   AgentState = "listening"
	AgentDormant     AgentState = "dormant"
	AgentQuarantine  AgentState = "quarantine"
	AgentIsolated    AgentState = "isolated"
	AgentWindingDown AgentState = "winding_down"
	AgentTerminated  AgentState = "terminated"
)

// Terminal reports whether no further activation of the agent is possible.
func (s AgentState) Terminal() bool {
	return s == AgentTerminated
}

// EligibleForPropagation reports whether an agent in this state may be a
// target of signal propagation (spec §3 Agent invariants).
func (s AgentState) EligibleForPropagation() bool {
	return s != AgentTerminated && s != AgentWindingDown
}

// SignalDirection is the traversal direction a signal propagates along the
// web's tree.
type SignalDirection string

const (
	Upward   SignalDirection = "upward"
	Downward SignalDirection = "downward"
)

// ExecutionStatus is the outcome of one agent execution (spec §4.7).
type ExecutionStatus string

const (
	StatusComplete  ExecutionStatus = "complete"
	StatusNeedsMore ExecutionStatus = "needs_more"
	StatusFailed    ExecutionStatus = "failed"
)

// CapabilityType is the closed sum type of agent specializations, with a
// Custom(name) escape hatch: any value outside the named constants is a
// custom capability identified by that string.
type CapabilityType string

const (
	CapabilitySearch       CapabilityType = "search"
	CapabilitySynthesizer  CapabilityType = "synthesizer"
	CapabilityCodeWriter   CapabilityType = "code_writer"
	CapabilityCodeReviewer CapabilityType = "code_reviewer"
	CapabilityAnalyst      CapabilityType = "analyst"
)

// CustomCapability constructs the Custom(name) variant.
func CustomCapability(name string) CapabilityType { return CapabilityType(name) }

// IsCustom reports whether this is the Custom(name) variant, i.e. not one
// of the named built-in capabilities.
func (c CapabilityType) IsCustom() bool {
	switch c {
	case CapabilitySearch, CapabilitySynthesizer, CapabilityCodeWriter, CapabilityCodeReviewer, CapabilityAnalyst:
		return false
	default:
		return true
	}
}

// Name returns the capability's identifying string.
func (c CapabilityType) Name() string { return string(c) }

func (c CapabilityType) String() string { return string(c) }

// DefinitionSource records where an AgentDefinition came from.
type DefinitionSource string

const (
	SourceBuiltIn    DefinitionSource = "built_in"
	SourceUserCustom DefinitionSource = "user_custom"
	SourceGenerated  DefinitionSource = "generated"
)

// ToolKind is the closed sum type of tool capabilities a definition may
// grant an agent.
type ToolKind string

const (
	ToolWebSearch      ToolKind = "web_search"
	ToolFetchURL       ToolKind = "fetch_url"
	ToolReadFile       ToolKind = "read_file"
	ToolWriteFile      ToolKind = "write_file"
	ToolExecuteCode    ToolKind = "execute_code"
	ToolEmitSignal     ToolKind = "emit_signal"
	ToolSpawnAgent     ToolKind = "spawn_agent"
	ToolSearchCodebase ToolKind = "search_codebase"
	ToolQueryDatabase  ToolKind = "query_database"
)

// AllToolKinds lists every known tool kind, in a fixed order.
func AllToolKinds() []ToolKind {
	return []ToolKind{
		ToolWebSearch, ToolFetchURL, ToolReadFile, ToolWriteFile,
		ToolExecuteCode, ToolEmitSignal, ToolSpawnAgent,
		ToolSearchCodebase, ToolQueryDatabase,
	}
}

// ParseToolKind resolves a tool name to its ToolKind, mirroring
// ToolType::from_str in the original implementation.
func ParseToolKind(name string) (ToolKind, bool) {
	for _, k := range AllToolKinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// HealthChangeReason explains why a health delta was applied (spec §4.6).
type HealthChangeReason string

const (
	ReasonValidationConfirm   HealthChangeReason = "validation_confirm"
	ReasonValidationChallenge HealthChangeReason = "validation_challenge"
	ReasonInconsistentOutput  HealthChangeReason = "inconsistent_output"
	ReasonRecovered           HealthChangeReason = "recovered"
)

// LifecycleEvent drives AgentStateMachine transitions (spec §4.6).
type LifecycleEvent string

const (
	EventActivated             LifecycleEvent = "activated"
	EventSignalReceived        LifecycleEvent = "signal_received"
	EventIdleTimeout           LifecycleEvent = "idle_timeout"
	EventTTLExpired            LifecycleEvent = "ttl_expired"
	EventHealthBelowQuarantine LifecycleEvent = "health_below_quarantine"
	EventHealthBelowIsolated   LifecycleEvent = "health_below_isolated"
	EventHealthBelowTerminal   LifecycleEvent = "health_below_terminal"
	EventHealthRecovered       LifecycleEvent = "health_recovered"
	EventManualTermination     LifecycleEvent = "manual_termination"
)

// FailurePatternType is the closed sum type of patterns the failure
// detector may record in a web's memory.
type FailurePatternType string

const (
	PatternAgentWindDown             FailurePatternType = "agent_wind_down"
	PatternRepeatedValidationFailure FailurePatternType = "repeated_validation_failure"
	PatternCyclicSpawning            FailurePatternType = "cyclic_spawning"
	PatternResourceExhaustion        FailurePatternType = "resource_exhaustion"
)
