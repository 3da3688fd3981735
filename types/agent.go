package types

import "time"

// ContextItem is one piece of knowledge a child contributed to a parent's
// accumulated context (spec §3). Data carries an opaque structured payload.
type ContextItem struct {
	SourceAgent AgentID     `json:"source_agent"`
	Content     string      `json:"content"`
	Data        interface{} `json:"data,omitempty"`
}

// MaxContextItems is the FIFO cap on an agent's accumulated knowledge.
const MaxContextItems = 10

// AgentContext carries an agent's purpose and the knowledge items its
// children (or triggering upward signals) have contributed.
type AgentContext struct {
	Purpose              string        `json:"purpose"`
	AccumulatedKnowledge []ContextItem `json:"accumulated_knowledge"`
}

// AppendKnowledge appends an item, evicting the oldest if the list would
// exceed MaxContextItems (spec §3, §4.3).
func (c *AgentContext) AppendKnowledge(item ContextItem) {
	c.AccumulatedKnowledge = append(c.AccumulatedKnowledge, item)
	if len(c.AccumulatedKnowledge) > MaxContextItems {
		c.AccumulatedKnowledge = c.AccumulatedKnowledge[len(c.AccumulatedKnowledge)-MaxContextItems:]
	}
}

// InitialProbation is the number of executions during which negative
// health deltas are halved (spec §3, §4.6).
const InitialProbation = 5

// MaxHealthHistory bounds the retained health event log (spec §4.6).
const MaxHealthHistory = 50

// HealthEvent records one applied health delta for diagnostics.
type HealthEvent struct {
	Timestamp time.Time          `json:"timestamp"`
	Delta     float32            `json:"delta"`
	Reason    HealthChangeReason `json:"reason"`
}

// Agent is one worker unit in a web's tree.
type Agent struct {
	ID                  AgentID
	WebID               WebID
	ParentID            *AgentID // nil iff this agent is its web's root
	Purpose             string
	Tuning              []float32
	Capability          CapabilityType
	State               AgentState
	Health              float32
	HealthHistory       []HealthEvent
	ActivationThreshold float32
	Context             AgentContext
	ProbationRemaining  int
	CreatedAt           time.Time
	LastActiveAt        time.Time
	DormantSince        *time.Time
	DefinitionID        *DefinitionID
}

// NewAgent constructs a root-eligible agent in the Listening state with
// health 1.0 and full probation, matching Agent::new in the original
// implementation.
func NewAgent(webID WebID, parentID *AgentID, purpose string, tuning []float32, capability CapabilityType, threshold float32) Agent {
	now := time.Now()
	return Agent{
		ID:                  NewAgentID(),
		WebID:               webID,
		ParentID:            parentID,
		Purpose:             purpose,
		Tuning:              tuning,
		Capability:          capability,
		State:               AgentListening,
		Health:              1.0,
		ActivationThreshold: threshold,
		Context: AgentContext{
			Purpose:              purpose,
			AccumulatedKnowledge: nil,
		},
		ProbationRemaining: InitialProbation,
		CreatedAt:          now,
		LastActiveAt:       now,
	}
}

// IsRoot reports whether this agent has no parent.
func (a Agent) IsRoot() bool { return a.ParentID == nil }
