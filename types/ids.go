// Package types defines the core data model shared across the coordination
// engine: webs, agents, signals, context items, and the closed sum types
// that describe their state.
package types

import "github.com/google/uuid"

// AgentID, WebID, SignalID, and DefinitionID are all 128-bit identifiers.
// They are aliases of uuid.UUID, so the compiler does not tell them
// apart: GetAgent(AgentID) also accepts a WebID.
type (
	AgentID          = uuid.UUID
	WebID            = uuid.UUID
	SignalID         = uuid.UUID
	DefinitionID     = uuid.UUID
	FailurePatternID = uuid.UUID
	ValidationID     = uuid.UUID
)

// NewAgentID, NewWebID, and NewSignalID mint fresh random identifiers.
func NewAgentID() AgentID                   { return uuid.New() }
func NewWebID() WebID                       { return uuid.New() }
func NewSignalID() SignalID                 { return uuid.New() }
func NewDefinitionID() DefinitionID         { return uuid.New() }
func NewFailurePatternID() FailurePatternID { return uuid.New() }
func NewValidationID() ValidationID         { return uuid.New() }

// TaskCoordinatorDefinitionID is the fixed identifier of the built-in
// task-coordinator definition (see definitions.TaskCoordinator).
var TaskCoordinatorDefinitionID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
