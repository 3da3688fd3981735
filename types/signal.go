package types

// Signal is a directional message propagated through a web's tree. Signals
// are created once, enqueued as pending, drained (marked processed)
// exactly once by the coordination loop, and never deleted.
type Signal struct {
	ID        SignalID
	Origin    AgentID
	Frequency []float32
	Content   string
	Amplitude float32
	Direction SignalDirection
	HopCount  uint32
	Payload   interface{}
}

// NewSignal constructs a Signal at full amplitude and zero hop count.
func NewSignal(origin AgentID, frequency []float32, content string, direction SignalDirection) Signal {
	return Signal{
		ID:        NewSignalID(),
		Origin:    origin,
		Frequency: frequency,
		Content:   content,
		Amplitude: 1.0,
		Direction: direction,
		HopCount:  0,
	}
}

// WithPayload attaches an opaque payload and returns the signal.
func (s Signal) WithPayload(payload interface{}) Signal {
	s.Payload = payload
	return s
}

// Attenuate multiplies Amplitude by factor and increments HopCount,
// modeling one propagation hop (spec §4.2).
func (s *Signal) Attenuate(factor float32) {
	s.Amplitude *= factor
	s.HopCount++
}

// IsAlive reports whether the signal's amplitude still clears the web's
// minimum amplitude floor.
func (s Signal) IsAlive(minAmplitude float32) bool {
	return s.Amplitude >= minAmplitude
}

// SignalDraft is an agent-produced template lacking ID/Origin/Amplitude/
// HopCount; the engine materializes it into a Signal at enqueue time.
type SignalDraft struct {
	Frequency []float32
	Content   string
	Direction SignalDirection
	Payload   interface{}
}

// IntoSignal materializes the draft as a fresh Signal originating from the
// given agent.
func (d SignalDraft) IntoSignal(origin AgentID) Signal {
	return Signal{
		ID:        NewSignalID(),
		Origin:    origin,
		Frequency: d.Frequency,
		Content:   d.Content,
		Amplitude: 1.0,
		Direction: d.Direction,
		HopCount:  0,
		Payload:   d.Payload,
	}
}
