package types

// WebConfig holds the per-web tunables from spec §3. Zero values are not
// valid configuration; use DefaultWebConfig and override selectively.
type WebConfig struct {
	AttenuationFactor float32 `json:"attenuation_factor" validate:"gt=0,lte=1"`
	MinAmplitude      float32 `json:"min_amplitude" validate:"gte=0"`
	DefaultThreshold  float32 `json:"default_threshold" validate:"gte=0,lte=1"`
	MaxAgents         int     `json:"max_agents" validate:"gt=0"`
	MaxDepth          int     `json:"max_depth" validate:"gt=0"`
	IdleTimeoutSecs   int64   `json:"idle_timeout_secs" validate:"gte=0"`
	DormantTTLSecs    int64   `json:"dormant_ttl_secs" validate:"gte=0"`

	// EnableTuningDrift opts an individual web into the supplemented
	// tuning-drift behavior (SPEC_FULL §4). Off by default: spec.md's
	// Agent invariants do not describe tuning mutation.
	EnableTuningDrift bool `json:"enable_tuning_drift"`
}

// DefaultWebConfig returns the spec-mandated defaults.
func DefaultWebConfig() WebConfig {
	return WebConfig{
		AttenuationFactor: 0.8,
		MinAmplitude:      0.1,
		DefaultThreshold:  0.6,
		MaxAgents:         100,
		MaxDepth:          10,
		IdleTimeoutSecs:   300,
		DormantTTLSecs:    3600,
	}
}

// Web is one task's tree of agents plus its configuration and lifecycle
// state. A Web is created once and never renamed or re-rooted.
type Web struct {
	ID          WebID     `json:"id"`
	Task        string    `json:"task"`
	RootAgentID AgentID   `json:"root_agent_id"`
	State       WebState  `json:"state"`
	Config      WebConfig `json:"config"`
}

// NewWeb constructs a Web in the Running state.
func NewWeb(rootAgentID AgentID, task string, config WebConfig) Web {
	return Web{
		ID:          NewWebID(),
		Task:        task,
		RootAgentID: rootAgentID,
		State:       WebRunning,
		Config:      config,
	}
}

func (w Web) IsConverged() bool { return w.State == WebConverged }
func (w Web) IsFailed() bool    { return w.State == WebFailed }
func (w Web) IsRunning() bool   { return w.State == WebRunning }
