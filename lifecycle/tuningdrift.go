package lifecycle

// DefaultDriftAlpha and DefaultDriftWindow are the tuning-drift defaults
// used by webs that opt in via WebConfig.EnableTuningDrift.
const (
	DefaultDriftAlpha  = 0.8
	DefaultDriftWindow = 15
)

// TuningDriftTracker accumulates the frequencies of signals an agent has
// successfully resonated with, letting its tuning vector slowly follow
// the signals it actually responds to rather than staying fixed at
// creation time. Tracking is opt-in per web (WebConfig.EnableTuningDrift);
// an agent without drift enabled simply never records into one.
type TuningDriftTracker struct {
	recentSignals [][]float32
	alpha         float32
	windowSize    int
}

// NewTuningDriftTracker constructs a tracker blending at the given alpha
// over the given trailing window of signal frequencies.
func NewTuningDriftTracker(alpha float32, windowSize int) *TuningDriftTracker {
	return &TuningDriftTracker{alpha: alpha, windowSize: windowSize}
}

// DefaultTuningDriftTracker constructs a tracker using the spec-supplied
// defaults (alpha 0.8, window 15).
func DefaultTuningDriftTracker() *TuningDriftTracker {
	return NewTuningDriftTracker(DefaultDriftAlpha, DefaultDriftWindow)
}

// RecordSuccessfulResponse appends frequency to the trailing window,
// evicting the oldest entry once the window is full.
func (t *TuningDriftTracker) RecordSuccessfulResponse(frequency []float32) {
	cp := make([]float32, len(frequency))
	copy(cp, frequency)
	t.recentSignals = append(t.recentSignals, cp)
	if len(t.recentSignals) > t.windowSize {
		t.recentSignals = t.recentSignals[1:]
	}
}

// ComputeDriftedTuning blends currentTuning toward the average of the
// tracked window: alpha*current + (1-alpha)*average. With no recorded
// signals, currentTuning is returned unchanged.
func (t *TuningDriftTracker) ComputeDriftedTuning(currentTuning []float32) []float32 {
	if len(t.recentSignals) == 0 {
		out := make([]float32, len(currentTuning))
		copy(out, currentTuning)
		return out
	}

	avg := t.averageSignals()
	out := make([]float32, len(currentTuning))
	for i, cur := range currentTuning {
		out[i] = t.alpha*cur + (1-t.alpha)*avg[i]
	}
	return out
}

func (t *TuningDriftTracker) averageSignals() []float32 {
	if len(t.recentSignals) == 0 {
		return nil
	}
	dim := len(t.recentSignals[0])
	avg := make([]float32, dim)
	for _, sig := range t.recentSignals {
		for i, v := range sig {
			avg[i] += v
		}
	}
	count := float32(len(t.recentSignals))
	for i := range avg {
		avg[i] /= count
	}
	return avg
}
