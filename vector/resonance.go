// Package vector implements the cosine-similarity resonance law that
// decides whether an agent activates in response to a signal (spec §4.1).
package vector

import (
	"math"

	"github.com/Pharbi/arachnid/types"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Degenerate cases all return 0: mismatched lengths, empty vectors, or
// either vector having zero magnitude.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	magA = math.Sqrt(magA)
	magB = math.Sqrt(magB)
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (magA * magB))
}

// Result is the outcome of evaluating an agent against a signal: no side
// effects, purely a computation over their current values.
type Result struct {
	Similarity        float32
	EffectiveStrength float32
	Activated         bool
}

// ComputeResonance evaluates whether signal activates agent. Activation
// requires effective_strength to be strictly greater than the agent's
// threshold; equality does not fire.
func ComputeResonance(agent *types.Agent, signal *types.Signal) Result {
	similarity := CosineSimilarity(agent.Tuning, signal.Frequency)
	effective := similarity * signal.Amplitude
	return Result{
		Similarity:        similarity,
		EffectiveStrength: effective,
		Activated:         effective > agent.ActivationThreshold,
	}
}

// L2Normalize returns v scaled to unit length. A zero vector is returned
// unchanged (its norm is 0, so scaling would divide by zero).
func L2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
