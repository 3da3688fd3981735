package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTuningDriftTrackerInitialization(t *testing.T) {
	tracker := NewTuningDriftTracker(0.8, 15)
	assert.Equal(t, float32(0.8), tracker.alpha)
	assert.Equal(t, 15, tracker.windowSize)
	assert.Empty(t, tracker.recentSignals)
}

func TestRecordSuccessfulResponse(t *testing.T) {
	tracker := NewTuningDriftTracker(0.8, 3)
	tracker.RecordSuccessfulResponse([]float32{1, 2, 3})
	tracker.RecordSuccessfulResponse([]float32{4, 5, 6})

	assert.Len(t, tracker.recentSignals, 2)
}

func TestWindowSizeLimit(t *testing.T) {
	tracker := NewTuningDriftTracker(0.8, 2)
	tracker.RecordSuccessfulResponse([]float32{1, 2})
	tracker.RecordSuccessfulResponse([]float32{3, 4})
	tracker.RecordSuccessfulResponse([]float32{5, 6})

	assert.Len(t, tracker.recentSignals, 2)
	assert.Equal(t, []float32{3, 4}, tracker.recentSignals[0])
	assert.Equal(t, []float32{5, 6}, tracker.recentSignals[1])
}

func TestComputeDriftedTuningNoSignals(t *testing.T) {
	tracker := NewTuningDriftTracker(0.8, 15)
	current := []float32{1, 2, 3}
	drifted := tracker.ComputeDriftedTuning(current)

	assert.Equal(t, current, drifted)
}

func TestComputeDriftedTuning(t *testing.T) {
	tracker := NewTuningDriftTracker(0.8, 2)
	tracker.RecordSuccessfulResponse([]float32{2, 4})
	tracker.RecordSuccessfulResponse([]float32{4, 6})

	drifted := tracker.ComputeDriftedTuning([]float32{1, 2})

	expected0 := float32(0.8*1.0 + 0.2*3.0)
	expected1 := float32(0.8*2.0 + 0.2*5.0)
	assert.InDelta(t, expected0, drifted[0], 1e-6)
	assert.InDelta(t, expected1, drifted[1], 1e-6)
}

func TestAverageSignals(t *testing.T) {
	tracker := NewTuningDriftTracker(0.8, 3)
	tracker.RecordSuccessfulResponse([]float32{1, 2})
	tracker.RecordSuccessfulResponse([]float32{3, 4})

	avg := tracker.averageSignals()
	assert.Equal(t, []float32{2, 3}, avg)
}
