package propagation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/storage/memstore"
	"github.com/Pharbi/arachnid/types"
)

func containsAgent(results []Result, id types.AgentID) bool {
	for _, r := range results {
		if r.AgentID == id {
			return true
		}
	}
	return false
}

func TestPropagateUpward(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	config := types.DefaultWebConfig()

	webID := types.NewWebID()
	grandparent := types.NewAgent(webID, nil, "grandparent", []float32{1, 0, 0}, types.CapabilitySynthesizer, 0.5)
	parent := types.NewAgent(webID, &grandparent.ID, "parent", []float32{1, 0, 0}, types.CapabilitySynthesizer, 0.5)
	child := types.NewAgent(webID, &parent.ID, "child", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)

	require.NoError(t, store.CreateAgent(ctx, grandparent))
	require.NoError(t, store.CreateAgent(ctx, parent))
	require.NoError(t, store.CreateAgent(ctx, child))

	signal := types.NewSignal(child.ID, []float32{1, 0, 0}, "upward signal", types.Upward)

	results, err := Propagate(ctx, store, signal, config)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(results), 2)
	assert.True(t, containsAgent(results, child.ID))
	assert.True(t, containsAgent(results, parent.ID))
}

func TestPropagateDownward(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	config := types.DefaultWebConfig()

	webID := types.NewWebID()
	parent := types.NewAgent(webID, nil, "parent", []float32{1, 0, 0}, types.CapabilitySynthesizer, 0.5)
	child1 := types.NewAgent(webID, &parent.ID, "child1", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)
	child2 := types.NewAgent(webID, &parent.ID, "child2", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)

	require.NoError(t, store.CreateAgent(ctx, parent))
	require.NoError(t, store.CreateAgent(ctx, child1))
	require.NoError(t, store.CreateAgent(ctx, child2))

	signal := types.NewSignal(parent.ID, []float32{1, 0, 0}, "downward signal", types.Downward)

	results, err := Propagate(ctx, store, signal, config)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(results), 2)
	assert.True(t, containsAgent(results, parent.ID))
}

func TestSignalAttenuationAcrossHops(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	config := types.DefaultWebConfig()
	config.AttenuationFactor = 0.5
	config.MinAmplitude = 0.2

	webID := types.NewWebID()
	root := types.NewAgent(webID, nil, "root", []float32{1, 0, 0}, types.CapabilitySynthesizer, 0.5)
	child1 := types.NewAgent(webID, &root.ID, "child1", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)
	grandchild := types.NewAgent(webID, &child1.ID, "grandchild", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)

	require.NoError(t, store.CreateAgent(ctx, root))
	require.NoError(t, store.CreateAgent(ctx, child1))
	require.NoError(t, store.CreateAgent(ctx, grandchild))

	signal := types.NewSignal(grandchild.ID, []float32{1, 0, 0}, "test signal", types.Upward)

	results, err := Propagate(ctx, store, signal, config)
	require.NoError(t, err)

	assert.True(t, containsAgent(results, grandchild.ID))
	assert.True(t, containsAgent(results, child1.ID))
}

func TestSignalStopsAtMinAmplitude(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	config := types.DefaultWebConfig()
	config.AttenuationFactor = 0.1
	config.MinAmplitude = 0.5

	webID := types.NewWebID()
	root := types.NewAgent(webID, nil, "root", []float32{1, 0, 0}, types.CapabilitySynthesizer, 0.5)
	child := types.NewAgent(webID, &root.ID, "child", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)

	require.NoError(t, store.CreateAgent(ctx, root))
	require.NoError(t, store.CreateAgent(ctx, child))

	signal := types.NewSignal(child.ID, []float32{1, 0, 0}, "test signal", types.Upward)

	results, err := Propagate(ctx, store, signal, config)
	require.NoError(t, err)

	assert.True(t, containsAgent(results, child.ID))
	assert.False(t, containsAgent(results, root.ID))
}

func TestPropagateDownwardStopsAtMaxDepth(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	config := types.DefaultWebConfig()
	config.MaxDepth = 1
	config.AttenuationFactor = 0.9

	webID := types.NewWebID()
	root := types.NewAgent(webID, nil, "root", []float32{1, 0, 0}, types.CapabilitySynthesizer, 0.5)
	child := types.NewAgent(webID, &root.ID, "child", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)
	grandchild := types.NewAgent(webID, &child.ID, "grandchild", []float32{1, 0, 0}, types.CapabilitySearch, 0.5)

	require.NoError(t, store.CreateAgent(ctx, root))
	require.NoError(t, store.CreateAgent(ctx, child))
	require.NoError(t, store.CreateAgent(ctx, grandchild))

	signal := types.NewSignal(root.ID, []float32{1, 0, 0}, "bounded signal", types.Downward)

	results, err := Propagate(ctx, store, signal, config)
	require.NoError(t, err)

	assert.True(t, containsAgent(results, root.ID))
	assert.False(t, containsAgent(results, grandchild.ID))
}
