package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Pharbi/arachnid/types"
)

func TestDefaultToolsPerCapability(t *testing.T) {
	assert.Contains(t, DefaultTools(types.CapabilitySearch), types.ToolWebSearch)
	assert.Contains(t, DefaultTools(types.CapabilityCodeWriter), types.ToolWriteFile)
	assert.Contains(t, DefaultTools(types.CapabilityCodeReviewer), types.ToolSearchCodebase)
	assert.Contains(t, DefaultTools(types.CapabilityAnalyst), types.ToolEmitSignal)
}

func TestDefaultToolsFallsBackForCustomCapability(t *testing.T) {
	custom := types.CustomCapability("translator")
	assert.Equal(t, []types.ToolKind{types.ToolEmitSignal}, DefaultTools(custom))
}

func TestDefaultToolsReturnsIndependentCopies(t *testing.T) {
	a := DefaultTools(types.CapabilitySearch)
	a[0] = types.ToolExecuteCode
	b := DefaultTools(types.CapabilitySearch)
	assert.Equal(t, types.ToolWebSearch, b[0])
}

func TestDefaultSystemPromptNonEmptyForEveryKnownCapability(t *testing.T) {
	for _, c := range []types.CapabilityType{
		types.CapabilitySearch, types.CapabilitySynthesizer, types.CapabilityCodeWriter,
		types.CapabilityCodeReviewer, types.CapabilityAnalyst,
	} {
		assert.NotEmpty(t, DefaultSystemPrompt(c))
	}
}
