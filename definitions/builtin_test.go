package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Pharbi/arachnid/types"
)

func TestTaskCoordinatorDefinition(t *testing.T) {
	def := TaskCoordinatorDefinition()

	assert.Equal(t, types.TaskCoordinatorDefinitionID, def.ID)
	assert.Equal(t, "task-coordinator", def.Name)
	assert.Equal(t, types.SourceBuiltIn, def.Source)
	assert.True(t, def.Capability.IsCustom())
	assert.True(t, def.HasTool(types.ToolSpawnAgent))
	assert.True(t, def.HasTool(types.ToolEmitSignal))
	assert.Contains(t, def.SystemPrompt, "{task}")
}
