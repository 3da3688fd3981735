package definitions

import (
	"time"

	"github.com/Pharbi/arachnid/types"
)

const taskCoordinatorSystemPrompt = `You are the root coordinator for an Arachnid web.

Your task: {task}

Your responsibilities:
1. Understand what needs to be accomplished
2. Decompose the task into subtasks
3. Use spawn_agent to create specialist agents for subtasks
4. Monitor signals from child agents
5. Synthesize results into a coherent final output

When spawning agents, describe what you need clearly.
The system will create appropriately specialized agents.

Use emit_signal to communicate progress and findings.`

// TaskCoordinatorVersion is the schema version stamped on the built-in
// task-coordinator definition.
const TaskCoordinatorVersion = "1.0.0"

// TaskCoordinatorDefinition returns the built-in root-coordinator
// definition every web is seeded with. Its ID is fixed
// (types.TaskCoordinatorDefinitionID) so storage lookups and resume flows
// can address it without a round trip. TuningEmbedding is left empty;
// factory.SpawnFromDefinition then embeds the spawn purpose through the
// configured provider.EmbeddingProvider, so no vector is baked in here.
func TaskCoordinatorDefinition() types.AgentDefinition {
	version := TaskCoordinatorVersion
	return types.AgentDefinition{
		ID:         types.TaskCoordinatorDefinitionID,
		Name:       "task-coordinator",
		Capability: types.CustomCapability("task_coordinator"),
		TuningKeywords: []string{
			"coordinate",
			"decompose",
			"synthesize",
			"manage tasks",
			"delegate",
		},
		SystemPrompt: taskCoordinatorSystemPrompt,
		Temperature:  0.4,
		Tools: []types.ToolKind{
			types.ToolSpawnAgent,
			types.ToolEmitSignal,
			types.ToolWebSearch,
			types.ToolReadFile,
		},
		Source:      types.SourceBuiltIn,
		HealthScore: 1.0,
		UseCount:    0,
		CreatedAt:   time.Now(),
		Version:     &version,
	}
}
