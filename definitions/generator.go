package definitions

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/types"
)

const generatorSystemPrompt = `You are an expert at designing AI agent configurations.
Create focused, single-purpose agents with clear instructions.
Agents should use emit_signal to communicate results.
Keep system prompts concise but complete.
Only include tools the agent actually needs.
Output valid YAML only, no markdown code fences or explanation.`

// DefaultTemperature is used when a generated definition omits a
// temperature field or the YAML value doesn't parse.
const DefaultTemperature = 0.4

// GeneratorVersion is stamped on every definition this generator produces.
const GeneratorVersion = "1.0.0"

// Generator turns a free-text description of a capability need into a new
// AgentDefinition, using an LLM to draft the definition and an embedding
// model to compute its semantic fingerprint.
type Generator struct {
	llm       provider.LLMProvider
	embedding provider.EmbeddingProvider
}

// NewGenerator builds a Generator from its two provider dependencies. Both
// are wrapped with their respective provider fallbacks so a deployment
// missing either still returns an error from Generate rather than
// panicking on a nil provider (spec §9 "Provider optionality").
func NewGenerator(llm provider.LLMProvider, embedding provider.EmbeddingProvider) *Generator {
	return &Generator{llm: provider.NewFallbackLLM(llm), embedding: provider.NewFallbackEmbedding(embedding)}
}

// generatedYAML mirrors the subset of fields the LLM is asked to emit.
// Two alternate nestings (tuning.keywords, llm.system_prompt,
// llm.temperature) are accepted because models drift on exact shape; see
// parseGeneratedDefinition.
type generatedYAML struct {
	Name           string   `yaml:"name"`
	Capability     string   `yaml:"capability"`
	TuningKeywords []string `yaml:"tuning_keywords"`
	Tuning         struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"tuning"`
	SystemPrompt string `yaml:"system_prompt"`
	Temperature  *float64
	LLM          struct {
		SystemPrompt string   `yaml:"system_prompt"`
		Temperature  *float64 `yaml:"temperature"`
	} `yaml:"llm"`
	Tools []string `yaml:"tools"`
}

// Generate drafts a brand-new AgentDefinition satisfying need: it prompts
// the LLM for a YAML definition, parses it with field-level fallbacks for
// anything missing or malformed, then computes the definition's tuning
// embedding from its keywords.
func (g *Generator) Generate(ctx context.Context, need string) (types.AgentDefinition, error) {
	prompt := g.buildGenerationPrompt(need)

	response, err := g.llm.Complete(ctx, []provider.Message{
		provider.System(generatorSystemPrompt),
		provider.User(prompt),
	})
	if err != nil {
		return types.AgentDefinition{}, fmt.Errorf("definitions: generate completion: %w", err)
	}

	def, err := g.parseGeneratedDefinition(response, need)
	if err != nil {
		return types.AgentDefinition{}, err
	}

	embedding, err := g.computeEmbedding(ctx, def)
	if err != nil {
		return types.AgentDefinition{}, fmt.Errorf("definitions: compute embedding: %w", err)
	}
	def.TuningEmbedding = embedding
	return def, nil
}

func (g *Generator) buildGenerationPrompt(need string) string {
	return fmt.Sprintf(`Generate an agent definition for the following need:

Need: %s

Available tools the agent can use:
- web_search: Search the internet for information
- fetch_url: Retrieve contents of a web page
- read_file: Read a file from the filesystem
- write_file: Write content to a file
- execute_code: Run code in a sandboxed environment
- emit_signal: Emit a signal to other agents
- spawn_agent: Create a child agent for a subtask
- search_codebase: Search code with semantic or regex queries
- query_database: Execute read-only SQL queries

Output a YAML agent definition with:
- name: A short, descriptive name (lowercase, hyphens)
- tuning_keywords: 5-10 keywords this agent should respond to
- system_prompt: Instructions for the agent
- temperature: 0.1-0.9 (lower = more focused)
- tools: List of tools this agent needs

Only output valid YAML, no markdown code fences or explanation.`, need)
}

func (g *Generator) parseGeneratedDefinition(response, need string) (types.AgentDefinition, error) {
	yamlContent := stripMarkdownFences(response)

	var parsed generatedYAML
	if err := yaml.Unmarshal([]byte(yamlContent), &parsed); err != nil {
		return types.AgentDefinition{}, fmt.Errorf("definitions: parse generated yaml: %w", err)
	}

	name := parsed.Name
	if name == "" {
		name = g.generateNameFromNeed(need)
	}

	capability := parseCapability(parsed.Capability)

	keywords := parsed.TuningKeywords
	if len(keywords) == 0 {
		keywords = parsed.Tuning.Keywords
	}
	if len(keywords) == 0 {
		keywords = g.extractKeywordsFromNeed(need)
	}

	systemPrompt := parsed.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = parsed.LLM.SystemPrompt
	}
	if systemPrompt == "" {
		systemPrompt = fmt.Sprintf("You are an agent specialized in: %s", need)
	}

	temperature := float32(DefaultTemperature)
	if parsed.Temperature != nil {
		temperature = float32(*parsed.Temperature)
	} else if parsed.LLM.Temperature != nil {
		temperature = float32(*parsed.LLM.Temperature)
	}

	tools := make([]types.ToolKind, 0, len(parsed.Tools))
	for _, name := range parsed.Tools {
		if kind, ok := types.ParseToolKind(strings.TrimSpace(name)); ok {
			tools = append(tools, kind)
		}
	}
	if len(tools) == 0 {
		tools = []types.ToolKind{types.ToolEmitSignal}
	}

	version := GeneratorVersion
	return types.AgentDefinition{
		ID:             types.NewDefinitionID(),
		Name:           name,
		Capability:     capability,
		TuningKeywords: keywords,
		SystemPrompt:   systemPrompt,
		Temperature:    temperature,
		Tools:          tools,
		Source:         types.SourceGenerated,
		HealthScore:    1.0,
		UseCount:       0,
		CreatedAt:      time.Now(),
		Version:        &version,
	}, nil
}

// parseCapability maps a generated capability string onto one of the
// five known specializations, falling back to CapabilitySearch when the
// field is absent or doesn't match a known one (spec §4.5's "Search
// default" policy for unsuggested needs applies equally to generation).
func parseCapability(s string) types.CapabilityType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(types.CapabilitySearch):
		return types.CapabilitySearch
	case string(types.CapabilitySynthesizer):
		return types.CapabilitySynthesizer
	case string(types.CapabilityCodeWriter):
		return types.CapabilityCodeWriter
	case string(types.CapabilityCodeReviewer):
		return types.CapabilityCodeReviewer
	case string(types.CapabilityAnalyst):
		return types.CapabilityAnalyst
	default:
		return types.CapabilitySearch
	}
}

func stripMarkdownFences(response string) string {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// generateNameFromNeed derives a fallback name from the first three
// words of need longer than three characters, hyphen-joined and
// lowercased.
func (g *Generator) generateNameFromNeed(need string) string {
	words := make([]string, 0, 3)
	for _, w := range strings.Fields(need) {
		if len(w) <= 3 {
			continue
		}
		words = append(words, w)
		if len(words) == 3 {
			break
		}
	}
	if len(words) == 0 {
		return "generated-agent"
	}
	joined := strings.ToLower(strings.Join(words, "-"))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return -1
	}, joined)
}

// extractKeywordsFromNeed derives up to ten fallback keywords from need's
// words longer than three characters, lowercased and trimmed of
// non-alphanumeric edge characters.
func (g *Generator) extractKeywordsFromNeed(need string) []string {
	keywords := make([]string, 0, 10)
	for _, w := range strings.Fields(need) {
		if len(w) <= 3 {
			continue
		}
		trimmed := strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if trimmed == "" {
			continue
		}
		keywords = append(keywords, trimmed)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

func (g *Generator) computeEmbedding(ctx context.Context, def types.AgentDefinition) ([]float32, error) {
	text := strings.Join(def.TuningKeywords, " ")
	return g.embedding.Embed(ctx, text)
}
