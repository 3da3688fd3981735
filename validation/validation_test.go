package validation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/types"
)

type scriptedLLM struct {
	response string
	err      error
	calls    int32
}

func (s *scriptedLLM) Complete(context.Context, []provider.Message) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.response, s.err
}

type fakeBudgetTracker struct {
	mu     sync.Mutex
	used   map[types.WebID]int
	denied bool
}

func newFakeBudgetTracker() *fakeBudgetTracker {
	return &fakeBudgetTracker{used: make(map[types.WebID]int)}
}

func (t *fakeBudgetTracker) Consume(_ context.Context, webID types.WebID, limit int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used[webID]++
	return t.used[webID] <= limit, nil
}

func testAgent(health float32, probation int) types.Agent {
	agent := types.NewAgent(types.NewWebID(), nil, "investigate", []float32{1, 0, 0}, types.CapabilitySearch, 0.6)
	agent.Health = health
	agent.ProbationRemaining = probation
	return agent
}

func TestShouldValidateHighPriorityAlways(t *testing.T) {
	svc := NewService(&scriptedLLM{}, nil, DefaultConfig())
	assert.True(t, svc.ShouldValidate(testAgent(1.0, 0), 0.9))
}

func TestShouldValidateMediumPriorityAlways(t *testing.T) {
	svc := NewService(&scriptedLLM{}, nil, DefaultConfig())
	assert.True(t, svc.ShouldValidate(testAgent(1.0, 0), 0.5))
}

func TestShouldValidateLowPriorityOnlyWhenUnhealthyOrOnProbation(t *testing.T) {
	svc := NewService(&scriptedLLM{}, nil, DefaultConfig())
	assert.False(t, svc.ShouldValidate(testAgent(1.0, 0), 0.1))
	assert.True(t, svc.ShouldValidate(testAgent(0.5, 0), 0.1))
	assert.True(t, svc.ShouldValidate(testAgent(1.0, 2), 0.1))
}

func TestShouldValidateRespectsMinInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinValidationInterval = time.Hour
	svc := NewService(&scriptedLLM{response: "CONFIRM. looks right."}, nil, cfg)

	agent := testAgent(1.0, 0)
	require.True(t, svc.ShouldValidate(agent, 0.9))

	_, err := svc.Validate(context.Background(), Request{ID: types.NewValidationID(), AgentID: agent.ID, WebID: agent.WebID, Priority: 0.9})
	require.NoError(t, err)

	assert.False(t, svc.ShouldValidate(agent, 0.9), "revalidating the same agent too soon is refused")
}

func TestComputeValidationPriority(t *testing.T) {
	agent := testAgent(0.6, 0)
	priority := ComputeValidationPriority(agent, 1.0, 0.5)
	assert.InDelta(t, 0.2, priority, 0.001)
}

func TestValidateParsesConfirmJudgment(t *testing.T) {
	llm := &scriptedLLM{response: "CONFIRM 0.9\nThe output matches the evidence."}
	svc := NewService(llm, nil, DefaultConfig())

	result, err := svc.Validate(context.Background(), Request{
		ID:      types.NewValidationID(),
		AgentID: types.NewAgentID(),
		WebID:   types.NewWebID(),
		Context: RequestContext{AgentPurpose: "research"},
	})
	require.NoError(t, err)
	assert.Equal(t, JudgmentConfirm, result.Judgment.Kind)
	assert.InDelta(t, 0.9, result.Judgment.Confidence, 0.001)
}

func TestValidateParsesChallengeJudgment(t *testing.T) {
	llm := &scriptedLLM{response: "CHALLENGE 0.7\nThe claim contradicts the accumulated knowledge."}
	svc := NewService(llm, nil, DefaultConfig())

	result, err := svc.Validate(context.Background(), Request{ID: types.NewValidationID(), AgentID: types.NewAgentID(), WebID: types.NewWebID()})
	require.NoError(t, err)
	assert.Equal(t, JudgmentChallenge, result.Judgment.Kind)
	assert.InDelta(t, 0.7, result.Judgment.Confidence, 0.001)
	assert.Equal(t, "The claim contradicts the accumulated knowledge.", result.Judgment.Reason)
}

func TestValidateParsesUncertainJudgmentAsDefault(t *testing.T) {
	llm := &scriptedLLM{response: "I'm not sure either way."}
	svc := NewService(llm, nil, DefaultConfig())

	result, err := svc.Validate(context.Background(), Request{ID: types.NewValidationID(), AgentID: types.NewAgentID(), WebID: types.NewWebID()})
	require.NoError(t, err)
	assert.Equal(t, JudgmentUncertain, result.Judgment.Kind)
}

func TestValidatePropagatesLLMError(t *testing.T) {
	llm := &scriptedLLM{err: assert.AnError}
	svc := NewService(llm, nil, DefaultConfig())

	_, err := svc.Validate(context.Background(), Request{ID: types.NewValidationID(), AgentID: types.NewAgentID(), WebID: types.NewWebID()})
	assert.Error(t, err)
}

func TestValidateEnforcesBudget(t *testing.T) {
	tracker := newFakeBudgetTracker()
	cfg := DefaultConfig()
	cfg.ValidationBudgetPerWeb = 1
	svc := NewService(&scriptedLLM{response: "CONFIRM 0.9"}, tracker, cfg)

	webID := types.NewWebID()
	_, err := svc.Validate(context.Background(), Request{ID: types.NewValidationID(), AgentID: types.NewAgentID(), WebID: webID})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), Request{ID: types.NewValidationID(), AgentID: types.NewAgentID(), WebID: webID})
	assert.ErrorIs(t, err, ErrBudgetExhausted)
}

func TestValidateRespectsConcurrencyLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrentValidations = 1
	svc := NewService(&scriptedLLM{response: "CONFIRM 0.9"}, nil, cfg)

	svc.sem <- struct{}{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Validate(ctx, Request{ID: types.NewValidationID(), AgentID: types.NewAgentID(), WebID: types.NewWebID()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApplyResultConfirmIncreasesHealth(t *testing.T) {
	agent := testAgent(0.5, 0)
	result := Result{Judgment: Judgment{Kind: JudgmentConfirm, Confidence: 1.0}}

	ApplyResult(&agent, result, time.Now())
	assert.InDelta(t, 0.55, agent.Health, 0.001)
}

func TestApplyResultChallengeDecreasesHealth(t *testing.T) {
	agent := testAgent(0.5, 0)
	result := Result{Judgment: Judgment{Kind: JudgmentChallenge, Confidence: 1.0}}

	ApplyResult(&agent, result, time.Now())
	assert.InDelta(t, 0.35, agent.Health, 0.001)
}

func TestApplyResultChallengeHalvedDuringProbation(t *testing.T) {
	agent := testAgent(0.5, 2)
	result := Result{Judgment: Judgment{Kind: JudgmentChallenge, Confidence: 1.0}}

	ApplyResult(&agent, result, time.Now())
	assert.InDelta(t, 0.425, agent.Health, 0.001, "negative delta halved on probation")
	assert.Equal(t, 1, agent.ProbationRemaining, "probation decrements on every applied result")
}

func TestApplyResultUncertainLeavesHealthUnchanged(t *testing.T) {
	agent := testAgent(0.5, 0)
	result := Result{Judgment: Judgment{Kind: JudgmentUncertain}}

	ApplyResult(&agent, result, time.Now())
	assert.Equal(t, float32(0.5), agent.Health)
}

func TestFakeBudgetTrackerConsumeIsPerWeb(t *testing.T) {
	tracker := newFakeBudgetTracker()
	webA, webB := types.NewWebID(), types.NewWebID()

	ok, err := tracker.Consume(context.Background(), webA, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tracker.Consume(context.Background(), webB, 1)
	require.NoError(t, err)
	assert.True(t, ok, "separate webs have independent budgets")
}
