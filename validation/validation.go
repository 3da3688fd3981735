// Package validation implements the out-of-band judgement service that
// samples agent outputs and nudges health accordingly. It never sits on
// the coordination loop's critical path (spec §4.8).
package validation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/types"
)

// ErrBudgetExhausted is returned when a web has used its full validation
// budget for the current window.
var ErrBudgetExhausted = errors.New("validation: web validation budget exhausted")

const validationSystemPrompt = "You are a validation agent. Assess whether the output is accurate, " +
	"consistent with context, and appropriate for the stated purpose. Respond with CONFIRM, " +
	"CHALLENGE, or UNCERTAIN followed by your reasoning."

// Config tunes the validation service's concurrency and per-web budget.
type Config struct {
	MaxConcurrentValidations int
	ValidationBudgetPerWeb   int
	MinValidationInterval    time.Duration
}

// DefaultConfig mirrors the original implementation's defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentValidations: 5,
		ValidationBudgetPerWeb:   50,
		MinValidationInterval:    100 * time.Millisecond,
	}
}

// RequestContext carries the information the judge needs beyond the raw
// output: what the agent was trying to do and what it already knew.
type RequestContext struct {
	AgentPurpose         string
	TriggerSignal        string
	AccumulatedKnowledge []string
}

// Request asks the service to judge one agent output.
type Request struct {
	ID       types.ValidationID
	AgentID  types.AgentID
	WebID    types.WebID
	Output   any
	Context  RequestContext
	Priority float32
}

// JudgmentKind is the closed sum type a judge's verdict belongs to.
type JudgmentKind string

const (
	JudgmentConfirm   JudgmentKind = "confirm"
	JudgmentChallenge JudgmentKind = "challenge"
	JudgmentUncertain JudgmentKind = "uncertain"
)

// Judgment is the judge's verdict. Confidence is populated for Confirm
// and Challenge; Reason is populated for Challenge and Uncertain.
type Judgment struct {
	Kind       JudgmentKind
	Confidence float32
	Reason     string
}

// Result is the outcome of validating one request.
type Result struct {
	RequestID   types.ValidationID
	AgentID     types.AgentID
	Judgment    Judgment
	RawResponse string
	ValidatedAt time.Time
}

// BudgetTracker enforces a bound on validations per web over some
// tracker-defined window. Consume reports whether the call is within
// budget, incrementing the counter as a side effect.
type BudgetTracker interface {
	Consume(ctx context.Context, webID types.WebID, limit int) (bool, error)
}

// Service judges sampled agent outputs against an LLM provider, bounding
// itself by a concurrency semaphore, an optional per-web budget, and a
// minimum interval between successive validations of the same agent.
type Service struct {
	llm    provider.LLMProvider
	budget BudgetTracker
	config Config
	sem    chan struct{}

	mu   sync.Mutex
	last map[types.AgentID]time.Time
}

// NewService wires a validation service. budget may be nil, in which case
// no per-web budget is enforced (only the concurrency bound applies). llm
// is wrapped with provider.NewFallbackLLM so a deployment with no
// completion provider configured returns an error from Validate instead
// of panicking (spec §9 "Provider optionality").
func NewService(llm provider.LLMProvider, budget BudgetTracker, config Config) *Service {
	return &Service{
		llm:    provider.NewFallbackLLM(llm),
		budget: budget,
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrentValidations),
		last:   make(map[types.AgentID]time.Time),
	}
}

// ShouldValidate decides whether an output is worth validating: always
// above the high-priority threshold, always above the medium threshold,
// and otherwise only for agents already showing signs of trouble (spec
// §4.8). An agent validated within the configured minimum interval is
// never revalidated, regardless of priority.
func (s *Service) ShouldValidate(agent types.Agent, priority float32) bool {
	if s.tooSoon(agent.ID) {
		return false
	}
	if priority > 0.8 {
		return true
	}
	if priority > 0.4 {
		return true
	}
	return agent.Health < 0.7 || agent.ProbationRemaining > 0
}

func (s *Service) tooSoon(agentID types.AgentID) bool {
	if s.config.MinValidationInterval <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.last[agentID]
	return ok && time.Since(last) < s.config.MinValidationInterval
}

func (s *Service) markValidated(agentID types.AgentID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[agentID] = at
}

// ComputeValidationPriority combines an output's estimated impact and
// uncertainty with the agent's current health to produce a priority in
// roughly [0,1] (spec §4.8).
func ComputeValidationPriority(agent types.Agent, impact, uncertainty float32) float32 {
	healthFactor := 1 - agent.Health
	return impact * healthFactor * uncertainty
}

// Validate judges req against an LLM, respecting the concurrency
// semaphore and per-web budget before making the call.
func (s *Service) Validate(ctx context.Context, req Request) (Result, error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	if s.budget != nil {
		ok, err := s.budget.Consume(ctx, req.WebID, s.config.ValidationBudgetPerWeb)
		if err != nil {
			return Result{}, fmt.Errorf("validation: check budget: %w", err)
		}
		if !ok {
			return Result{}, ErrBudgetExhausted
		}
	}

	prompt := buildValidationPrompt(req)
	response, err := s.llm.Complete(ctx, []provider.Message{
		provider.System(validationSystemPrompt),
		provider.User(prompt),
	})
	if err != nil {
		return Result{}, fmt.Errorf("validation: judge completion: %w", err)
	}

	s.markValidated(req.AgentID, time.Now())

	return Result{
		RequestID:   req.ID,
		AgentID:     req.AgentID,
		Judgment:    parseJudgment(response),
		RawResponse: response,
		ValidatedAt: time.Now(),
	}, nil
}

// ApplyResult applies a validation verdict's health delta to agent and
// decrements its probation window, mirroring spec §4.8's deltas
// (+0.05·conf / −0.15·conf halved on probation / 0) via the shared
// lifecycle health machinery (spec §4.6).
func ApplyResult(agent *types.Agent, result Result, at time.Time) {
	switch result.Judgment.Kind {
	case JudgmentConfirm:
		lifecycle.ApplyHealthDelta(agent, 0.05*result.Judgment.Confidence, types.ReasonValidationConfirm, at)
	case JudgmentChallenge:
		lifecycle.ApplyHealthDelta(agent, -0.15*result.Judgment.Confidence, types.ReasonValidationChallenge, at)
	}
	lifecycle.CompleteExecution(agent)
}

func buildValidationPrompt(req Request) string {
	trigger := req.Context.TriggerSignal
	if trigger == "" {
		trigger = "(initial task)"
	}
	knowledge := strings.Join(req.Context.AccumulatedKnowledge, "\n")
	return fmt.Sprintf(
		"Agent Purpose: %s\n\nTrigger: %s\n\nContext:\n%s\n\nOutput to Validate:\n%v\n\nIs this output accurate and appropriate?",
		req.Context.AgentPurpose, trigger, knowledge, req.Output,
	)
}

func parseJudgment(response string) Judgment {
	lower := strings.ToLower(response)
	switch {
	case strings.Contains(lower, "confirm"):
		return Judgment{Kind: JudgmentConfirm, Confidence: extractConfidence(response, 0.8)}
	case strings.Contains(lower, "challenge"):
		lines := strings.SplitN(response, "\n", 2)
		reason := ""
		if len(lines) > 1 {
			reason = strings.TrimSpace(lines[1])
		}
		return Judgment{Kind: JudgmentChallenge, Confidence: extractConfidence(response, 0.8), Reason: reason}
	default:
		return Judgment{Kind: JudgmentUncertain, Reason: response}
	}
}

// extractConfidence scans response for the first whitespace-delimited
// token that parses as a float in [0,1], falling back to def.
func extractConfidence(response string, def float32) float32 {
	for _, word := range strings.Fields(response) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !('0' <= r && r <= '9') && r != '.'
		})
		if trimmed == "" {
			continue
		}
		val, err := strconv.ParseFloat(trimmed, 32)
		if err != nil {
			continue
		}
		if val >= 0 && val <= 1 {
			return float32(val)
		}
	}
	return def
}
