package provider

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// rateLimitedLLM applies an AIMD-style adaptive token bucket on top of an
// LLMProvider: it estimates the token cost of each request, blocks the
// caller until capacity is available, and halves its effective budget
// whenever the inner provider reports ErrRateLimited, recovering it
// gradually on every successful call. Grounded on the teacher's
// features/model/middleware AdaptiveRateLimiter, simplified to a
// process-local limiter (the teacher's cluster-wide coordination via a
// Pulse replicated map has no counterpart here — a single coordinatord
// process is the unit of deployment, spec §9).
type rateLimitedLLM struct {
	inner LLMProvider

	mu         sync.Mutex
	limiter    *rate.Limiter
	currentTPM float64
	minTPM     float64
	maxTPM     float64
	recovery   float64
}

// NewRateLimitedLLM wraps inner with an adaptive tokens-per-minute budget.
// initialTPM is the starting budget; maxTPM bounds how far it may recover
// after a backoff. A zero or negative initialTPM defaults to 60000 (a
// conservative per-minute budget for a single completion provider).
func NewRateLimitedLLM(inner LLMProvider, initialTPM, maxTPM float64) LLMProvider {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recovery := initialTPM * 0.05
	if recovery < 1 {
		recovery = 1
	}
	return &rateLimitedLLM{
		inner:      inner,
		limiter:    rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM: initialTPM,
		minTPM:     minTPM,
		maxTPM:     maxTPM,
		recovery:   recovery,
	}
}

func (l *rateLimitedLLM) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := l.limiter.WaitN(ctx, estimateTokens(messages)); err != nil {
		return "", err
	}
	response, err := l.inner.Complete(ctx, messages)
	l.observe(err)
	return response, err
}

func (l *rateLimitedLLM) observe(err error) {
	if err == nil {
		l.adjust(l.currentTPM + l.recovery)
		return
	}
	if errors.Is(err, ErrRateLimited) {
		l.adjust(l.currentTPM * 0.5)
	}
}

func (l *rateLimitedLLM) adjust(newTPM float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if newTPM < l.minTPM {
		newTPM = l.minTPM
	}
	if newTPM > l.maxTPM {
		newTPM = l.maxTPM
	}
	if newTPM == l.currentTPM {
		return
	}
	l.currentTPM = newTPM
	l.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	l.limiter.SetBurst(int(newTPM))
}

// estimateTokens approximates message token count at one token per four
// characters, plus a fixed buffer for provider framing and system prompt
// overhead, so even an empty request still costs something against the
// budget.
func estimateTokens(messages []Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	tokens := chars/4 + 200
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
