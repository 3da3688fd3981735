package provider

import "context"

// FallbackDimension is the width of the constant vector FallbackEmbedding
// substitutes when no embedding provider is configured (spec §9,
// "Provider optionality").
const FallbackDimension = 8

// fallbackEmbedding wraps an EmbeddingProvider that may be nil or may fail
// at runtime, returning a fixed constant vector instead so a caller never
// has to nil-check or handle an embedding error itself (spec §9: "the
// core must compile and run without any of them"). Every package that
// stores an EmbeddingProvider should wrap it with this at construction
// time rather than relying on a caller to have wrapped it upstream.
type fallbackEmbedding struct {
	inner EmbeddingProvider
}

// NewFallbackEmbedding wraps inner so Embed/EmbedBatch never fail: a nil
// inner or an inner call that returns an error both degrade to a fixed
// constant vector. Wrapping an already-wrapped provider is a no-op cost,
// so every constructor that accepts an EmbeddingProvider can call this
// unconditionally.
func NewFallbackEmbedding(inner EmbeddingProvider) EmbeddingProvider {
	if _, already := inner.(fallbackEmbedding); already {
		return inner
	}
	return fallbackEmbedding{inner: inner}
}

func (f fallbackEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.inner == nil {
		return constantVector(), nil
	}
	vec, err := f.inner.Embed(ctx, text)
	if err != nil {
		return constantVector(), nil
	}
	return vec, nil
}

func (f fallbackEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.inner == nil {
		return constantVectors(len(texts)), nil
	}
	vecs, err := f.inner.EmbedBatch(ctx, texts)
	if err != nil {
		return constantVectors(len(texts)), nil
	}
	return vecs, nil
}

func constantVector() []float32 {
	v := make([]float32, FallbackDimension)
	for i := range v {
		v[i] = 1
	}
	return v
}

func constantVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = constantVector()
	}
	return out
}

// unavailableLLM answers every completion request with ErrProviderUnavailable
// rather than panicking on a nil method receiver, so a deployment with no
// completion provider configured still runs the coordination loop to a
// graceful Failed/NeedsMore outcome instead of crashing (spec §8 scenario
// 3, spec §9 "Provider optionality").
type unavailableLLM struct{}

func (unavailableLLM) Complete(context.Context, []Message) (string, error) {
	return "", ErrProviderUnavailable
}

// NewFallbackLLM wraps inner so a nil LLMProvider still satisfies the
// interface instead of causing a nil-pointer call. A non-nil inner is
// returned unchanged: unlike embeddings, a failing completion call is
// meaningful to the caller (the executor surfaces it as a failed
// execution) and should not be silently substituted.
func NewFallbackLLM(inner LLMProvider) LLMProvider {
	if inner == nil {
		return unavailableLLM{}
	}
	return inner
}
