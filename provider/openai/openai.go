// Package openai provides a provider.EmbeddingProvider implementation backed
// by the OpenAI Embeddings API via github.com/openai/openai-go.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"

	"github.com/Pharbi/arachnid/provider"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = sdk.EmbeddingModelTextEmbedding3Small

// EmbeddingsClient captures the subset of the OpenAI SDK client the
// adapter calls. It is satisfied by *sdk.EmbeddingService so tests can
// substitute a fake.
type EmbeddingsClient interface {
	New(ctx context.Context, body sdk.EmbeddingNewParams, opts ...option.RequestOption) (*sdk.CreateEmbeddingResponse, error)
}

// Options configures a Provider.
type Options struct {
	// Model is the embedding model identifier. Defaults to DefaultModel.
	Model string
	// Breaker trips the adapter open after repeated upstream failures. A
	// nil Breaker disables circuit breaking.
	Breaker *gobreaker.CircuitBreaker
}

// Provider implements provider.EmbeddingProvider against OpenAI's
// Embeddings API.
type Provider struct {
	embeddings EmbeddingsClient
	model      string
	breaker    *gobreaker.CircuitBreaker
}

// New builds a Provider from an already-constructed OpenAI embeddings
// client, typically &sdk.NewClient(...).Embeddings.
func New(embeddings EmbeddingsClient, opts Options) (*Provider, error) {
	if embeddings == nil {
		return nil, errors.New("openai: embeddings client is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = string(DefaultModel)
	}
	return &Provider{embeddings: embeddings, model: model, breaker: opts.Breaker}, nil
}

// NewFromAPIKey constructs a Provider using the SDK's default HTTP client.
func NewFromAPIKey(apiKey string, opts Options) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Embeddings, opts)
}

// Embed computes the embedding for a single string by delegating to
// EmbedBatch with a one-element slice.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("openai: embeddings response contained no vectors")
	}
	return vectors[0], nil
}

// EmbedBatch computes embeddings for every string in texts in a single
// request, preserving input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("openai: at least one input text is required")
	}

	params := sdk.EmbeddingNewParams{
		Model: sdk.EmbeddingModel(p.model),
		Input: sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}

	call := func() (*sdk.CreateEmbeddingResponse, error) {
		return p.embeddings.New(ctx, params)
	}

	var resp *sdk.CreateEmbeddingResponse
	var err error
	if p.breaker != nil {
		var result any
		result, err = p.breaker.Execute(func() (any, error) { return call() })
		if err == nil {
			resp = result.(*sdk.CreateEmbeddingResponse)
		}
	} else {
		resp, err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("openai embeddings.new: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		if int(d.Index) < len(out) {
			out[d.Index] = vec
		}
	}
	return out, nil
}

var _ provider.EmbeddingProvider = (*Provider)(nil)
