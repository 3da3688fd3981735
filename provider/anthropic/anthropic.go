// Package anthropic provides a provider.LLMProvider implementation backed by
// the Anthropic Messages API via github.com/anthropics/anthropic-sdk-go.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/Pharbi/arachnid/provider"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "claude-3-5-sonnet-20240620"

// MessagesClient captures the subset of the Anthropic SDK client the
// adapter calls. It is satisfied by *sdk.MessageService so tests can
// substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures a Provider.
type Options struct {
	// Model is the Claude model identifier. Defaults to DefaultModel.
	Model string
	// MaxTokens caps the completion length. Defaults to 1024.
	MaxTokens int
	// Temperature is forwarded to every request when positive.
	Temperature float64
	// Breaker trips the adapter open after repeated upstream failures.
	// A nil Breaker disables circuit breaking.
	Breaker *gobreaker.CircuitBreaker
	// Backoff retries transient failures before giving up. A nil
	// Backoff disables retries (a single attempt is made).
	Backoff backoff.BackOff
}

// Provider implements provider.LLMProvider against Anthropic's Messages API.
type Provider struct {
	msg         MessagesClient
	model       string
	maxTokens   int64
	temperature float64
	breaker     *gobreaker.CircuitBreaker
	retry       backoff.BackOff
}

// New builds a Provider from an already-constructed Anthropic Messages
// client, typically &sdk.NewClient(...).Messages.
func New(msg MessagesClient, opts Options) (*Provider, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Provider{
		msg:         msg,
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: opts.Temperature,
		breaker:     opts.Breaker,
		retry:       opts.Backoff,
	}, nil
}

// NewFromAPIKey constructs a Provider using the SDK's default HTTP client.
func NewFromAPIKey(apiKey string, opts Options) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Messages, opts)
}

// Complete sends messages to Claude and returns the concatenated text of
// the assistant's reply. System-role messages are collected into the
// request's top-level system prompt, matching Anthropic's wire format.
func (p *Provider) Complete(ctx context.Context, messages []provider.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("anthropic: messages are required")
	}

	params, err := p.buildParams(messages)
	if err != nil {
		return "", err
	}

	call := func() (*sdk.Message, error) {
		return p.msg.New(ctx, *params)
	}
	if p.breaker != nil {
		result, err := p.breaker.Execute(func() (any, error) { return p.withRetry(call) })
		if err != nil {
			return "", fmt.Errorf("anthropic messages.new: %w", err)
		}
		return extractText(result.(*sdk.Message)), nil
	}

	msg, err := p.withRetry(call)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	return extractText(msg), nil
}

func (p *Provider) withRetry(call func() (*sdk.Message, error)) (*sdk.Message, error) {
	if p.retry == nil {
		return call()
	}
	var msg *sdk.Message
	op := func() error {
		m, err := call()
		if err != nil {
			return err
		}
		msg = m
		return nil
	}
	if err := backoff.Retry(op, p.retry); err != nil {
		return nil, err
	}
	return msg, nil
}

func (p *Provider) buildParams(messages []provider.Message) (*sdk.MessageNewParams, error) {
	conversation := make([]sdk.MessageParam, 0, len(messages))
	var system []sdk.TextBlockParam

	for _, m := range messages {
		switch m.Role {
		case provider.RoleSystem:
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case provider.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case provider.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			return nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, errors.New("anthropic: at least one user/assistant message is required")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	if p.temperature > 0 {
		params.Temperature = sdk.Float(p.temperature)
	}
	return &params, nil
}

func extractText(msg *sdk.Message) string {
	if msg == nil {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
