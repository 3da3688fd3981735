// Package bedrock provides a provider.LLMProvider implementation backed by
// the AWS Bedrock Converse API via
// github.com/aws/aws-sdk-go-v2/service/bedrockruntime. It is a third
// interchangeable LLMProvider alongside provider/anthropic, matching the
// teacher's own three model.Client backends (Anthropic direct, OpenAI,
// Bedrock).
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/Pharbi/arachnid/provider"
)

// RuntimeClient captures the subset of the Bedrock runtime client the
// adapter calls. It is satisfied by *bedrockruntime.Client so tests can
// substitute a fake.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures a Provider.
type Options struct {
	// ModelID is the Bedrock model identifier, e.g.
	// "anthropic.claude-3-5-sonnet-20240620-v1:0". Required.
	ModelID string
	// MaxTokens caps the completion length. Defaults to 1024.
	MaxTokens int32
	// Temperature is forwarded to every request when positive.
	Temperature float32
}

// Provider implements provider.LLMProvider against AWS Bedrock's Converse
// API.
type Provider struct {
	runtime     RuntimeClient
	modelID     string
	maxTokens   int32
	temperature float32
}

// New builds a Provider from an already-constructed Bedrock runtime
// client, typically bedrockruntime.NewFromConfig(awsCfg).
func New(runtime RuntimeClient, opts Options) (*Provider, error) {
	if runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, errors.New("bedrock: model id is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Provider{runtime: runtime, modelID: opts.ModelID, maxTokens: maxTokens, temperature: opts.Temperature}, nil
}

// Complete sends messages to the configured Bedrock model via Converse and
// returns the concatenated text of the assistant's reply. System-role
// messages are collected into the request's top-level System field,
// matching Bedrock's wire format.
func (p *Provider) Complete(ctx context.Context, messages []provider.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("bedrock: messages are required")
	}

	input, err := p.buildInput(messages)
	if err != nil {
		return "", err
	}

	output, err := p.runtime.Converse(ctx, input)
	if err != nil {
		if isRateLimited(err) {
			return "", fmt.Errorf("%w: %w", provider.ErrRateLimited, err)
		}
		return "", fmt.Errorf("bedrock converse: %w", err)
	}
	return extractText(output), nil
}

func (p *Provider) buildInput(messages []provider.Message) (*bedrockruntime.ConverseInput, error) {
	conversation := make([]brtypes.Message, 0, len(messages))
	var system []brtypes.SystemContentBlock

	for _, m := range messages {
		switch m.Role {
		case provider.RoleSystem:
			if m.Content != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
			}
		case provider.RoleUser:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case provider.RoleAssistant:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		default:
			return nil, fmt.Errorf("bedrock: unsupported message role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, errors.New("bedrock: at least one user/assistant message is required")
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.modelID),
		Messages: conversation,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(p.maxTokens),
		},
	}
	if len(system) > 0 {
		input.System = system
	}
	if p.temperature > 0 {
		input.InferenceConfig.Temperature = aws.Float32(p.temperature)
	}
	return input, nil
}

func extractText(output *bedrockruntime.ConverseOutput) string {
	if output == nil {
		return ""
	}
	msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}

// isRateLimited reports whether err represents a throttling response from
// Bedrock, either as a typed smithy API error or a raw 429 from the
// underlying HTTP transport.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 429 {
		return true
	}
	return false
}

var _ provider.LLMProvider = (*Provider)(nil)
