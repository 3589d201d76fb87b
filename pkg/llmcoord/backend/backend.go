// Package backend provides concrete, swappable LLMBackend implementations
// for pkg/llmcoord's structured-output retry loop. spec.md frames "the LLM
// backend HTTP client" as an external collaborator (§1 Non-goals) and keeps
// the interface abstract; this package wires a reference implementation
// anyway so the Anthropic and OpenAI SDK dependencies the pack supplies
// have a concrete home, per SPEC_FULL.md §2's "wire it or delete it"
// directive. Grounded on goadesign-goa-ai's
// features/model/anthropic/client.go adapter shape (MessagesClient seam,
// Options struct, NewFromAPIKey constructor), narrowed from that package's
// full streaming/tool-use surface to the single-shot text completion this
// domain needs.
package backend

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaisdk "github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

// Message is one chat turn in a structured-output call.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// LLMBackend is the abstract interface pkg/llmcoord's structured-output
// retry loop depends on. spec.md keeps the LLM backend itself an external
// collaborator; this is the seam that lets Anthropic/OpenAI/test-fake
// implementations swap in behind it.
type LLMBackend interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Anthropic implements LLMBackend over the Anthropic Messages API.
type Anthropic struct {
	client    anthropicsdk.Client
	model     string
	maxTokens int64
}

// NewAnthropic constructs an Anthropic-backed LLMBackend.
func NewAnthropic(apiKey, model string, maxTokens int64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Anthropic{
		client:    anthropicsdk.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *Anthropic) Complete(ctx context.Context, messages []Message) (string, error) {
	var system []anthropicsdk.TextBlockParam
	var turns []anthropicsdk.MessageParam

	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropicsdk.TextBlockParam{Text: m.Content})
		case "assistant":
			turns = append(turns, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content)))
		}
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", errors.New("anthropic: empty response content")
	}
	return msg.Content[0].Text, nil
}

// OpenAI implements LLMBackend over the Chat Completions API.
type OpenAI struct {
	client openaisdk.Client
	model  string
}

// NewOpenAI constructs an OpenAI-backed LLMBackend.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openaisdk.NewClient(openaioption.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (o *OpenAI) Complete(ctx context.Context, messages []Message) (string, error) {
	var turns []openaisdk.ChatCompletionMessageParamUnion
	for _, m := range messages {
		switch m.Role {
		case "system":
			turns = append(turns, openaisdk.SystemMessage(m.Content))
		case "assistant":
			turns = append(turns, openaisdk.AssistantMessage(m.Content))
		default:
			turns = append(turns, openaisdk.UserMessage(m.Content))
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    o.model,
		Messages: turns,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat.completions.new: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response choices")
	}
	return resp.Choices[0].Message.Content, nil
}
