package generator

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// It also serves OpenAI-compatible endpoints selected through BaseURL.
type OpenAILLM struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, NewError(KindCredentialMissing, "openai api key missing; provide llm.api_key or llm.api_key_env", nil)
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	// Retries are a user decision, so the SDK's own retry loop is disabled.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{Model: cfg.Model, Opts: opts}, nil
}

// Complete sends one chat completion. Chat endpoints take no per-call safety
// settings; suppression is reported back through finish_reason instead.
func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt, _ SafetyConfig) (string, error) {
	client := openai.NewClient(o.Opts...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewError(KindUnknown, "openai: empty choices", nil)
	}
	choice := resp.Choices[0]
	if string(choice.FinishReason) == "content_filter" {
		return "", NewError(KindContentBlocked, "response suppressed by content filter", nil)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", NewError(KindUnknown, "openai: empty message content", nil)
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return NewError(classifyStatus(apiErr.StatusCode, apiErr.Message), apiErr.Message, err)
	}
	if kind, ok := classifyTransport(err); ok {
		return NewError(kind, "", err)
	}
	return NewError(KindUnknown, "", err)
}
