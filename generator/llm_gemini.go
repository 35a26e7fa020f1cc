package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when llm.model is empty.
const DefaultGeminiModel = "gemini-1.5-flash-latest"

// GeminiLLM implements LLMClient on the Gemini API via google.golang.org/genai.
type GeminiLLM struct {
	Model  string
	client *genai.Client
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, NewError(KindCredentialMissing, "gemini api key missing; set GEMINI_API_KEY", nil)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiLLM{Model: model, client: client}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt, safety SafetyConfig) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: geminiSafetySettings(safety),
	}
	if prompt.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}}
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt.User}}}}

	resp, err := g.client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return geminiText(resp)
}

var geminiCategories = map[HarmCategory]genai.HarmCategory{
	HarmHarassment:       genai.HarmCategoryHarassment,
	HarmHateSpeech:       genai.HarmCategoryHateSpeech,
	HarmSexuallyExplicit: genai.HarmCategorySexuallyExplicit,
	HarmDangerousContent: genai.HarmCategoryDangerousContent,
}

var geminiThresholds = map[BlockThreshold]genai.HarmBlockThreshold{
	BlockLowAndAbove:    genai.HarmBlockThresholdBlockLowAndAbove,
	BlockMediumAndAbove: genai.HarmBlockThresholdBlockMediumAndAbove,
	BlockOnlyHigh:       genai.HarmBlockThresholdBlockOnlyHigh,
	BlockNone:           genai.HarmBlockThresholdBlockNone,
}

func geminiSafetySettings(safety SafetyConfig) []*genai.SafetySetting {
	var out []*genai.SafetySetting
	for _, c := range safety.Categories() {
		cat, ok := geminiCategories[c]
		if !ok {
			continue
		}
		th, ok := geminiThresholds[safety[c]]
		if !ok {
			continue
		}
		out = append(out, &genai.SafetySetting{Category: cat, Threshold: th})
	}
	return out
}

// geminiText extracts the first candidate's text, telling a safety block
// apart from a genuinely empty answer.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", NewError(KindUnknown, "gemini: nil response", nil)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", NewError(KindContentBlocked, fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason), nil)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", NewError(KindUnknown, "gemini: no candidates", nil)
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return "", NewError(KindContentBlocked, fmt.Sprintf("response blocked: %s", cand.FinishReason), nil)
	}
	if cand.Content == nil {
		return "", NewError(KindUnknown, fmt.Sprintf("gemini: empty content (finish reason %s)", cand.FinishReason), nil)
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", NewError(KindUnknown, fmt.Sprintf("gemini: empty text (finish reason %s)", cand.FinishReason), nil)
	}
	return sb.String(), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return NewError(classifyStatus(apiErr.Code, apiErr.Message), apiErr.Message, err)
	}
	if kind, ok := classifyTransport(err); ok {
		return NewError(kind, "", err)
	}
	return NewError(KindUnknown, "", err)
}
