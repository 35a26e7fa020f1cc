package canvas

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"lean_canvas_coach/generator"
)

// OversizePolicy decides what happens to embedded text over the size limit.
type OversizePolicy string

const (
	OversizeReject   OversizePolicy = "reject"
	OversizeTruncate OversizePolicy = "truncate"
)

// DefaultMaxEmbeddedChars keeps a prompt well inside the model's input window.
const DefaultMaxEmbeddedChars = 24000

// SizeLimit bounds every piece of text embedded into a prompt.
type SizeLimit struct {
	MaxChars int
	Policy   OversizePolicy
}

// PromptBuilder turns workflow state into model prompts. It holds no state
// beyond its limit, so the same input always yields the same prompt.
type PromptBuilder struct {
	limit SizeLimit
}

func NewPromptBuilder(limit SizeLimit) *PromptBuilder {
	if limit.MaxChars <= 0 {
		limit.MaxChars = DefaultMaxEmbeddedChars
	}
	if limit.Policy == "" {
		limit.Policy = OversizeReject
	}
	return &PromptBuilder{limit: limit}
}

// Draft builds the first-canvas prompt. Required fields are checked by the
// InputCollector before this is called.
func (b *PromptBuilder) Draft(inputs InputRecord) (generator.Prompt, error) {
	var sb strings.Builder
	sb.WriteString("### Provided information:\n")
	for _, f := range AllFields() {
		v := inputs.Get(f)
		if v == "" {
			v = "(not provided)"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", f, v)
	}
	summary, err := b.fit("input summary", sb.String())
	if err != nil {
		return generator.Prompt{}, err
	}

	var user strings.Builder
	user.WriteString("Based on the information provided below, create a Lean Canvas draft that organises this new business idea.\n\n")
	user.WriteString(summary)
	user.WriteString("\n### Instructions:\n")
	user.WriteString("1. Make full use of the provided information above to fill in every section of the Lean Canvas.\n")
	user.WriteString("2. Be especially concrete in Problem, Customer Segments, Solution, Unique Value Proposition and Unfair Advantage.\n")
	user.WriteString("3. Fill in the remaining sections (Channels, Revenue Streams, Cost Structure, Key Metrics, Existing Alternatives) as far as they can reasonably be inferred.\n")
	user.WriteString("4. Write the output in readable Markdown. Use a bold header for each section (for example `**Problem:**`).\n")
	user.WriteString("\n### Lean Canvas draft:\n")

	return generator.Prompt{
		System: "You are an experienced startup incubator.",
		User:   user.String(),
	}, nil
}

var feedbackTmpl = template.Must(template.New("feedback").Parse(`Review the following Lean Canvas draft rigorously and give constructive feedback.

### Lean Canvas draft under review:
{{.Fence}}markdown
{{.Draft}}
{{.Fence}}

### Feedback dimensions:
1. **Strengths:** What is good about this plan? Where do you see potential?
2. **Weaknesses/Concerns:** What is unclear, contradictory, high-risk or not concrete enough? Which hypotheses are weak?
3. **Missing perspectives:** Which important elements are not considered (deeper customer needs, competitive analysis, market size, market trends, regulation, how to validate the hypotheses)? Is the plan too technology-oriented?
4. **Next steps/Questions:** What should the author think about and validate next to bring this idea closer to success? Write at least three concrete questions.

Make the feedback specific, insightful and actionable rather than a general impression. A critical perspective is welcome. Write the output in Markdown.
`))

// Feedback builds the critique prompt for a draft.
func (b *PromptBuilder) Feedback(draft string) (generator.Prompt, error) {
	if strings.TrimSpace(draft) == "" {
		return generator.Prompt{}, fmt.Errorf("%w: feedback needs a draft", ErrStageNotReady)
	}
	d, err := b.fit("draft", draft)
	if err != nil {
		return generator.Prompt{}, err
	}
	user, err := render(feedbackTmpl, map[string]string{
		"Draft": d,
		"Fence": fenceFor(d),
	})
	if err != nil {
		return generator.Prompt{}, err
	}
	return generator.Prompt{
		System: "You are an experienced venture capitalist (VC).",
		User:   user,
	}, nil
}

var revisionTmpl = template.Must(template.New("revision").Parse(`Read the original Lean Canvas draft and the feedback on it below, then create a **revised Lean Canvas** that reflects the feedback.

### Original Lean Canvas draft:
{{.DraftFence}}markdown
{{.Draft}}
{{.DraftFence}}

### Feedback:
{{.FeedbackFence}}markdown
{{.Feedback}}
{{.FeedbackFence}}

### Revision instructions:
1. Revise and extend the original draft so that it addresses every weakness and concern raised in the feedback.
2. Where possible, reflect answers to the suggested next steps and questions in the canvas sections (for example, add hypothesis-validation methods to [Key Metrics], or account for risks under [Cost Structure] or [Problem]).
3. Keep and strengthen the strengths of the original draft.
4. Output the complete revised Lean Canvas. Follow the format of the original draft in readable Markdown, with a bold header for each section (for example ` + "`**Problem:**`" + `).

### Revised Lean Canvas:
`))

// Revision builds the prompt that applies feedback to a draft.
func (b *PromptBuilder) Revision(draft, feedback string) (generator.Prompt, error) {
	if strings.TrimSpace(draft) == "" {
		return generator.Prompt{}, fmt.Errorf("%w: revision needs a draft", ErrStageNotReady)
	}
	if strings.TrimSpace(feedback) == "" {
		return generator.Prompt{}, fmt.Errorf("%w: revision needs feedback", ErrStageNotReady)
	}
	d, err := b.fit("draft", draft)
	if err != nil {
		return generator.Prompt{}, err
	}
	fb, err := b.fit("feedback", feedback)
	if err != nil {
		return generator.Prompt{}, err
	}
	user, err := render(revisionTmpl, map[string]string{
		"Draft":         d,
		"DraftFence":    fenceFor(d),
		"Feedback":      fb,
		"FeedbackFence": fenceFor(fb),
	})
	if err != nil {
		return generator.Prompt{}, err
	}
	return generator.Prompt{
		System: "You are an experienced business strategist.",
		User:   user,
	}, nil
}

var analysisTmpl = template.Must(template.New("analysis").Parse(`{{.D.Task}}

### Lean Canvas:
{{.Fence}}markdown
{{.Canvas}}
{{.Fence}}

### {{.D.Name}}:
{{range .D.Headings}}**{{.Title}}:**{{if .Hint}} ({{.Hint}}){{end}}
{{end}}
{{.D.Closing}}
`))

// Analysis builds the prompt for one framework over the canvas text.
func (b *PromptBuilder) Analysis(f Framework, canvasText string) (generator.Prompt, error) {
	d, ok := f.Descriptor()
	if !ok {
		return generator.Prompt{}, fmt.Errorf("no prompt defined for framework %d", int(f))
	}
	if strings.TrimSpace(canvasText) == "" {
		return generator.Prompt{}, fmt.Errorf("%w: %s needs a draft or revision", ErrStageNotReady, d.Name)
	}
	c, err := b.fit("canvas", canvasText)
	if err != nil {
		return generator.Prompt{}, err
	}
	user, err := render(analysisTmpl, struct {
		D      FrameworkDescriptor
		Canvas string
		Fence  string
	}{D: d, Canvas: c, Fence: fenceFor(c)})
	if err != nil {
		return generator.Prompt{}, err
	}
	return generator.Prompt{System: d.Role, User: user}, nil
}

// fit applies the size limit to one embedded text.
func (b *PromptBuilder) fit(what, text string) (string, error) {
	runes := []rune(text)
	if len(runes) <= b.limit.MaxChars {
		return text, nil
	}
	over := len(runes) - b.limit.MaxChars
	if b.limit.Policy == OversizeTruncate {
		return string(runes[:b.limit.MaxChars]) + fmt.Sprintf("\n\n[... truncated %d characters ...]", over), nil
	}
	return "", &ValidationError{
		Reason: fmt.Sprintf("%s is %d characters, over the %d character limit", what, len(runes), b.limit.MaxChars),
	}
}

// fenceFor returns a backtick fence longer than any backtick run in text,
// so embedded Markdown cannot close the block early.
func fenceFor(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
