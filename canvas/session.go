package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lean_canvas_coach/generator"
)

// Options carries the configurable policies of a session.
type Options struct {
	// Required is the required input set; DefaultRequired when empty.
	Required []Field
	// InvalidateAnalyses clears stored analyses whenever the canvas text
	// they were computed from changes. Off by default: analyses stay as
	// they were until re-run.
	InvalidateAnalyses bool
	Limit              SizeLimit
}

// Turn records one successful stage.
type Turn struct {
	Action    string    `json:"action" yaml:"action"`
	Framework string    `json:"framework,omitempty" yaml:"framework,omitempty"`
	Summary   string    `json:"summary" yaml:"summary"`
	Chars     int       `json:"chars" yaml:"chars"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Session owns one founder's WorkflowState and drives its transitions.
// A Session is not safe for concurrent use; callers serialise actions.
type Session struct {
	ID      string
	State   *WorkflowState
	History []Turn

	opts      Options
	agent     *Agent
	collector *InputCollector
	builder   *PromptBuilder
	registry  *AnalysisRegistry
}

// NewSession creates a session with empty state; nothing is generated yet.
func NewSession(id string, agent *Agent, opts Options) (*Session, error) {
	if agent == nil {
		return nil, errors.New("agent is required")
	}
	builder := NewPromptBuilder(opts.Limit)
	registry, err := NewAnalysisRegistry(builder, agent)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		State:     NewWorkflowState(),
		opts:      opts,
		agent:     agent,
		collector: NewInputCollector(opts.Required),
		builder:   builder,
		registry:  registry,
	}, nil
}

// Collector exposes the session's required-field policy.
func (s *Session) Collector() *InputCollector { return s.collector }

// Frameworks lists the analyses available to this session.
func (s *Session) Frameworks() []FrameworkDescriptor { return s.registry.List() }

// Submit validates rec. When accepted it replaces the inputs and clears
// draft, feedback and revision; when rejected nothing changes.
func (s *Session) Submit(rec InputRecord) ValidationResult {
	res := s.collector.Validate(rec)
	if !res.Accepted() {
		return res
	}
	s.State.applyInputs(rec, s.opts.InvalidateAnalyses)
	return res
}

// GenerateDraft drafts a canvas from the current inputs. Feedback and
// revision are cleared only once the new draft is in.
func (s *Session) GenerateDraft(ctx context.Context) (string, error) {
	if err := s.collector.Validate(s.State.Inputs).Err(); err != nil {
		return "", err
	}
	return s.runStage(ctx, "draft", "",
		func() (generator.Prompt, error) { return s.builder.Draft(s.State.Inputs) },
		func(text string) { s.State.applyDraft(text, s.opts.InvalidateAnalyses) },
	)
}

// GenerateFeedback critiques the current draft and clears any revision.
func (s *Session) GenerateFeedback(ctx context.Context) (string, error) {
	return s.runStage(ctx, "feedback", "",
		func() (generator.Prompt, error) { return s.builder.Feedback(s.State.Draft) },
		func(text string) { s.State.applyFeedback(text, s.opts.InvalidateAnalyses) },
	)
}

// GenerateRevision applies the feedback to the draft.
func (s *Session) GenerateRevision(ctx context.Context) (string, error) {
	return s.runStage(ctx, "revision", "",
		func() (generator.Prompt, error) { return s.builder.Revision(s.State.Draft, s.State.Feedback) },
		func(text string) { s.State.applyRevision(text, s.opts.InvalidateAnalyses) },
	)
}

// RunAnalysis runs f on the revision if there is one, else on the draft.
func (s *Session) RunAnalysis(ctx context.Context, f Framework) (text string, err error) {
	canvasText, _, ok := s.State.CanvasText()
	if !ok {
		return "", fmt.Errorf("%w: %s needs a draft or revision", ErrStageNotReady, f)
	}
	defer recoverStage(&err, "analysis "+f.Key())
	text, err = s.registry.Run(ctx, s.State, f, canvasText)
	if err != nil {
		return "", err
	}
	s.record("analysis", f.Key(), text)
	return text, nil
}

// runStage builds the prompt, makes one model call and applies the result.
// Build errors are returned before any call; call errors leave state as it was.
func (s *Session) runStage(ctx context.Context, action, framework string, build func() (generator.Prompt, error), apply func(string)) (text string, err error) {
	defer recoverStage(&err, action)
	prompt, err := build()
	if err != nil {
		return "", err
	}
	text, err = s.agent.Generate(ctx, action, prompt)
	if err != nil {
		return "", err
	}
	apply(text)
	s.record(action, framework, text)
	return text, nil
}

func (s *Session) record(action, framework, text string) {
	s.History = append(s.History, Turn{
		Action:    action,
		Framework: framework,
		Summary:   Headline(text, 80),
		Chars:     len([]rune(text)),
		CreatedAt: time.Now(),
	})
}

// recoverStage turns a panic inside a stage into a failed generation so a
// malformed response never takes the session down.
func recoverStage(err *error, action string) {
	if r := recover(); r != nil {
		*err = generator.NewError(generator.KindUnknown, fmt.Sprintf("unexpected error during %s: %v", action, r), nil)
	}
}
