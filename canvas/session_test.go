package canvas

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lean_canvas_coach/generator"
)

// stubLLM answers every prompt with respond and counts calls.
type stubLLM struct {
	calls   int
	prompts []generator.Prompt
	respond func(p generator.Prompt) (string, error)
}

func (s *stubLLM) Complete(_ context.Context, p generator.Prompt, _ generator.SafetyConfig) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, p)
	return s.respond(p)
}

func answer(text string) func(generator.Prompt) (string, error) {
	return func(generator.Prompt) (string, error) { return text, nil }
}

func fail(kind generator.ErrorKind) func(generator.Prompt) (string, error) {
	return func(generator.Prompt) (string, error) { return "", generator.NewError(kind, "stubbed", nil) }
}

func newTestSession(t *testing.T, llm generator.LLMClient, opts Options) *Session {
	t.Helper()
	agent, err := NewAgent(llm, false, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	sess, err := NewSession("test", agent, opts)
	require.NoError(t, err)
	return sess
}

func scenarioInputs() InputRecord {
	return InputRecord{
		FieldTargetCustomer:   "freelance designers",
		FieldCustomerProblem:  "slow invoicing",
		FieldProposedSolution: "automated invoice AI",
		FieldCompetitors:      "FreshBooks",
		FieldDifferentiation:  "voice-driven entry",
	}
}

func TestDraftSucceeds(t *testing.T) {
	llm := &stubLLM{respond: answer("## Lean Canvas\n\n**Problem:** slow invoicing")}
	sess := newTestSession(t, llm, Options{})

	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	text, err := sess.GenerateDraft(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "## Lean Canvas\n\n**Problem:** slow invoicing", text)
	assert.Equal(t, text, sess.State.Draft)
	assert.Empty(t, sess.State.Feedback)
	assert.Empty(t, sess.State.Revision)
	assert.Equal(t, StageDraftReady, sess.State.Stage())
	assert.Equal(t, 1, llm.calls)
	require.Len(t, sess.History, 1)
	assert.Equal(t, "draft", sess.History[0].Action)
	assert.Equal(t, "Lean Canvas", sess.History[0].Summary)
}

func TestSubmitRejectsMissingProblem(t *testing.T) {
	llm := &stubLLM{respond: answer("unused")}
	sess := newTestSession(t, llm, Options{})

	rec := scenarioInputs()
	rec[FieldCustomerProblem] = "   "
	res := sess.Submit(rec)

	assert.False(t, res.Accepted())
	assert.Equal(t, []Field{FieldCustomerProblem}, res.Missing)
	assert.Empty(t, sess.State.Inputs, "rejected submit must not touch state")

	_, err := sess.GenerateDraft(context.Background())
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, llm.calls)
}

func TestBlockedGenerationLeavesStateAndRetrySucceeds(t *testing.T) {
	llm := &stubLLM{respond: answer("first draft")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	_, err := sess.GenerateDraft(context.Background())
	require.NoError(t, err)

	llm.respond = fail(generator.KindContentBlocked)
	_, err = sess.GenerateFeedback(context.Background())
	require.Error(t, err)
	assert.True(t, generator.IsContentBlocked(err))
	assert.Equal(t, "first draft", sess.State.Draft)
	assert.Empty(t, sess.State.Feedback)
	assert.Equal(t, StageDraftReady, sess.State.Stage())

	llm.respond = answer("solid critique")
	_, err = sess.GenerateFeedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "solid critique", sess.State.Feedback)
	assert.Equal(t, StageFeedbackReady, sess.State.Stage())
}

func TestRegenerateDraftClearsDownstreamKeepsAnalyses(t *testing.T) {
	llm := &stubLLM{respond: answer("draft v1")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()

	_, err := sess.GenerateDraft(ctx)
	require.NoError(t, err)
	llm.respond = answer("feedback v1")
	_, err = sess.GenerateFeedback(ctx)
	require.NoError(t, err)
	llm.respond = answer("revision v1")
	_, err = sess.GenerateRevision(ctx)
	require.NoError(t, err)
	llm.respond = answer("swot v1")
	_, err = sess.RunAnalysis(ctx, FrameworkSWOT)
	require.NoError(t, err)

	llm.respond = answer("draft v2")
	_, err = sess.GenerateDraft(ctx)
	require.NoError(t, err)

	assert.Equal(t, "draft v2", sess.State.Draft)
	assert.Empty(t, sess.State.Feedback)
	assert.Empty(t, sess.State.Revision)
	got, ok := sess.State.Analysis(FrameworkSWOT)
	assert.True(t, ok)
	assert.Equal(t, "swot v1", got)
}

func TestFailedRegenerationKeepsDownstream(t *testing.T) {
	llm := &stubLLM{respond: answer("draft v1")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()
	_, err := sess.GenerateDraft(ctx)
	require.NoError(t, err)
	llm.respond = answer("feedback v1")
	_, err = sess.GenerateFeedback(ctx)
	require.NoError(t, err)

	llm.respond = fail(generator.KindServiceUnavailable)
	_, err = sess.GenerateDraft(ctx)
	require.Error(t, err)
	assert.Equal(t, generator.KindServiceUnavailable, generator.KindOf(err))
	assert.Equal(t, "draft v1", sess.State.Draft)
	assert.Equal(t, "feedback v1", sess.State.Feedback)
}

func TestRegenerateFeedbackClearsRevision(t *testing.T) {
	llm := &stubLLM{respond: answer("draft")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()
	for _, run := range []func(context.Context) (string, error){sess.GenerateDraft, sess.GenerateFeedback, sess.GenerateRevision} {
		_, err := run(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, StageRevisionReady, sess.State.Stage())

	llm.respond = answer("feedback v2")
	_, err := sess.GenerateFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "draft", sess.State.Draft)
	assert.Equal(t, "feedback v2", sess.State.Feedback)
	assert.Empty(t, sess.State.Revision)
}

func TestStageOrdering(t *testing.T) {
	llm := &stubLLM{respond: answer("text")}
	sess := newTestSession(t, llm, Options{})
	ctx := context.Background()

	_, err := sess.GenerateFeedback(ctx)
	assert.True(t, IsStageNotReady(err))
	_, err = sess.GenerateRevision(ctx)
	assert.True(t, IsStageNotReady(err))
	_, err = sess.RunAnalysis(ctx, FrameworkFourP)
	assert.True(t, IsStageNotReady(err))
	assert.Equal(t, 0, llm.calls)

	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	_, err = sess.GenerateDraft(ctx)
	require.NoError(t, err)
	_, err = sess.GenerateRevision(ctx)
	assert.True(t, IsStageNotReady(err), "revision needs feedback")
	assert.Equal(t, 1, llm.calls)
}

func TestAnalysisUsesRevisionWhenPresent(t *testing.T) {
	llm := &stubLLM{respond: answer("DRAFT-TEXT")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()
	_, err := sess.GenerateDraft(ctx)
	require.NoError(t, err)

	llm.respond = answer("3c on draft")
	_, err = sess.RunAnalysis(ctx, FrameworkThreeC)
	require.NoError(t, err)
	last := llm.prompts[len(llm.prompts)-1].User
	assert.Contains(t, last, "DRAFT-TEXT")

	llm.respond = answer("FEEDBACK-TEXT")
	_, err = sess.GenerateFeedback(ctx)
	require.NoError(t, err)
	llm.respond = answer("REVISION-TEXT")
	_, err = sess.GenerateRevision(ctx)
	require.NoError(t, err)

	llm.respond = answer("3c on revision")
	_, err = sess.RunAnalysis(ctx, FrameworkThreeC)
	require.NoError(t, err)
	last = llm.prompts[len(llm.prompts)-1].User
	assert.Contains(t, last, "REVISION-TEXT")
	assert.NotContains(t, last, "DRAFT-TEXT")

	got, _ := sess.State.Analysis(FrameworkThreeC)
	assert.Equal(t, "3c on revision", got)
}

func TestAnalysisFailureKeepsSiblings(t *testing.T) {
	llm := &stubLLM{respond: answer("draft")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()
	_, err := sess.GenerateDraft(ctx)
	require.NoError(t, err)
	llm.respond = answer("swot")
	_, err = sess.RunAnalysis(ctx, FrameworkSWOT)
	require.NoError(t, err)
	llm.respond = answer("4p v1")
	_, err = sess.RunAnalysis(ctx, FrameworkFourP)
	require.NoError(t, err)

	llm.respond = fail(generator.KindUnknown)
	_, err = sess.RunAnalysis(ctx, FrameworkFourP)
	require.Error(t, err)

	got, _ := sess.State.Analysis(FrameworkFourP)
	assert.Equal(t, "4p v1", got)
	got, _ = sess.State.Analysis(FrameworkSWOT)
	assert.Equal(t, "swot", got)
}

func TestRunAnalysisIdempotent(t *testing.T) {
	llm := &stubLLM{respond: answer("draft")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()
	_, err := sess.GenerateDraft(ctx)
	require.NoError(t, err)
	llm.respond = answer("4p")
	_, err = sess.RunAnalysis(ctx, FrameworkFourP)
	require.NoError(t, err)

	llm.respond = answer("## SWOT\n\n**Strengths:** speed")
	before := llm.calls
	first, err := sess.RunAnalysis(ctx, FrameworkSWOT)
	require.NoError(t, err)
	stored, _ := sess.State.Analysis(FrameworkSWOT)
	second, err := sess.RunAnalysis(ctx, FrameworkSWOT)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	again, ok := sess.State.Analysis(FrameworkSWOT)
	require.True(t, ok)
	assert.Equal(t, stored, again)
	assert.Equal(t, second, again)
	assert.Equal(t, 2, llm.calls-before)
	assert.Equal(t, llm.prompts[before], llm.prompts[before+1])

	got, _ := sess.State.Analysis(FrameworkFourP)
	assert.Equal(t, "4p", got)
	assert.Equal(t, "draft", sess.State.Draft)
	assert.Len(t, sess.State.Analyses, 2)
}

func TestInvalidateAnalysesPolicy(t *testing.T) {
	llm := &stubLLM{respond: answer("draft v1")}
	sess := newTestSession(t, llm, Options{InvalidateAnalyses: true})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	ctx := context.Background()
	_, err := sess.GenerateDraft(ctx)
	require.NoError(t, err)
	llm.respond = answer("swot")
	_, err = sess.RunAnalysis(ctx, FrameworkSWOT)
	require.NoError(t, err)

	// Feedback does not change the canvas text, so analyses survive it.
	llm.respond = answer("feedback")
	_, err = sess.GenerateFeedback(ctx)
	require.NoError(t, err)
	_, ok := sess.State.Analysis(FrameworkSWOT)
	assert.True(t, ok)

	llm.respond = answer("revision")
	_, err = sess.GenerateRevision(ctx)
	require.NoError(t, err)
	_, ok = sess.State.Analysis(FrameworkSWOT)
	assert.False(t, ok)
}

func TestPanicInStageBecomesGenerationError(t *testing.T) {
	llm := &stubLLM{respond: func(generator.Prompt) (string, error) { panic("malformed response") }}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())

	_, err := sess.GenerateDraft(context.Background())
	require.Error(t, err)
	assert.Equal(t, generator.KindUnknown, generator.KindOf(err))
	assert.Contains(t, err.Error(), "malformed response")
	assert.Empty(t, sess.State.Draft)
	assert.Empty(t, sess.History)
}

func TestEmptyAnswerIsFailure(t *testing.T) {
	llm := &stubLLM{respond: answer("  \n ")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())

	_, err := sess.GenerateDraft(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageEmpty, sess.State.Stage())
}

func TestResubmitClearsChain(t *testing.T) {
	llm := &stubLLM{respond: answer("draft")}
	sess := newTestSession(t, llm, Options{})
	require.True(t, sess.Submit(scenarioInputs()).Accepted())
	_, err := sess.GenerateDraft(context.Background())
	require.NoError(t, err)

	rec := scenarioInputs()
	rec[FieldMarketInfo] = "growing 20% a year"
	require.True(t, sess.Submit(rec).Accepted())
	assert.Equal(t, StageEmpty, sess.State.Stage())
	assert.Equal(t, "growing 20% a year", sess.State.Inputs.Get(FieldMarketInfo))
}

func TestLegacyRequiredSetAllowsNoCompetitors(t *testing.T) {
	llm := &stubLLM{respond: answer("draft")}
	sess := newTestSession(t, llm, Options{Required: LegacyRequired})
	rec := scenarioInputs()
	delete(rec, FieldCompetitors)

	assert.True(t, sess.Submit(rec).Accepted())
	_, err := sess.GenerateDraft(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.Contains(llm.prompts[0].User, "- Competitors: (not provided)"))
}

func TestSessionsAreIsolated(t *testing.T) {
	llm := &stubLLM{respond: answer("draft")}
	a := newTestSession(t, llm, Options{})
	b := newTestSession(t, llm, Options{})
	require.True(t, a.Submit(scenarioInputs()).Accepted())
	_, err := a.GenerateDraft(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageDraftReady, a.State.Stage())
	assert.Equal(t, StageEmpty, b.State.Stage())
	assert.Empty(t, b.State.Inputs)
}
