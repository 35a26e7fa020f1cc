package canvas

import "strings"

// Stage is the position of a session in the draft → feedback → revision chain.
type Stage int

const (
	StageEmpty Stage = iota
	StageDraftReady
	StageFeedbackReady
	StageRevisionReady
)

func (s Stage) String() string {
	switch s {
	case StageDraftReady:
		return "draft_ready"
	case StageFeedbackReady:
		return "feedback_ready"
	case StageRevisionReady:
		return "revision_ready"
	default:
		return "empty"
	}
}

// WorkflowState is the single mutable record of one founder's session.
// It is owned by exactly one Session and never shared.
type WorkflowState struct {
	Inputs   InputRecord
	Draft    string
	Feedback string
	Revision string
	Analyses map[Framework]string
}

func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		Inputs:   InputRecord{},
		Analyses: make(map[Framework]string),
	}
}

// Stage derives the chain position from which outputs are present.
func (s *WorkflowState) Stage() Stage {
	switch {
	case s.Revision != "":
		return StageRevisionReady
	case s.Feedback != "":
		return StageFeedbackReady
	case s.Draft != "":
		return StageDraftReady
	default:
		return StageEmpty
	}
}

// CanvasText returns the text analyses run on: the revision when present,
// otherwise the draft. ok is false when neither exists.
func (s *WorkflowState) CanvasText() (text string, fromRevision bool, ok bool) {
	if strings.TrimSpace(s.Revision) != "" {
		return s.Revision, true, true
	}
	if strings.TrimSpace(s.Draft) != "" {
		return s.Draft, false, true
	}
	return "", false, false
}

// Analysis returns the stored result for f.
func (s *WorkflowState) Analysis(f Framework) (string, bool) {
	v, ok := s.Analyses[f]
	return v, ok && v != ""
}

// The apply methods are the only writers. Each one clears strictly
// downstream outputs; analyses are cleared only when invalidate is set and
// the canvas text they were computed from has changed.

func (s *WorkflowState) applyInputs(rec InputRecord, invalidate bool) {
	before, _, _ := s.CanvasText()
	s.Inputs = rec.Clone()
	s.Draft, s.Feedback, s.Revision = "", "", ""
	s.invalidateIfChanged(before, invalidate)
}

func (s *WorkflowState) applyDraft(text string, invalidate bool) {
	before, _, _ := s.CanvasText()
	s.Draft = text
	s.Feedback, s.Revision = "", ""
	s.invalidateIfChanged(before, invalidate)
}

func (s *WorkflowState) applyFeedback(text string, invalidate bool) {
	before, _, _ := s.CanvasText()
	s.Feedback = text
	s.Revision = ""
	s.invalidateIfChanged(before, invalidate)
}

func (s *WorkflowState) applyRevision(text string, invalidate bool) {
	before, _, _ := s.CanvasText()
	s.Revision = text
	s.invalidateIfChanged(before, invalidate)
}

func (s *WorkflowState) applyAnalysis(f Framework, text string) {
	if s.Analyses == nil {
		s.Analyses = make(map[Framework]string)
	}
	s.Analyses[f] = text
}

func (s *WorkflowState) invalidateIfChanged(before string, invalidate bool) {
	if !invalidate {
		return
	}
	if after, _, _ := s.CanvasText(); after != before {
		s.Analyses = make(map[Framework]string)
	}
}

// Clone returns a deep copy safe to hand to renderers.
func (s *WorkflowState) Clone() *WorkflowState {
	out := &WorkflowState{
		Inputs:   s.Inputs.Clone(),
		Draft:    s.Draft,
		Feedback: s.Feedback,
		Revision: s.Revision,
		Analyses: make(map[Framework]string, len(s.Analyses)),
	}
	for f, v := range s.Analyses {
		out.Analyses[f] = v
	}
	return out
}
