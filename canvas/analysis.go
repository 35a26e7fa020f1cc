package canvas

import (
	"context"
	"errors"
	"fmt"
)

// AnalysisRegistry maps each framework to its prompt rule and result slot.
type AnalysisRegistry struct {
	builder *PromptBuilder
	agent   *Agent
}

func NewAnalysisRegistry(builder *PromptBuilder, agent *Agent) (*AnalysisRegistry, error) {
	if builder == nil || agent == nil {
		return nil, errors.New("analysis registry needs a prompt builder and an agent")
	}
	return &AnalysisRegistry{builder: builder, agent: agent}, nil
}

// List returns every framework descriptor in display order.
func (r *AnalysisRegistry) List() []FrameworkDescriptor {
	out := make([]FrameworkDescriptor, 0, len(frameworkTable))
	for _, f := range AllFrameworks() {
		d, _ := f.Descriptor()
		out = append(out, d)
	}
	return out
}

// Run analyses canvasText with f and stores the result in st on success.
// Other frameworks' results are never touched.
func (r *AnalysisRegistry) Run(ctx context.Context, st *WorkflowState, f Framework, canvasText string) (string, error) {
	prompt, err := r.builder.Analysis(f, canvasText)
	if err != nil {
		return "", err
	}
	text, err := r.agent.Generate(ctx, fmt.Sprintf("analysis %s", f.Key()), prompt)
	if err != nil {
		return "", err
	}
	st.applyAnalysis(f, text)
	return text, nil
}
