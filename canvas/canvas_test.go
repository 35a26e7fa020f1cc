package canvas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lean_canvas_coach/generator"
)

func TestValidateReportsMissingInFormOrder(t *testing.T) {
	c := NewInputCollector(nil)
	res := c.Validate(InputRecord{FieldCompetitors: "x", FieldTargetCustomer: " "})

	assert.False(t, res.Accepted())
	assert.Equal(t, []Field{FieldTargetCustomer, FieldCustomerProblem, FieldProposedSolution, FieldDifferentiation}, res.Missing)

	var ve *ValidationError
	require.ErrorAs(t, res.Err(), &ve)
	assert.Equal(t, "required fields missing: Target customer, Customer problem, Proposed solution, Differentiation", ve.Error())
}

func TestValidateOptionalFieldsNeverRequiredByDefault(t *testing.T) {
	c := NewInputCollector(nil)
	assert.True(t, c.Validate(scenarioInputs()).Accepted())
	assert.Nil(t, c.Validate(scenarioInputs()).Err())
	assert.False(t, c.IsRequired(FieldCoreTechnology))
	assert.False(t, c.IsRequired(FieldMarketInfo))
	assert.True(t, FieldMarketInfo.Optional())
}

func TestParseFieldsAndFrameworks(t *testing.T) {
	fields, err := ParseFields([]string{"customer-problem", "TARGET_CUSTOMER", "customer_problem"})
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldCustomerProblem, FieldTargetCustomer}, fields)

	_, err = ParseFields([]string{"budget"})
	assert.Error(t, err)

	fields, err = ParseRequired([]string{"Legacy"})
	require.NoError(t, err)
	assert.Equal(t, LegacyRequired, fields)
	fields[0] = FieldMarketInfo
	assert.Equal(t, FieldTargetCustomer, LegacyRequired[0])

	fields, err = ParseRequired([]string{"default"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRequired, fields)

	fields, err = ParseRequired([]string{"differentiation"})
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldDifferentiation}, fields)

	_, err = ParseRequired([]string{"legacy", "competitors"})
	assert.Error(t, err)

	tests := []struct {
		in   string
		want Framework
	}{
		{"swot", FrameworkSWOT},
		{"SWOT analysis", FrameworkSWOT},
		{"4p", FrameworkFourP},
		{" 3C ", FrameworkThreeC},
		{"value-proposition", FrameworkValueProposition},
		{"Value Proposition Canvas", FrameworkValueProposition},
	}
	for _, tt := range tests {
		got, err := ParseFramework(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err = ParseFramework("pestel")
	assert.Error(t, err)
}

func TestDescriptorIsACopy(t *testing.T) {
	d, ok := FrameworkSWOT.Descriptor()
	require.True(t, ok)
	d.Headings[0].Title = "changed"

	again, _ := FrameworkSWOT.Descriptor()
	assert.Equal(t, "Strengths", again.Headings[0].Title)
}

func TestCanvasTextPrefersRevision(t *testing.T) {
	st := NewWorkflowState()
	_, _, ok := st.CanvasText()
	assert.False(t, ok)

	st.Draft = "draft"
	text, fromRevision, ok := st.CanvasText()
	assert.True(t, ok)
	assert.False(t, fromRevision)
	assert.Equal(t, "draft", text)

	st.Revision = "revision"
	text, fromRevision, _ = st.CanvasText()
	assert.True(t, fromRevision)
	assert.Equal(t, "revision", text)
}

func TestCloneIsDeep(t *testing.T) {
	st := NewWorkflowState()
	st.applyInputs(scenarioInputs(), false)
	st.applyAnalysis(FrameworkSWOT, "swot")

	cp := st.Clone()
	cp.Inputs[FieldTargetCustomer] = "someone else"
	cp.Analyses[FrameworkSWOT] = "changed"

	assert.Equal(t, "freelance designers", st.Inputs.Get(FieldTargetCustomer))
	got, _ := st.Analysis(FrameworkSWOT)
	assert.Equal(t, "swot", got)
}

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"trims", "  \n## Canvas\n\n", "## Canvas"},
		{"strips markdown fence", "```markdown\n## Canvas\n```", "## Canvas"},
		{"strips bare fence", "```\n**Problem:** x\n```", "**Problem:** x"},
		{"keeps inner code", "## A\n```go\nx\n```", "## A\n```go\nx\n```"},
		{"mismatched fence kept", "````markdown\n## A\n```", "````markdown\n## A\n```"},
		{
			"separate leading and trailing blocks kept",
			"```\nnpm install invoicer\n```\n\n**Problem:** slow invoicing\n\n```\ninvoicer --voice\n```",
			"```\nnpm install invoicer\n```\n\n**Problem:** slow invoicing\n\n```\ninvoicer --voice\n```",
		},
		{"longer wrapper around inner block", "````markdown\n## A\n```go\nx\n```\n````", "## A\n```go\nx\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PostProcess(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PostProcess("```markdown\n\n```")
	assert.Equal(t, generator.KindUnknown, generator.KindOf(err))
	assert.Error(t, err)
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "SWOT", Headline("intro\n## SWOT\nbody", 80))
	assert.Equal(t, "Problem", Headline("**Problem:** slow", 80))
	assert.Equal(t, "one two", Headline("one\ntwo", 80))
	assert.Equal(t, "abc", Headline("abcdef", 3))
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idea.yaml")
	content := "target_customer: freelance designers\ncustomer_problem: |\n  slow invoicing\ncompetitors: FreshBooks\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rec, err := LoadInputs(path)
	require.NoError(t, err)
	assert.Equal(t, "freelance designers", rec.Get(FieldTargetCustomer))
	assert.Equal(t, "slow invoicing", rec.Get(FieldCustomerProblem))
	assert.Equal(t, "", rec.Get(FieldMarketInfo))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("budget: 10\n"), 0o644))
	_, err = LoadInputs(bad)
	assert.Error(t, err)

	_, err = LoadInputs(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
