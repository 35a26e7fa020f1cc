package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM is a local stand-in that never calls an external model.
// It echoes the last output-format marker of the prompt so each stage
// produces recognisable Markdown.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt, _ SafetyConfig) (string, error) {
	heading := "Result"
	for _, line := range strings.Split(prompt.User, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "### ") && strings.HasSuffix(line, ":") {
			heading = strings.TrimSuffix(strings.TrimPrefix(line, "### "), ":")
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", heading)
	sb.WriteString("**Note:** generated offline by the mock provider.\n\n")
	fmt.Fprintf(&sb, "**Prompt size:** %d characters\n", prompt.Len())
	return sb.String(), nil
}
