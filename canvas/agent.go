package canvas

import (
	"context"
	"errors"
	"log"

	"lean_canvas_coach/generator"
)

// Agent sends one prompt to the model and post-processes the answer.
type Agent struct {
	llm     generator.LLMClient
	safety  generator.SafetyConfig
	verbose bool
	logger  *log.Logger
}

func NewAgent(llm generator.LLMClient, verbose bool, logger *log.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		llm:     llm,
		safety:  generator.DefaultSafety(),
		verbose: verbose,
		logger:  logger,
	}, nil
}

func (a *Agent) infof(format string, args ...interface{}) {
	if !a.verbose {
		return
	}
	a.logger.Printf("[INFO] "+format, args...)
}

// Generate makes exactly one model call with the fixed safety configuration.
func (a *Agent) Generate(ctx context.Context, action string, prompt generator.Prompt) (string, error) {
	a.infof("[session] %s: sending prompt (%d chars)", action, prompt.Len())
	raw, err := a.llm.Complete(ctx, prompt, a.safety)
	if err != nil {
		a.logger.Printf("[session] %s failed: %v", action, err)
		return "", err
	}
	md, err := PostProcess(raw)
	if err != nil {
		a.logger.Printf("[session] %s failed: %v", action, err)
		return "", err
	}
	a.infof("[session] %s: received %d chars", action, len(md))
	return md, nil
}
