package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/viper"

	"lean_canvas_coach/canvas"
	"lean_canvas_coach/config"
	"lean_canvas_coach/generator"
)

// app is everything a command needs to open sessions.
type app struct {
	cfg   config.Config
	agent *canvas.Agent
	opts  canvas.Options
}

// loadApp reads the configuration and resolves the credential before any
// model call can happen. Every error it returns is fatal.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	key, err := cfg.ResolveAPIKey(nil)
	if err != nil {
		return nil, err
	}
	llm, err := buildLLM(ctx, cfg, key)
	if err != nil {
		return nil, err
	}
	agent, err := canvas.NewAgent(llm, verbose, log.Default())
	if err != nil {
		return nil, err
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("[cli] provider=%s model=%q required=%v", cfg.LLM.Provider, cfg.LLM.Model, cfg.Workflow.RequiredFields)
	}
	return &app{cfg: cfg, agent: agent, opts: opts}, nil
}

func (a *app) newSession(id string) (*canvas.Session, error) {
	return canvas.NewSession(id, a.agent, a.opts)
}

func buildLLM(ctx context.Context, cfg config.Config, apiKey string) (generator.LLMClient, error) {
	settings := cfg.LLM.Settings(apiKey)
	switch settings.Provider {
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "openai", "deepseek":
		// DeepSeek exposes an OpenAI-compatible API behind llm.base_url.
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
