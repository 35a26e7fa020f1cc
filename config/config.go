// Package config loads application settings through viper and resolves the
// model credential.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lean_canvas_coach/canvas"
	"lean_canvas_coach/generator"
	"lean_canvas_coach/secrets"
)

// EnvPrefix is prepended to environment overrides, e.g. LEANCANVAS_LLM_MODEL.
const EnvPrefix = "LEANCANVAS"

// Config holds every setting of the application.
type Config struct {
	ServerAddr string         `mapstructure:"server_addr"`
	SecretsDir string         `mapstructure:"secrets_dir"`
	LLM        LLMConfig      `mapstructure:"llm"`
	Workflow   WorkflowConfig `mapstructure:"workflow"`
}

// LLMConfig selects and configures the generation endpoint.
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	APIKey    string        `mapstructure:"api_key"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// WorkflowConfig holds the session policies.
type WorkflowConfig struct {
	RequiredFields     []string      `mapstructure:"required_fields"`
	InvalidateAnalyses bool          `mapstructure:"invalidate_analyses"`
	MaxEmbeddedChars   int           `mapstructure:"max_embedded_chars"`
	OversizePolicy     string        `mapstructure:"oversize_policy"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
}

// Providers accepted in llm.provider.
var Providers = []string{"gemini", "openai", "deepseek", "mock"}

// ConfigurationError is fatal: the process must stop before any model call.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("secrets_dir", ".secrets")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("workflow.required_fields", keys(canvas.DefaultRequired))
	v.SetDefault("workflow.invalidate_analyses", false)
	v.SetDefault("workflow.max_embedded_chars", canvas.DefaultMaxEmbeddedChars)
	v.SetDefault("workflow.oversize_policy", string(canvas.OversizeReject))
	v.SetDefault("workflow.session_ttl", 2*time.Hour)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &ConfigurationError{Msg: "decoding config", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and field keys.
func (c Config) Validate() error {
	provider := strings.ToLower(c.LLM.Provider)
	if !contains(Providers, provider) {
		return &ConfigurationError{Msg: fmt.Sprintf("llm provider %q not supported (use one of %s)", c.LLM.Provider, strings.Join(Providers, ", "))}
	}
	if provider == "deepseek" && c.LLM.BaseURL == "" {
		// DeepSeek exposes an OpenAI-compatible API; the endpoint must be given.
		return &ConfigurationError{Msg: "llm provider deepseek requires base_url (OpenAI-compatible endpoint)"}
	}
	if (provider == "openai" || provider == "deepseek") && c.LLM.Model == "" {
		return &ConfigurationError{Msg: fmt.Sprintf("llm provider %s requires llm.model", provider)}
	}
	switch canvas.OversizePolicy(c.Workflow.OversizePolicy) {
	case canvas.OversizeReject, canvas.OversizeTruncate:
	default:
		return &ConfigurationError{Msg: fmt.Sprintf("workflow.oversize_policy %q must be reject or truncate", c.Workflow.OversizePolicy)}
	}
	if c.Workflow.MaxEmbeddedChars < 0 {
		return &ConfigurationError{Msg: "workflow.max_embedded_chars must not be negative"}
	}
	if _, err := canvas.ParseRequired(c.Workflow.RequiredFields); err != nil {
		return &ConfigurationError{Msg: "workflow.required_fields", Err: err}
	}
	return nil
}

// SessionOptions converts the workflow section into canvas options.
func (c Config) SessionOptions() (canvas.Options, error) {
	required, err := canvas.ParseRequired(c.Workflow.RequiredFields)
	if err != nil {
		return canvas.Options{}, &ConfigurationError{Msg: "workflow.required_fields", Err: err}
	}
	return canvas.Options{
		Required:           required,
		InvalidateAnalyses: c.Workflow.InvalidateAnalyses,
		Limit: canvas.SizeLimit{
			MaxChars: c.Workflow.MaxEmbeddedChars,
			Policy:   canvas.OversizePolicy(c.Workflow.OversizePolicy),
		},
	}, nil
}

// ResolveAPIKey finds the model credential. Order: the secrets directory
// file named after llm.api_key_env, then llm.api_key, then the environment
// variable llm.api_key_env. The mock provider needs none.
func (c Config) ResolveAPIKey(getenv func(string) string) (string, error) {
	if strings.EqualFold(c.LLM.Provider, "mock") {
		return "", nil
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	name := c.LLM.APIKeyEnv
	if name == "" {
		name = "GEMINI_API_KEY"
	}
	value, present, err := secrets.Lookup(c.SecretsDir, name)
	if err != nil {
		return "", &ConfigurationError{Msg: "unexpected error while reading the API key", Err: err}
	}
	if present {
		if value == "" {
			return "", &ConfigurationError{Msg: fmt.Sprintf("%s is present in %s but its value is empty", name, c.SecretsDir)}
		}
		return value, nil
	}
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey, nil
	}
	if v := strings.TrimSpace(getenv(name)); v != "" {
		return v, nil
	}
	return "", &ConfigurationError{Msg: fmt.Sprintf("API key is not set: put %s in %s/ or set the %s environment variable", name, c.SecretsDir, name)}
}

// Settings returns the provider-neutral settings for the generator package.
func (c LLMConfig) Settings(apiKey string) *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider: strings.ToLower(c.Provider),
		Model:    c.Model,
		APIKey:   apiKey,
		BaseURL:  c.BaseURL,
	}
}

func keys(fields []canvas.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key()
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
