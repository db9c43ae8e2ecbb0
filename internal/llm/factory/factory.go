package factory

import (
	"fmt"

	"github.com/newthinker/invert50/internal/config"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/llm"
	"github.com/newthinker/invert50/internal/llm/claude"
	"github.com/newthinker/invert50/internal/llm/ollama"
	"github.com/newthinker/invert50/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	var (
		p   llm.Provider
		err error
	)
	switch cfg.Provider {
	case "claude":
		p, err = claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL)
	case "openai":
		p, err = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		p, err = ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	case "":
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no LLM provider configured"))
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("%s: %w", cfg.Provider, err))
	}
	return p, nil
}
