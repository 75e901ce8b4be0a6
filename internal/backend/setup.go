package backend

import (
	"context"
	"fmt"

	"github.com/LiboWorks/promptlab/internal/config"
)

// FromConfig builds a registry with the hosted backend routed to Hosted and
// the configured local backend routed to Local. A hosted backend without an
// API key is still registered; its calls fail with the configuration error
// so the UI can show it next to the panel.
func FromConfig(cfg *config.Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := NewRegistry()

	var hosted LLMBackend
	openaiBackend, err := NewOpenAIBackend(OpenAIConfig{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		DefaultModel: cfg.OpenAIModel,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		hosted = unavailable("openai", err)
	} else {
		hosted = openaiBackend
	}
	r.RegisterLLM(hosted.Name(), hosted)
	r.Route(Hosted, hosted.Name())

	var local LLMBackend
	switch cfg.LocalBackend {
	case config.LocalOllama:
		local = NewOllamaBackend(OllamaConfig{BaseURL: cfg.OllamaBaseURL, Model: cfg.OllamaModel})
	case config.LocalExec:
		local, err = NewExecBackend(ExecConfig{Command: cfg.LocalCommand})
	case config.LocalLlama:
		local, err = NewLlamaBackend(LlamaConfig{
			ModelPath: cfg.LlamaModelPath,
			Threads:   cfg.LlamaThreads,
			MaxTokens: cfg.MaxTokens,
		})
	default:
		err = fmt.Errorf("unknown local backend %q", cfg.LocalBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("local backend: %w", err)
	}
	r.RegisterLLM(local.Name(), local)
	r.Route(Local, local.Name())

	return r, nil
}

func unavailable(name string, cause error) LLMBackend {
	return &Func{
		ID: name,
		Fn: func(context.Context, Request) (string, error) {
			return "", cause
		},
	}
}
