package backend

import (
	"context"
	"fmt"

	"github.com/LiboWorks/promptlab/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements LLMBackend on the chat completions API. It serves
// both the hosted OpenAI model and any OpenAI-compatible local server.
type OpenAIBackend struct {
	name         string
	client       *openai.Client
	defaultModel string
	maxTokens    int
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string // Optional: for Azure or compatible APIs
	DefaultModel string
	MaxTokens    int
}

// NewOpenAIBackend creates the hosted backend. Unset fields fall back to the
// global configuration.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	globalCfg := config.Get()

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = globalCfg.OpenAIAPIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided (set OPENAI_API_KEY or pass in config)")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = globalCfg.OpenAIBaseURL
	}
	model := cfg.DefaultModel
	if model == "" {
		model = globalCfg.OpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = globalCfg.MaxTokens
	}

	return newChatBackend("openai", apiKey, baseURL, model, maxTokens), nil
}

// OllamaConfig holds configuration for an Ollama server reached through its
// OpenAI-compatible endpoint.
type OllamaConfig struct {
	BaseURL string
	Model   string
}

// NewOllamaBackend creates a local backend that talks to Ollama. Ollama
// ignores the API key but the client requires one.
func NewOllamaBackend(cfg OllamaConfig) *OllamaBackend {
	globalCfg := config.Get()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = globalCfg.OllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = globalCfg.OllamaModel
	}
	return &OllamaBackend{OpenAIBackend: newChatBackend("ollama", "ollama", baseURL, model, globalCfg.MaxTokens)}
}

// OllamaBackend is an OpenAIBackend pointed at an Ollama server.
type OllamaBackend struct {
	*OpenAIBackend
}

func newChatBackend(name, apiKey, baseURL, model string, maxTokens int) *OpenAIBackend {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		name:         name,
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: model,
		maxTokens:    maxTokens,
	}
}

// Generate implements LLMBackend.
func (b *OpenAIBackend) Generate(ctx context.Context, r Request) (string, error) {
	model := r.Model
	if model == "" {
		model = b.defaultModel
	}

	var msgs []openai.ChatCompletionMessage
	if r.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: r.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: r.User})

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}

	maxTokens := b.maxTokens
	if r.MaxTokens > 0 {
		maxTokens = r.MaxTokens
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", b.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", b.name)
	}

	return resp.Choices[0].Message.Content, nil
}

// Name implements LLMBackend.
func (b *OpenAIBackend) Name() string {
	return b.name
}

// Model returns the model used when a request does not name one.
func (b *OpenAIBackend) Model() string {
	return b.defaultModel
}

// Close implements LLMBackend.
func (b *OpenAIBackend) Close() error {
	return nil
}
