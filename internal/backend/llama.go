//go:build llama

package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// LlamaBackend implements LLMBackend with in-process llama.cpp inference on
// a GGUF model file.
type LlamaBackend struct {
	cfg LlamaConfig

	// mu serializes Predict calls; the binding is not safe for concurrent use.
	mu    sync.Mutex
	model *llama.LLama
}

// NewLlamaBackend loads the model at cfg.ModelPath.
func NewLlamaBackend(cfg LlamaConfig) (LLMBackend, error) {
	cfg = cfg.withDefaults()
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required for llama backend")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	model, err := llama.New(cfg.ModelPath, llama.SetContext(cfg.ContextSize))
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}
	return &LlamaBackend{cfg: cfg, model: model}, nil
}

// Generate implements LLMBackend. The binding cannot be interrupted, so ctx
// is only checked before inference starts.
func (b *LlamaBackend) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxTokens := b.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.model == nil {
		return "", fmt.Errorf("llama backend is closed")
	}
	out, err := b.model.Predict(llamaPrompt(req),
		llama.SetTokens(maxTokens),
		llama.SetThreads(b.cfg.Threads),
		llama.SetTopK(b.cfg.TopK),
		llama.SetTopP(b.cfg.TopP),
		llama.SetTemperature(b.cfg.Temp),
	)
	if err != nil {
		return "", fmt.Errorf("prediction failed: %w", err)
	}
	return out, nil
}

// Name implements LLMBackend.
func (b *LlamaBackend) Name() string {
	return "llama"
}

// Close implements LLMBackend.
// Model returns the GGUF file name.
func (b *LlamaBackend) Model() string {
	return filepath.Base(b.cfg.ModelPath)
}

func (b *LlamaBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.model != nil {
		b.model.Free()
		b.model = nil
	}
	return nil
}
