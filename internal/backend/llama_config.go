package backend

// LlamaConfig holds configuration for the in-process llama backend.
type LlamaConfig struct {
	ModelPath   string
	Threads     int
	ContextSize int

	// Default generation parameters
	MaxTokens int
	TopK      int
	TopP      float32
	Temp      float32
}

func (c LlamaConfig) withDefaults() LlamaConfig {
	if c.Threads <= 0 {
		c.Threads = 4
	}
	if c.ContextSize <= 0 {
		c.ContextSize = 2048
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 256
	}
	if c.TopK <= 0 {
		c.TopK = 40
	}
	if c.TopP <= 0 {
		c.TopP = 0.9
	}
	if c.Temp <= 0 {
		c.Temp = 0.8
	}
	return c
}

// llamaPrompt flattens both messages into the single completion prompt a
// raw GGUF model expects.
func llamaPrompt(req Request) string {
	if req.System == "" {
		return req.User + "\n"
	}
	return req.System + "\n\n" + req.User + "\n"
}
