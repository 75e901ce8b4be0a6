//go:build !llama

package backend

import "errors"

// ErrLlamaUnavailable is returned when the binary was built without the
// llama build tag.
var ErrLlamaUnavailable = errors.New("llama backend not compiled in (rebuild with -tags llama)")

// NewLlamaBackend reports that in-process inference is not available.
func NewLlamaBackend(cfg LlamaConfig) (LLMBackend, error) {
	return nil, ErrLlamaUnavailable
}
