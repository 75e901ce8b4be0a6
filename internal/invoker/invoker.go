// Package invoker sends compiled prompts to the backend selected by a model
// choice and memoizes the results.
package invoker

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/logger"
	"github.com/LiboWorks/promptlab/internal/memo"
)

// InvocationError reports a failed model call.
type InvocationError struct {
	Choice  backend.Choice
	Backend string
	Err     error
}

func (e *InvocationError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("%s model call failed: %v", e.Choice.Label(), e.Err)
	}
	return fmt.Sprintf("%s model call failed (%s): %v", e.Choice.Label(), e.Backend, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Stats counts invocations since the invoker was created.
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	BackendCalls int64 `json:"backend_calls"`
	Failures     int64 `json:"failures"`
}

// Invoker is safe for concurrent use.
type Invoker struct {
	registry *backend.Registry
	store    memo.Store
	log      *logger.Logger
	group    singleflight.Group

	hits, misses, calls, failures atomic.Int64
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithStore replaces the default in-memory memo.
func WithStore(s memo.Store) Option {
	return func(i *Invoker) { i.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(i *Invoker) { i.log = l }
}

// New creates an invoker over the registry's backends.
func New(registry *backend.Registry, opts ...Option) *Invoker {
	inv := &Invoker{registry: registry}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.store == nil {
		inv.store = memo.NewMemory()
	}
	if inv.log == nil {
		inv.log = logger.Nop()
	}
	return inv
}

// Invoke returns the model output for the exact (system, user, choice)
// triple. A memoized triple never reaches the backend; concurrent calls for
// the same triple share one backend call. Failures are not memoized.
//
// The shared call is detached from any single caller's cancellation. A
// caller whose ctx ends stops waiting and gets ctx.Err(); the others still
// receive the result.
func (inv *Invoker) Invoke(ctx context.Context, system, user string, choice backend.Choice) (string, error) {
	key := memo.Key(system, user, string(choice))

	if out, ok := inv.lookup(ctx, key); ok {
		inv.hits.Add(1)
		return out, nil
	}
	inv.misses.Add(1)

	callCtx := context.WithoutCancel(ctx)
	ch := inv.group.DoChan(key, func() (interface{}, error) {
		// A caller that lost the race may find the entry already stored.
		if out, ok := inv.lookup(callCtx, key); ok {
			return out, nil
		}
		return inv.call(callCtx, key, system, user, choice)
	})

	select {
	case <-ctx.Done():
		return "", &InvocationError{Choice: choice, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			inv.log.Debug("shared in-flight model call", "choice", choice)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Cached returns the memoized output for the triple without ever calling a
// backend.
func (inv *Invoker) Cached(ctx context.Context, system, user string, choice backend.Choice) (string, bool) {
	out, ok := inv.lookup(ctx, memo.Key(system, user, string(choice)))
	if ok {
		inv.hits.Add(1)
	}
	return out, ok
}

func (inv *Invoker) lookup(ctx context.Context, key string) (string, bool) {
	out, ok, err := inv.store.Get(ctx, key)
	if err != nil {
		// A broken memo degrades to calling the backend.
		inv.log.Warn("memo lookup failed", "store", inv.store.Name(), "error", err)
		return "", false
	}
	return out, ok
}

func (inv *Invoker) call(ctx context.Context, key, system, user string, choice backend.Choice) (string, error) {
	b, ok := inv.registry.ForChoice(choice)
	if !ok {
		inv.failures.Add(1)
		return "", &InvocationError{Choice: choice, Err: fmt.Errorf("no backend configured")}
	}

	inv.calls.Add(1)
	inv.log.Info("calling model", "choice", choice, "backend", b.Name())
	out, err := b.Generate(ctx, backend.Request{System: system, User: user})
	if err != nil {
		inv.failures.Add(1)
		inv.log.Warn("model call failed", "choice", choice, "backend", b.Name(), "error", err)
		return "", &InvocationError{Choice: choice, Backend: b.Name(), Err: err}
	}

	if err := inv.store.Put(ctx, key, out); err != nil {
		inv.log.Warn("memo store failed", "store", inv.store.Name(), "error", err)
	}
	return out, nil
}

// Stats returns a snapshot of the counters.
func (inv *Invoker) Stats() Stats {
	return Stats{
		Hits:         inv.hits.Load(),
		Misses:       inv.misses.Load(),
		BackendCalls: inv.calls.Load(),
		Failures:     inv.failures.Load(),
	}
}

// StoreName names the memo store in use.
func (inv *Invoker) StoreName() string {
	return inv.store.Name()
}

// Close releases the memo store. Backends belong to the registry.
func (inv *Invoker) Close() error {
	return inv.store.Close()
}
