package embedder

import (
	"context"
	"fmt"
	"sync"
)

// State describes the lifecycle of a lazily initialized provider
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// String returns the state name for status reporting
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// VerifyReport describes the outcome of a provider verification
type VerifyReport struct {
	Provider string
	Model    string
	Err      error
}

// Handle wraps a Provider with lazy verification. The first caller that
// needs embeddings triggers the verification probe; later callers reuse the
// outcome. A failed handle stays failed until Reset.
type Handle struct {
	mu       sync.Mutex
	name     string
	provider Provider
	verify   func(ctx context.Context) error
	state    State
	lastErr  error
}

// NewHandle creates a handle around a provider. The verify function may be
// nil for providers that need no remote probe.
func NewHandle(name string, provider Provider, verify func(ctx context.Context) error) *Handle {
	return &Handle{
		name:     name,
		provider: provider,
		verify:   verify,
		state:    StateUninitialized,
	}
}

// State returns the current lifecycle state
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Dimension returns the embedding dimension of the wrapped provider. It is
// known at construction time and never requires a probe.
func (h *Handle) Dimension() int {
	return h.provider.Dimension()
}

// Report returns the provider identity and the last verification error
func (h *Handle) Report() VerifyReport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return VerifyReport{
		Provider: h.name,
		Model:    h.provider.Model(),
		Err:      h.lastErr,
	}
}

// Acquire returns the provider, verifying it first if needed
func (h *Handle) Acquire(ctx context.Context) (Provider, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateReady:
		return h.provider, nil
	case StateFailed:
		return nil, h.lastErr
	}

	h.state = StateInitializing
	if h.verify != nil {
		if err := h.verify(ctx); err != nil {
			h.state = StateFailed
			h.lastErr = fmt.Errorf("%w: %v", ErrProviderNotReady, err)
			return nil, h.lastErr
		}
	}

	h.state = StateReady
	h.lastErr = nil
	return h.provider, nil
}

// Reset clears a failed state so the next Acquire re-verifies
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateUninitialized
	h.lastErr = nil
}

// Close releases the underlying provider
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.provider.Close()
}
