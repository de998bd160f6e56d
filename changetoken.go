package datasetkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// ChangeToken Implementations
// ============================================================================

// CallbackChangeToken is a ChangeToken that supports active callbacks.
// Used by drivers that have native file system events (local, memory) and by
// Session to announce state transitions.
type CallbackChangeToken struct {
	mu        sync.RWMutex
	changed   atomic.Bool
	callbacks []func()
}

// NewCallbackChangeToken creates a new ChangeToken that supports active callbacks.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{}
}

func (t *CallbackChangeToken) HasChanged() bool {
	return t.changed.Load()
}

func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	if t.changed.Load() {
		t.mu.Unlock()
		callback()
		return func() {}
	}
	t.callbacks = append(t.callbacks, callback)
	index := len(t.callbacks) - 1
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.callbacks) {
			// Set to nil instead of removing to avoid index shifting
			t.callbacks[index] = nil
		}
	}
}

// SignalChange marks the token as changed and invokes all callbacks.
// Only the first call has any effect.
func (t *CallbackChangeToken) SignalChange() {
	t.mu.Lock()
	if t.changed.Swap(true) {
		t.mu.Unlock()
		return
	}
	callbacks := make([]func(), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

// Done returns a channel that is closed once the token changes
func (t *CallbackChangeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	t.RegisterChangeCallback(func() {
		once.Do(func() { close(done) })
	})
	return done
}

// NeverChangeToken is a ChangeToken that never changes.
// Returned by sources whose content is static.
type NeverChangeToken struct{}

func (NeverChangeToken) HasChanged() bool {
	return false
}

func (NeverChangeToken) RegisterChangeCallback(callback func()) func() {
	return func() {}
}

// PollingConfig configures a polling change token.
type PollingConfig struct {
	// Interval between polls (default: 5 seconds)
	Interval time.Duration
	// CheckFunc returns true if a change is detected
	CheckFunc func() bool
}

// NewPollingChangeToken creates a ChangeToken for sources without native
// events. CheckFunc is called every Interval until it reports a change or
// ctx is done; cancel ctx to stop polling.
func NewPollingChangeToken(ctx context.Context, config PollingConfig) *CallbackChangeToken {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}

	token := NewCallbackChangeToken()
	go func() {
		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if config.CheckFunc != nil && config.CheckFunc() {
					token.SignalChange()
					return // Token is now spent
				}
			}
		}
	}()

	return token
}

// ============================================================================
// Helper: OnChange
// ============================================================================

// OnChange repeatedly waits for a token from tokenProducer to change and then
// runs changeAction, requesting a fresh token each time. It returns when ctx
// is done or tokenProducer fails, reporting the producer's error.
func OnChange(ctx context.Context, tokenProducer func() (ChangeToken, error), changeAction func()) error {
	for {
		token, err := tokenProducer()
		if err != nil {
			return err
		}

		done := make(chan struct{})
		var once sync.Once
		unregister := token.RegisterChangeCallback(func() {
			once.Do(func() { close(done) })
		})

		select {
		case <-ctx.Done():
			unregister()
			return nil
		case <-done:
			unregister()
			changeAction()
		}
	}
}
