package download

import (
	"errors"
	"sync"
)

// Handle is a running job that can be stopped from another goroutine.
// transcode.Process satisfies it.
type Handle interface {
	Terminate() error
}

// CancelToken tracks the transcoder processes of one run so they can be
// stopped together. It is safe for concurrent use.
//
// A handle registered after CancelAll is terminated immediately, so a worker
// that races with cancellation never leaves a process running.
type CancelToken struct {
	mu        sync.Mutex
	handles   map[Handle]struct{}
	cancelled bool
}

// NewCancelToken creates an empty token.
func NewCancelToken() *CancelToken {
	return &CancelToken{handles: make(map[Handle]struct{})}
}

// Register starts tracking h.
func (t *CancelToken) Register(h Handle) {
	if t == nil || h == nil {
		return
	}
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		_ = h.Terminate()
		return
	}
	t.handles[h] = struct{}{}
	t.mu.Unlock()
}

// Unregister stops tracking h. Unknown handles are ignored.
func (t *CancelToken) Unregister(h Handle) {
	if t == nil || h == nil {
		return
	}
	t.mu.Lock()
	delete(t.handles, h)
	t.mu.Unlock()
}

// CancelAll marks the token cancelled and terminates every tracked handle.
// The tracked set is cleared. Termination errors are joined and returned.
func (t *CancelToken) CancelAll() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	t.cancelled = true
	handles := make([]Handle, 0, len(t.handles))
	for h := range t.handles {
		handles = append(handles, h)
	}
	clear(t.handles)
	t.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Terminate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cancelled reports whether CancelAll has been called.
func (t *CancelToken) Cancelled() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Active returns the number of tracked handles.
func (t *CancelToken) Active() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}
