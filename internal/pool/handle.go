package pool

import (
	"fmt"
	"sync/atomic"
)

// Handle is the async handle of one submitted work item. Completion is
// observed by polling Done; the payload is retrieved once after completion.
//
// The result fields are written by the work goroutine strictly before the
// done channel closes, so any reader that observed Done() == true reads them
// race-free.
type Handle struct {
	done    chan struct{}
	payload interface{}
	err     error

	cancel  func()
	started atomic.Bool
}

// Done reports whether the work item has finished, without blocking
func (h *Handle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result returns the work item's payload or execution error. It must only be
// called after Done reports true; calling it earlier is a retrieval error.
func (h *Handle) Result() (interface{}, error) {
	select {
	case <-h.done:
		return h.payload, h.err
	default:
		return nil, fmt.Errorf("result retrieval before completion")
	}
}

// Started reports whether the work item acquired a slot and began executing
func (h *Handle) Started() bool {
	return h.started.Load()
}

// Cancel requests a best-effort stop of the underlying work by cancelling its
// context. Work that ignores cancellation keeps running; the caller proceeds
// regardless. Returns an error only if the handle has no cancel function.
func (h *Handle) Cancel() error {
	if h.cancel == nil {
		return fmt.Errorf("handle has no cancel function")
	}
	h.cancel()
	return nil
}
