package inflight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LumeraProtocol/notary/pkg/logtrace"
)

var ErrInFlight = errors.New("operation already in flight")

// Handle releases a tracked operation exactly once. A watchdog releases it
// after the timeout so that an abandoned caller cannot block the key forever.
type Handle struct {
	tr        *Tracker
	operation string
	key       string
	stop      chan struct{}
	once      sync.Once
}

// Acquire starts tracking (operation, key) and returns ErrInFlight when it is
// already running. A nil tracker yields a no-op handle.
func Acquire(ctx context.Context, tr *Tracker, operation, key string, timeout time.Duration) (*Handle, error) {
	if tr == nil {
		return &Handle{}, nil
	}
	if !tr.TryStart(operation, key, logtrace.CorrelationIDFromContext(ctx)) {
		return nil, ErrInFlight
	}

	logtrace.Debug(ctx, "inflight: acquired", logtrace.Fields{"operation": operation, "key": key})
	h := &Handle{tr: tr, operation: operation, key: key, stop: make(chan struct{})}
	if timeout > 0 {
		go func() {
			select {
			case <-time.After(timeout):
				h.release(ctx, true)
			case <-h.stop:
			}
		}()
	}
	return h, nil
}

// Release stops tracking the operation. Safe to call multiple times.
func (h *Handle) Release(ctx context.Context) {
	h.release(ctx, false)
}

func (h *Handle) release(ctx context.Context, expired bool) {
	if h == nil || h.tr == nil {
		return
	}
	h.once.Do(func() {
		close(h.stop)
		h.tr.End(h.operation, h.key)
		if expired {
			logtrace.Warn(ctx, "inflight: watchdog expired", logtrace.Fields{"operation": h.operation, "key": h.key})
		} else {
			logtrace.Debug(ctx, "inflight: released", logtrace.Fields{"operation": h.operation, "key": h.key})
		}
	})
}
