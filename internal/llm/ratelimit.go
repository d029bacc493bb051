package llm

import (
	"context"
	"time"
)

// rpsLimiter is a token-bucket limiter refilled at a fixed rate. A nil
// limiter is disabled; all methods are nil-safe.
type rpsLimiter struct {
	tokens chan struct{}
	stopCh chan struct{}
}

func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	l := &rpsLimiter{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}
	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full
				}
			case <-l.stopCh:
				return
			}
		}
	}()
	return l
}

// Acquire blocks until a token is available or the context is canceled.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return context.Canceled
	case <-l.tokens:
		return nil
	}
}

// Stop terminates the refill goroutine.
func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	close(l.stopCh)
}

// Limiter is the minimal acquire contract the permit broker builds on.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// NewLimiter exposes a Limiter backed by an rpsLimiter. With rps <= 0 the
// returned limiter is disabled.
func NewLimiter(rps float64, burst int) Limiter {
	if l := newRPSLimiter(rps, burst); l != nil {
		return l
	}
	return nopLimiter{}
}

type nopLimiter struct{}

func (nopLimiter) Acquire(context.Context) error { return nil }
