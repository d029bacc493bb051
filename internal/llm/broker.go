package llm

import (
	"context"
	"sync/atomic"
)

// PermitBroker reserves rate-limit permits up-front, so a dispatched step
// can run its role calls without competing at the limiter.
type PermitBroker interface {
	Reserve(ctx context.Context, n int) (Lease, error)
}

// Lease embeds reserved credits into a context.
type Lease interface {
	Context(ctx context.Context) context.Context
}

type broker struct{ rl Limiter }

// NewBroker returns a PermitBroker backed by the given limiter.
func NewBroker(rl Limiter) PermitBroker { return &broker{rl: rl} }

// Reserve acquires n permits and returns a lease carrying n credits.
// Unused credits are not returned; slight over-reservation is acceptable.
func (b *broker) Reserve(ctx context.Context, n int) (Lease, error) {
	if n <= 0 || b == nil || b.rl == nil {
		return lease{}, nil
	}
	for i := 0; i < n; i++ {
		if err := b.rl.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return lease{n: n}, nil
}

type lease struct{ n int }

func (l lease) Context(ctx context.Context) context.Context { return WithCredits(ctx, l.n) }

type creditsKey struct{}

type credits struct{ n int32 }

// WithCredits returns a context carrying n consumable credits.
func WithCredits(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	return context.WithValue(ctx, creditsKey{}, &credits{n: int32(n)})
}

// TakeCredit consumes one credit from the context if one is available.
func TakeCredit(ctx context.Context) bool {
	c, ok := ctx.Value(creditsKey{}).(*credits)
	if !ok || c == nil {
		return false
	}
	for {
		cur := atomic.LoadInt32(&c.n)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.n, cur, cur-1) {
			return true
		}
	}
}
