package llm

import (
	"context"
	"testing"
)

func TestTakeCredit_ConsumesExactly(t *testing.T) {
	ctx := WithCredits(context.Background(), 3)
	for i := 0; i < 3; i++ {
		if !TakeCredit(ctx) {
			t.Fatalf("credit %d should be available", i+1)
		}
	}
	if TakeCredit(ctx) {
		t.Fatal("credits must be exhausted after 3 takes")
	}
}

func TestTakeCredit_NoCredits(t *testing.T) {
	if TakeCredit(context.Background()) {
		t.Fatal("bare context must have no credits")
	}
	if TakeCredit(WithCredits(context.Background(), 0)) {
		t.Fatal("zero-credit context must have no credits")
	}
}

func TestBroker_ReserveGrantsLeaseCredits(t *testing.T) {
	b := NewBroker(NewLimiter(1000, 10))
	lease, err := b.Reserve(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := lease.Context(context.Background())
	if !TakeCredit(ctx) || !TakeCredit(ctx) {
		t.Fatal("lease must carry 2 credits")
	}
	if TakeCredit(ctx) {
		t.Fatal("lease must not carry more than reserved")
	}
}

func TestBroker_ReserveCancelled(t *testing.T) {
	b := NewBroker(NewLimiter(0.1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Reserve(ctx, 5); err == nil {
		t.Fatal("expected cancellation error from reserve")
	}
}
