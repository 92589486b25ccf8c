package ratelimit

import (
	"context"
	"testing"
)

func TestNew(t *testing.T) {
	if _, ok := New(Limit{}).(unlimited); !ok {
		t.Error("zero QPS should not limit")
	}
	l := New(Limit{QPS: 1, Burst: 2})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("burst token %d: %v", i, err)
		}
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Error("expected error once burst is spent and context is cancelled")
	}
}
