package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryClaimOnce(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	ok, err := m.Claim(ctx, "result:m1")
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = m.Claim(ctx, "result:m1")
	if err != nil || ok {
		t.Fatalf("second claim must lose: ok=%v err=%v", ok, err)
	}
	if ok, _ := m.Claim(ctx, "start:m1"); !ok {
		t.Fatal("distinct key must be claimable")
	}
}

func TestMemoryClaimExpires(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := m.Claim(ctx, "k"); !ok {
		t.Fatal("first claim should win")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := m.Claim(ctx, "k"); !ok {
		t.Fatal("expired claim should be claimable again")
	}
	if m.Len() != 1 {
		t.Fatalf("expected pruned ledger, got %d entries", m.Len())
	}
}

func TestMemoryConcurrentClaims(t *testing.T) {
	m := NewMemory(0)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Claim(context.Background(), "result:race"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}
