package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryThrottle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryThrottle()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if ok, _ := m.Allow(ctx, "poll:DN1", 5*time.Second); !ok {
		t.Fatal("first call should be allowed")
	}
	if ok, _ := m.Allow(ctx, "poll:DN1", 5*time.Second); ok {
		t.Fatal("second call inside the window should be throttled")
	}
	if ok, _ := m.Allow(ctx, "poll:DN2", 5*time.Second); !ok {
		t.Fatal("other keys are independent")
	}

	now = now.Add(5 * time.Second)
	if ok, _ := m.Allow(ctx, "poll:DN1", 5*time.Second); !ok {
		t.Fatal("call after the window should be allowed")
	}
}

func TestMemoryThrottle_ZeroTTL(t *testing.T) {
	m := NewMemoryThrottle()
	for i := 0; i < 3; i++ {
		if ok, _ := m.Allow(context.Background(), "k", 0); !ok {
			t.Fatal("zero ttl disables throttling")
		}
	}
}
