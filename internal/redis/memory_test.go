package redis

import (
	"context"
	"testing"
	"time"

	"haul/internal/domain"
)

func TestMemoryCache_ExpiresEntries(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.SetLoadsBatch(ctx, []domain.Load{{ID: "l1", Price: 100}, {ID: "l2"}})

	got, err := c.GetLoad(ctx, "l1")
	if err != nil || got == nil || got.Price != 100 {
		t.Fatalf("expected cached load, got %+v %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if got, _ := c.GetLoad(ctx, "l1"); got != nil {
		t.Errorf("expected expired entry, got %+v", got)
	}

	_ = c.SetLoad(ctx, &domain.Load{ID: "l2"})
	_ = c.InvalidateLoad(ctx, "l2")
	if got, _ := c.GetLoad(ctx, "l2"); got != nil {
		t.Errorf("expected invalidated entry, got %+v", got)
	}
}
