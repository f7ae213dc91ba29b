package invalidation

import (
	"context"
	"sync"
	"testing"
	"time"

	"funil_backend/internal/events"
	"funil_backend/internal/funnel/cache"
	"funil_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingInvalidator struct {
	mu     sync.Mutex
	scopes []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
	return nil
}

func (r *recordingInvalidator) count(scope string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.scopes {
		if s == scope {
			n++
		}
	}
	return n
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	rec := &recordingInvalidator{}
	d := New(rec, nil, logger.New("test"), 30*time.Millisecond)
	defer d.Close()

	for i := 0; i < 5; i++ {
		d.Touch("unit-1")
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if got := rec.count("unit-1"); got != 1 {
		t.Errorf("a burst must fire one unit invalidation, got %d", got)
	}
	if got := rec.count(cache.ScopeAll); got != 1 {
		t.Errorf("a burst must fire one global invalidation, got %d", got)
	}
}

func TestDebouncerSeparateScopes(t *testing.T) {
	rec := &recordingInvalidator{}
	d := New(rec, nil, logger.New("test"), 20*time.Millisecond)
	defer d.Close()

	d.Touch("unit-1")
	d.Touch("unit-2")

	time.Sleep(80 * time.Millisecond)

	if rec.count("unit-1") != 1 || rec.count("unit-2") != 1 {
		t.Errorf("each scope must fire once, got %v", rec.scopes)
	}
}

func TestDebouncerCloseCancelsPending(t *testing.T) {
	rec := &recordingInvalidator{}
	d := New(rec, nil, logger.New("test"), 30*time.Millisecond)

	d.Touch("unit-1")
	d.Close()

	time.Sleep(80 * time.Millisecond)

	if len(rec.scopes) != 0 {
		t.Errorf("closed debouncer must not fire, got %v", rec.scopes)
	}
}

func TestDebouncerSubscribesToActivityEvents(t *testing.T) {
	rec := &recordingInvalidator{}
	bus := events.NewInMemoryBus(logger.New("test"))
	d := New(rec, nil, logger.New("test"), 20*time.Millisecond)
	defer d.Close()
	d.Subscribe(bus)

	unitID := uuid.New()
	if err := bus.PublishSync(context.Background(), events.ActivityCommitted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		UnitID:    unitID,
	}); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if rec.count(unitID.String()) != 1 {
		t.Fatalf("an activity event must invalidate its unit scope, got %v", rec.scopes)
	}
}
