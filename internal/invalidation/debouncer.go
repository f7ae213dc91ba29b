// Package invalidation busts the funnel report cache when lead activity
// changes the numbers. Invalidations are debounced per scope: an
// activity burst re-arms the pending timer instead of stampeding the
// cache and its recomputing consumers.
package invalidation

import (
	"context"
	"sync"
	"time"

	"funil_backend/internal/events"
	"funil_backend/internal/funnel/cache"
	"funil_backend/platform/logger"
)

// DefaultDelay is how long a scope stays quiet before its invalidation
// fires. Follow-up events inside the window supersede the pending timer.
const DefaultDelay = 2 * time.Second

// CacheInvalidator deletes cached reports for a scope.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, scope string) error
}

type Debouncer struct {
	cache CacheInvalidator
	bus   events.Bus
	log   *logger.Logger
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

func New(invalidator CacheInvalidator, bus events.Bus, log *logger.Logger, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		cache:   invalidator,
		bus:     bus,
		log:     log,
		delay:   delay,
		pending: make(map[string]*time.Timer),
	}
}

// Subscribe registers the debouncer on every event that changes funnel
// numbers.
func (d *Debouncer) Subscribe(bus events.Bus) {
	handler := events.HandlerFunc(func(_ context.Context, event events.Event) error {
		switch e := event.(type) {
		case events.ActivityCommitted:
			d.Touch(e.UnitID.String())
		case events.LeadStatusChanged:
			d.Touch(e.UnitID.String())
		case events.ActivityDeactivated:
			d.Touch(e.UnitID.String())
		case events.LeadCreated:
			d.Touch(e.UnitID.String())
		}
		return nil
	})

	bus.Subscribe(events.ActivityCommitted{}.EventName(), handler)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), handler)
	bus.Subscribe(events.ActivityDeactivated{}.EventName(), handler)
	bus.Subscribe(events.LeadCreated{}.EventName(), handler)
}

// Touch schedules an invalidation for the scope and for the global
// scope, superseding any pending timer for either.
func (d *Debouncer) Touch(scope string) {
	d.arm(scope)
	d.arm(cache.ScopeAll)
}

func (d *Debouncer) arm(scope string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if timer, ok := d.pending[scope]; ok {
		timer.Stop()
	}
	d.pending[scope] = time.AfterFunc(d.delay, func() {
		d.fire(scope)
	})
}

func (d *Debouncer) fire(scope string) {
	d.mu.Lock()
	delete(d.pending, scope)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.cache.Invalidate(ctx, scope); err != nil {
		d.log.Error("funnel cache invalidation failed", "scope", scope, "error", err)
		return
	}

	if d.bus != nil {
		d.bus.Publish(ctx, events.FunnelInvalidated{
			BaseEvent: events.NewBaseEvent(),
			Scope:     scope,
		})
	}
}

// Close cancels every pending timer. Invalidations already in flight
// still complete.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for scope, timer := range d.pending {
		timer.Stop()
		delete(d.pending, scope)
	}
}
