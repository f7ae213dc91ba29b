package scheduler

import (
	"context"
	"fmt"
	"time"

	"funil_backend/internal/events"
	"funil_backend/internal/funnel/cache"
	"funil_backend/internal/leads/domain"
	"funil_backend/internal/leads/repository"
	"funil_backend/platform/config"
	"funil_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  *repository.Repository
	cache  *cache.Cache
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, reportCache *cache.Cache, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  repository.New(pool),
		cache:  reportCache,
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskNextContactReminder, w.handleNextContactReminder)
	mux.HandleFunc(TaskFunnelInvalidate, w.handleFunnelInvalidate)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleNextContactReminder re-reads the lead at fire time and drops
// stale reminders: a reminder enqueued before the contact date moved or
// the lead reached a terminal status must not fire.
func (w *Worker) handleNextContactReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNextContactReminderPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	lead, err := w.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}

	if domain.IsTerminal(lead.Status) {
		return nil
	}
	if lead.NextContactDate == nil || lead.NextContactDate.After(time.Now().Add(time.Minute)) {
		// Rescheduled after this reminder was enqueued.
		return nil
	}

	w.log.Info("next contact due", "leadId", lead.ID, "status", lead.Status)

	if w.bus == nil {
		return nil
	}
	return w.bus.PublishSync(ctx, events.NextContactDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		UnitID:    lead.UnitID,
	})
}

func (w *Worker) handleFunnelInvalidate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFunnelInvalidatePayload(task)
	if err != nil {
		return err
	}

	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, payload.Scope); err != nil {
			return err
		}
	}

	if w.bus == nil {
		return nil
	}
	return w.bus.PublishSync(ctx, events.FunnelInvalidated{
		BaseEvent: events.NewBaseEvent(),
		Scope:     payload.Scope,
	})
}
