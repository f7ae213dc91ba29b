// Package leads provides the lead lifecycle bounded context module.
package leads

import (
	"funil_backend/internal/events"
	apphttp "funil_backend/internal/http"
	"funil_backend/internal/leads/handler"
	"funil_backend/internal/leads/repository"
	"funil_backend/internal/leads/service"
	"funil_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and wires the leads module. The reminder scheduler and
// visit mailer are optional collaborators; nil disables the follow-up.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, reminder service.ReminderScheduler, mailer service.VisitMailer) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, reminder, mailer)
	return &Module{
		handler: handler.New(svc, val),
		svc:     svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.svc
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterActivityRoutes(ctx.Protected.Group("/activities"))
}

var _ apphttp.Module = (*Module)(nil)
