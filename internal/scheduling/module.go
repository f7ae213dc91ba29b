// Package scheduling provides the slot availability bounded context module.
package scheduling

import (
	apphttp "funil_backend/internal/http"
	"funil_backend/internal/scheduling/handler"
	"funil_backend/internal/scheduling/repository"
	"funil_backend/internal/scheduling/service"
	"funil_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the scheduling bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and wires the scheduling module.
func NewModule(pool *pgxpool.Pool, hours config.BusinessHours) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, hours)
	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scheduling"
}

// RegisterRoutes mounts scheduling routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/scheduling"))
}

var _ apphttp.Module = (*Module)(nil)
