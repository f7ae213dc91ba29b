// Package funnel provides the funnel analytics bounded context module.
package funnel

import (
	"funil_backend/internal/funnel/cache"
	"funil_backend/internal/funnel/handler"
	"funil_backend/internal/funnel/repository"
	"funil_backend/internal/funnel/service"
	apphttp "funil_backend/internal/http"
	"funil_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the funnel bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	cache   *cache.Cache
}

// NewModule creates and wires the funnel module. A nil cache disables
// report caching; queries still work, just uncached.
func NewModule(pool *pgxpool.Pool, reportCache *cache.Cache, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var svcCache service.ReportCache
	if reportCache != nil {
		svcCache = reportCache
	}
	svc := service.New(repo, svcCache, log)

	return &Module{handler: handler.New(svc), cache: reportCache}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "funnel"
}

// Cache returns the report cache for the invalidation subscriber.
func (m *Module) Cache() *cache.Cache {
	return m.cache
}

// RegisterRoutes mounts funnel routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/funnel"))
}

var _ apphttp.Module = (*Module)(nil)
