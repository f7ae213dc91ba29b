// Package handler exposes the funnel report over HTTP. Sentinel values
// ("todos") are translated into Selections here, at the boundary.
package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"funil_backend/internal/funnel/domain"
	"funil_backend/internal/funnel/service"
	"funil_backend/internal/funnel/transport"
	"funil_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	sentinelAll       = "todos"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Report)
}

func (h *Handler) Report(c *gin.Context) {
	query, ok := h.parseQuery(c)
	if !ok {
		return
	}

	report, err := h.svc.Aggregate(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

func (h *Handler) parseQuery(c *gin.Context) (transport.Query, bool) {
	from, to, ok := parseRange(c)
	if !ok {
		return transport.Query{}, false
	}

	units, ok := parseSelection(c, "units")
	if !ok {
		return transport.Query{}, false
	}
	sources, ok := parseSelection(c, "sources")
	if !ok {
		return transport.Query{}, false
	}

	groupBy := c.DefaultQuery("groupBy", transport.GroupByDay)
	page := 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "page must be a number")
			return transport.Query{}, false
		}
		page = parsed
	}

	return transport.Query{
		From:     from,
		To:       to,
		Units:    units,
		Sources:  sources,
		GroupBy:  groupBy,
		SortBy:   c.Query("sortBy"),
		SortDesc: c.Query("sortDir") == "desc",
		Page:     page,
	}, true
}

// parseRange accepts either an explicit from/to pair or a month/year
// multi-select, which expands to the covering date range.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	fromRaw, toRaw := c.Query("from"), c.Query("to")
	if fromRaw != "" || toRaw != "" {
		from, err1 := time.ParseInLocation("2006-01-02", fromRaw, time.Local)
		to, err2 := time.ParseInLocation("2006-01-02", toRaw, time.Local)
		if err1 != nil || err2 != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "from/to must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		return from, to, true
	}

	years, ok := parseIntList(c, "years", 2000, 2100)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if len(years) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "either from/to or years is required")
		return time.Time{}, time.Time{}, false
	}

	months, ok := parseIntList(c, "months", 1, 12)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if len(months) == 0 {
		months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}

	sort.Ints(years)
	sort.Ints(months)
	from := time.Date(years[0], time.Month(months[0]), 1, 0, 0, 0, 0, time.Local)
	lastYear, lastMonth := years[len(years)-1], months[len(months)-1]
	to := time.Date(lastYear, time.Month(lastMonth), 1, 0, 0, 0, 0, time.Local).
		AddDate(0, 1, -1)
	return from, to, true
}

// parseIntList reads a comma-separated list; "todos" or absence means
// the full set for months and is rejected for years.
func parseIntList(c *gin.Context, name string, min, max int) ([]int, bool) {
	raw := c.Query(name)
	if raw == "" || raw == sentinelAll {
		return nil, true
	}

	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < min || n > max {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, name+" contains an invalid value")
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func parseSelection(c *gin.Context, name string) (domain.Selection, bool) {
	raw := c.Query(name)
	if raw == "" || raw == sentinelAll {
		return domain.SelectAll(), true
	}

	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, name+" contains an invalid id")
			return domain.Selection{}, false
		}
		ids = append(ids, id)
	}
	return domain.SelectIDs(ids), true
}
