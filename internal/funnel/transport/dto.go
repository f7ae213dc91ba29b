// Package transport defines the funnel report wire types.
package transport

import (
	"time"

	"funil_backend/internal/funnel/domain"

	"github.com/google/uuid"
)

// Group dimensions accepted by the report endpoint.
const (
	GroupByDay          = "day"
	GroupByUnit         = "unit"
	GroupByUser         = "user"
	GroupBySource       = "source"
	GroupByRegistration = "registration"
)

// PageSize is the fixed page size for registration-grouped rows.
const PageSize = 200

// Query is the parsed, sentinel-free report query. Units and Sources
// are resolved selections; "todos" never reaches the aggregation math.
type Query struct {
	From     time.Time
	To       time.Time
	Units    domain.Selection
	Sources  domain.Selection
	GroupBy  string
	SortBy   string
	SortDesc bool
	Page     int
}

// Row is one group's summed counts across the queried range.
type Row struct {
	Group  domain.GroupKey `json:"group"`
	Counts domain.Counts   `json:"counts"`
	Rates  domain.Rates    `json:"rates"`
}

// SourceSubtotal is a per-source breakdown nested under a registration row.
type SourceSubtotal struct {
	SourceID uuid.UUID     `json:"sourceId"`
	Counts   domain.Counts `json:"counts"`
	Rates    domain.Rates  `json:"rates"`
}

// RegistrationRow is one registration channel with its nested per-source
// sub-totals.
type RegistrationRow struct {
	Registration string           `json:"registration"`
	Counts       domain.Counts    `json:"counts"`
	Rates        domain.Rates     `json:"rates"`
	Sources      []SourceSubtotal `json:"sources"`
}

// Report is the funnel report payload. Buckets carry the per-day series;
// Rows carry the per-group totals for the grouped variants. Registrations
// is populated only for registration grouping, paginated.
type Report struct {
	From          string            `json:"from"`
	To            string            `json:"to"`
	GroupBy       string            `json:"groupBy"`
	Buckets       []domain.Bucket   `json:"buckets"`
	Rows          []Row             `json:"rows,omitempty"`
	Registrations []RegistrationRow `json:"registrations,omitempty"`
	Totals        domain.Counts     `json:"totals"`
	TotalRates    domain.Rates      `json:"totalRates"`
	Page          int               `json:"page,omitempty"`
	TotalRows     int               `json:"totalRows,omitempty"`
}
