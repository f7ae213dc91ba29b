// Package service runs funnel queries: it resolves selections, fetches
// the snapshots, applies the aggregation core and caches the result.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"funil_backend/internal/funnel/cache"
	"funil_backend/internal/funnel/domain"
	"funil_backend/internal/funnel/repository"
	"funil_backend/internal/funnel/transport"
	"funil_backend/platform/apperr"
	"funil_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Snapshots is the read-side persistence collaborator.
type Snapshots interface {
	Activities(ctx context.Context, filter repository.SnapshotFilter) ([]domain.ActivityRecord, error)
	Leads(ctx context.Context, filter repository.SnapshotFilter) ([]domain.LeadRecord, error)
	UnitIDs(ctx context.Context) ([]uuid.UUID, error)
	SourceIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ReportCache stores computed reports; implemented by the redis cache.
// nil disables caching.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type Service struct {
	repo  Snapshots
	cache ReportCache
	log   *logger.Logger
	loc   *time.Location
}

func New(repo Snapshots, reportCache ReportCache, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: reportCache, log: log, loc: time.Local}
}

// Aggregate runs one funnel query. Idempotent and side-effect free; safe
// to re-invoke on redundant invalidation bursts.
func (s *Service) Aggregate(ctx context.Context, q transport.Query) (*transport.Report, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	key := cache.Key(queryScope(q), canonicalQuery(q))
	if s.cache != nil {
		var cached transport.Report
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("funnel cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	report, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			s.log.Warn("funnel cache write failed", "error", err)
		}
	}
	return report, nil
}

func (s *Service) compute(ctx context.Context, q transport.Query) (*transport.Report, error) {
	unitIDs, sourceIDs, err := s.resolveSelections(ctx, q)
	if err != nil {
		return nil, err
	}

	report := &transport.Report{
		From:    q.From.Format("2006-01-02"),
		To:      q.To.Format("2006-01-02"),
		GroupBy: q.GroupBy,
		Buckets: []domain.Bucket{},
	}
	if len(unitIDs) == 0 || len(sourceIDs) == 0 {
		return report, nil
	}

	filter := repository.SnapshotFilter{From: q.From, To: q.To, UnitIDs: unitIDs, SourceIDs: sourceIDs}

	var (
		acts  []domain.ActivityRecord
		leads []domain.LeadRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acts, err = s.repo.Activities(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.repo.Leads(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buckets := domain.Aggregate(q.From, q.To, s.loc, leads, acts, grouperFor(q.GroupBy))
	report.Buckets = buckets
	report.Totals = domain.Merge(buckets)
	report.TotalRates = report.Totals.Rates()

	switch q.GroupBy {
	case transport.GroupByUnit, transport.GroupBySource:
		report.Rows = groupRows(buckets)
	case transport.GroupByUser:
		report.Rows = userRows(buckets)
	case transport.GroupByRegistration:
		rows, total := registrationRows(buckets, q)
		report.Registrations = rows
		report.TotalRows = total
		report.Page = q.Page
	}

	return report, nil
}

func (s *Service) resolveSelections(ctx context.Context, q transport.Query) ([]uuid.UUID, []uuid.UUID, error) {
	var knownUnits, knownSources []uuid.UUID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		knownUnits, err = s.repo.UnitIDs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		knownSources, err = s.repo.SourceIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return q.Units.Resolve(knownUnits), q.Sources.Resolve(knownSources), nil
}

func validateQuery(q transport.Query) error {
	if q.To.Before(q.From) {
		return apperr.Validation("date range end precedes its start")
	}
	switch q.GroupBy {
	case transport.GroupByDay, transport.GroupByUnit, transport.GroupByUser, transport.GroupBySource, transport.GroupByRegistration:
	default:
		return apperr.Validation("unknown group dimension " + q.GroupBy)
	}
	if q.Page < 0 {
		return apperr.Validation("page must not be negative")
	}
	return nil
}

// queryScope picks the invalidation scope: a single-unit subset caches
// under that unit, everything else under the global scope.
func queryScope(q transport.Query) string {
	if id, ok := singleUnit(q.Units); ok {
		return id.String()
	}
	return cache.ScopeAll
}

func singleUnit(sel domain.Selection) (uuid.UUID, bool) {
	if sel.IsAll() {
		return uuid.Nil, false
	}
	ids := sel.RawIDs()
	if len(ids) != 1 {
		return uuid.Nil, false
	}
	return ids[0], true
}

// canonicalQuery renders the query deterministically so identical
// queries share a cache key regardless of parameter order.
func canonicalQuery(q transport.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from=%s&to=%s&group=%s&sort=%s&desc=%t&page=%d",
		q.From.Format("2006-01-02"), q.To.Format("2006-01-02"), q.GroupBy, q.SortBy, q.SortDesc, q.Page)
	b.WriteString("&units=")
	b.WriteString(selectionString(q.Units))
	b.WriteString("&sources=")
	b.WriteString(selectionString(q.Sources))
	return b.String()
}

func selectionString(sel domain.Selection) string {
	if sel.IsAll() {
		return "all"
	}
	ids := sel.RawIDs()
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, ",")
}
