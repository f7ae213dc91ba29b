// Package repository reads the lead and activity snapshots the funnel
// aggregator consumes. All reads are side-effect free.
package repository

import (
	"context"
	"fmt"
	"time"

	"funil_backend/internal/funnel/domain"
	leadsdomain "funil_backend/internal/leads/domain"
	"funil_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func storeErr(op string, err error) error {
	return apperr.Unavailable("funnel store unreachable", fmt.Errorf("%s: %w", op, err))
}

// SnapshotFilter narrows a snapshot read to the resolved unit and source
// id sets. Empty slices mean the caller resolved an empty selection and
// should not be querying at all; they are still handled safely here.
type SnapshotFilter struct {
	From      time.Time
	To        time.Time // inclusive day
	UnitIDs   []uuid.UUID
	SourceIDs []uuid.UUID
}

func (f SnapshotFilter) bounds() (time.Time, time.Time) {
	from := time.Date(f.From.Year(), f.From.Month(), f.From.Day(), 0, 0, 0, 0, f.From.Location())
	to := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 0, 0, 0, 0, f.To.Location()).AddDate(0, 0, 1)
	return from, to
}

// Activities returns the active activities whose creation day or, for
// scheduling activities, scheduled day falls inside the filter range,
// joined with their lead's grouping dimensions and the acting user.
func (r *Repository) Activities(ctx context.Context, filter SnapshotFilter) ([]domain.ActivityRecord, error) {
	from, to := filter.bounds()
	query := `
		SELECT a.type, a.created_at, a.scheduled_date, a.user_id,
			COALESCE(u.name, ''), l.unit_id, l.source_id, l.registration_name
		FROM activities a
		JOIN leads l ON l.id = a.lead_id
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.active = true
			AND l.unit_id = ANY($1) AND l.source_id = ANY($2)
			AND (
				(a.created_at >= $3 AND a.created_at < $4)
				OR (a.scheduled_date >= $3 AND a.scheduled_date < $4)
			)
		ORDER BY a.created_at`

	rows, err := r.pool.Query(ctx, query, filter.UnitIDs, filter.SourceIDs, from, to)
	if err != nil {
		return nil, storeErr("activity snapshot", err)
	}
	defer rows.Close()

	records := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		var rec domain.ActivityRecord
		var actType string
		if err := rows.Scan(
			&actType,
			&rec.CreatedAt,
			&rec.ScheduledDate,
			&rec.UserID,
			&rec.UserName,
			&rec.UnitID,
			&rec.SourceID,
			&rec.RegistrationName,
		); err != nil {
			return nil, storeErr("activity snapshot", err)
		}
		rec.Type = leadsdomain.ActivityType(actType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("activity snapshot", err)
	}
	return records, nil
}

// Leads returns the leads created inside the filter range.
func (r *Repository) Leads(ctx context.Context, filter SnapshotFilter) ([]domain.LeadRecord, error) {
	from, to := filter.bounds()
	query := `
		SELECT l.created_at, l.unit_id, l.source_id, l.registration_name,
			l.assigned_user_id, COALESCE(u.name, '')
		FROM leads l
		LEFT JOIN users u ON u.id = l.assigned_user_id
		WHERE l.unit_id = ANY($1) AND l.source_id = ANY($2)
			AND l.created_at >= $3 AND l.created_at < $4
		ORDER BY l.created_at`

	rows, err := r.pool.Query(ctx, query, filter.UnitIDs, filter.SourceIDs, from, to)
	if err != nil {
		return nil, storeErr("lead snapshot", err)
	}
	defer rows.Close()

	records := make([]domain.LeadRecord, 0)
	for rows.Next() {
		var rec domain.LeadRecord
		if err := rows.Scan(
			&rec.CreatedAt,
			&rec.UnitID,
			&rec.SourceID,
			&rec.RegistrationName,
			&rec.AssignedUserID,
			&rec.AssignedUserName,
		); err != nil {
			return nil, storeErr("lead snapshot", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("lead snapshot", err)
	}
	return records, nil
}

// UnitIDs returns every unit id known to the lead base. Selections are
// resolved against this set before querying.
func (r *Repository) UnitIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.distinctIDs(ctx, "unit ids", `SELECT DISTINCT unit_id FROM leads`)
}

// SourceIDs returns every lead source id known to the lead base.
func (r *Repository) SourceIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.distinctIDs(ctx, "source ids", `SELECT DISTINCT source_id FROM leads`)
}

func (r *Repository) distinctIDs(ctx context.Context, op, query string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return ids, nil
}
