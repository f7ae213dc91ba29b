package service

import (
	"sort"
	"strings"

	"funil_backend/internal/funnel/domain"
	"funil_backend/internal/funnel/transport"

	"github.com/google/uuid"
)

// registrationKeySep joins registration name and source id into one
// composite group key so the core aggregates both levels in one pass.
const registrationKeySep = "|"

func grouperFor(groupBy string) domain.Grouper {
	switch groupBy {
	case transport.GroupByUnit:
		return func(lead *domain.LeadRecord, act *domain.ActivityRecord) (domain.GroupKey, bool) {
			id := unitOf(lead, act)
			return domain.GroupKey{ID: id.String(), Label: id.String()}, true
		}
	case transport.GroupByUser:
		return func(lead *domain.LeadRecord, act *domain.ActivityRecord) (domain.GroupKey, bool) {
			if act != nil {
				return domain.GroupKey{ID: act.UserID.String(), Label: act.UserName}, true
			}
			if lead.AssignedUserID == nil {
				return domain.GroupKey{}, false
			}
			return domain.GroupKey{ID: lead.AssignedUserID.String(), Label: lead.AssignedUserName}, true
		}
	case transport.GroupBySource:
		return func(lead *domain.LeadRecord, act *domain.ActivityRecord) (domain.GroupKey, bool) {
			id := sourceOf(lead, act)
			return domain.GroupKey{ID: id.String(), Label: id.String()}, true
		}
	case transport.GroupByRegistration:
		return func(lead *domain.LeadRecord, act *domain.ActivityRecord) (domain.GroupKey, bool) {
			name, source := registrationOf(lead, act)
			return domain.GroupKey{ID: name + registrationKeySep + source.String(), Label: name}, true
		}
	default:
		return func(*domain.LeadRecord, *domain.ActivityRecord) (domain.GroupKey, bool) {
			return domain.GroupKey{ID: "total", Label: "total"}, true
		}
	}
}

func unitOf(lead *domain.LeadRecord, act *domain.ActivityRecord) uuid.UUID {
	if act != nil {
		return act.UnitID
	}
	return lead.UnitID
}

func sourceOf(lead *domain.LeadRecord, act *domain.ActivityRecord) uuid.UUID {
	if act != nil {
		return act.SourceID
	}
	return lead.SourceID
}

func registrationOf(lead *domain.LeadRecord, act *domain.ActivityRecord) (string, uuid.UUID) {
	if act != nil {
		return act.RegistrationName, act.SourceID
	}
	return lead.RegistrationName, lead.SourceID
}

// groupRows collapses day buckets into per-group totals with recomputed
// rates, sorted by group label.
func groupRows(buckets []domain.Bucket) []transport.Row {
	totals := make(map[domain.GroupKey]*domain.Counts)
	for _, b := range buckets {
		c, ok := totals[b.Group]
		if !ok {
			c = &domain.Counts{}
			totals[b.Group] = c
		}
		c.Add(b.Counts)
	}

	rows := make([]transport.Row, 0, len(totals))
	for key, counts := range totals {
		rows = append(rows, transport.Row{Group: key, Counts: *counts, Rates: counts.Rates()})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Group.Label != rows[j].Group.Label {
			return rows[i].Group.Label < rows[j].Group.Label
		}
		return rows[i].Group.ID < rows[j].Group.ID
	})
	return rows
}

// userRows produces per-user totals. Users whose rows carry no activity
// are dropped; the rest are sorted by display name.
func userRows(buckets []domain.Bucket) []transport.Row {
	rows := groupRows(buckets)
	out := rows[:0]
	for _, row := range rows {
		if !hasActivity(row.Counts) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func hasActivity(c domain.Counts) bool {
	return c.ContactAttempts+c.AwaitingVisits+c.CompletedVisits+c.Enrollments > 0
}

// registrationRows folds the composite registration|source buckets into
// registration rows with nested per-source sub-totals, applies the
// requested column sort and paginates. Returns the page and the total
// row count before pagination.
func registrationRows(buckets []domain.Bucket, q transport.Query) ([]transport.RegistrationRow, int) {
	type regAccum struct {
		counts  domain.Counts
		sources map[uuid.UUID]*domain.Counts
	}
	accum := make(map[string]*regAccum)

	for _, b := range buckets {
		name, sourceStr, found := strings.Cut(b.Group.ID, registrationKeySep)
		if !found {
			continue
		}
		sourceID, err := uuid.Parse(sourceStr)
		if err != nil {
			continue
		}

		reg, ok := accum[name]
		if !ok {
			reg = &regAccum{sources: make(map[uuid.UUID]*domain.Counts)}
			accum[name] = reg
		}
		reg.counts.Add(b.Counts)

		src, ok := reg.sources[sourceID]
		if !ok {
			src = &domain.Counts{}
			reg.sources[sourceID] = src
		}
		src.Add(b.Counts)
	}

	rows := make([]transport.RegistrationRow, 0, len(accum))
	for name, reg := range accum {
		row := transport.RegistrationRow{
			Registration: name,
			Counts:       reg.counts,
			Rates:        reg.counts.Rates(),
			Sources:      make([]transport.SourceSubtotal, 0, len(reg.sources)),
		}
		for sourceID, counts := range reg.sources {
			row.Sources = append(row.Sources, transport.SourceSubtotal{
				SourceID: sourceID,
				Counts:   *counts,
				Rates:    counts.Rates(),
			})
		}
		sort.Slice(row.Sources, func(i, j int) bool {
			return row.Sources[i].SourceID.String() < row.Sources[j].SourceID.String()
		})
		rows = append(rows, row)
	}

	sortRegistrationRows(rows, q.SortBy, q.SortDesc)
	total := len(rows)

	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * transport.PageSize
	if start >= len(rows) {
		return []transport.RegistrationRow{}, total
	}
	end := start + transport.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total
}

func sortRegistrationRows(rows []transport.RegistrationRow, sortBy string, desc bool) {
	value := registrationColumn(sortBy)
	sort.Slice(rows, func(i, j int) bool {
		if sortBy == "" || sortBy == "registration" || value == nil {
			if desc {
				return rows[i].Registration > rows[j].Registration
			}
			return rows[i].Registration < rows[j].Registration
		}
		vi, vj := value(rows[i]), value(rows[j])
		if vi == vj {
			return rows[i].Registration < rows[j].Registration
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
}

func registrationColumn(sortBy string) func(transport.RegistrationRow) float64 {
	switch sortBy {
	case "newClients":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.NewClients) }
	case "contactAttempts":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.ContactAttempts) }
	case "effectiveContacts":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.EffectiveContacts) }
	case "scheduledVisits":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.ScheduledVisits) }
	case "awaitingVisits":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.AwaitingVisits) }
	case "completedVisits":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.CompletedVisits) }
	case "enrollments":
		return func(r transport.RegistrationRow) float64 { return float64(r.Counts.Enrollments) }
	case "ce":
		return func(r transport.RegistrationRow) float64 { return r.Rates.CE }
	case "ag":
		return func(r transport.RegistrationRow) float64 { return r.Rates.AG }
	case "at":
		return func(r transport.RegistrationRow) float64 { return r.Rates.AT }
	case "ma":
		return func(r transport.RegistrationRow) float64 { return r.Rates.MA }
	default:
		return nil
	}
}
