package domain

import "github.com/google/uuid"

// Selection is a resolved-at-the-boundary id filter. The UI's "todos"
// sentinel becomes All here; rate math never sees a sentinel value.
type Selection struct {
	all bool
	ids []uuid.UUID
}

// SelectAll matches every known id.
func SelectAll() Selection {
	return Selection{all: true}
}

// SelectIDs matches exactly the given ids.
func SelectIDs(ids []uuid.UUID) Selection {
	return Selection{ids: ids}
}

// IsAll reports whether this selection is the full set.
func (s Selection) IsAll() bool {
	return s.all
}

// Resolve expands the selection against the known id set. All becomes
// the full known set; a subset is intersected with it so stale ids
// cannot leak into queries.
func (s Selection) Resolve(known []uuid.UUID) []uuid.UUID {
	if s.all {
		out := make([]uuid.UUID, len(known))
		copy(out, known)
		return out
	}

	knownSet := make(map[uuid.UUID]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	out := make([]uuid.UUID, 0, len(s.ids))
	for _, id := range s.ids {
		if _, ok := knownSet[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// RawIDs returns the subset ids as given, before resolution. Empty for
// an All selection.
func (s Selection) RawIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out
}
