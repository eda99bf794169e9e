package service

import (
	"sort"
	"time"

	"agora/internal/models"
)

// ApplyPublication moves the thread between Draft and Published. An explicit
// draft clears published_at; otherwise a draft is stamped with now and a
// published thread keeps its instant. It reports whether published_at changed.
func ApplyPublication(t *models.Thread, isDraft bool, now time.Time) bool {
	switch {
	case isDraft:
		if t.PublishedAt == nil {
			return false
		}
		t.PublishedAt = nil
		return true
	case t.PublishedAt == nil:
		published := now
		t.PublishedAt = &published
		return true
	default:
		return false
	}
}

// DirtyTimestamps lists the flag columns a save writes, sorted. On create
// every supplied flag is dirty; with onlyChanged a flag whose presence
// already matches the stored column is left out. Unknown flags are ignored.
func DirtyTimestamps(t *models.Thread, flags map[string]bool, onlyChanged bool) []string {
	dirty := make([]string, 0, len(flags))
	for field, want := range flags {
		ptr, ok := t.TimestampField(field)
		if !ok || field == models.FieldPublishedAt {
			continue
		}
		if onlyChanged && (*ptr != nil) == want {
			continue
		}
		dirty = append(dirty, field)
	}
	sort.Strings(dirty)
	return dirty
}

// NormalizeTimestamps writes every dirty flag column as now when its flag is
// truthy and nil otherwise. Callers never choose the instant.
func NormalizeTimestamps(t *models.Thread, dirty []string, flags map[string]bool, now time.Time) {
	for _, field := range dirty {
		ptr, ok := t.TimestampField(field)
		if !ok {
			continue
		}
		if flags[field] {
			stamped := now
			*ptr = &stamped
		} else {
			*ptr = nil
		}
	}
}
