package service

import (
	"fmt"
	"sort"
	"strings"

	"agora/internal/models"
)

// SensitiveFields are the thread columns only administrators may change.
var SensitiveFields = []string{
	models.FieldExcellentAt,
	models.FieldPinnedAt,
	models.FieldFrozenAt,
	models.FieldBannedAt,
}

// IsSensitiveField reports whether field is one of SensitiveFields.
func IsSensitiveField(field string) bool {
	for _, f := range SensitiveFields {
		if f == field {
			return true
		}
	}
	return false
}

// ModerationGuard decides whether an actor may write a set of dirty columns.
type ModerationGuard struct{}

func NewModerationGuard() *ModerationGuard {
	return &ModerationGuard{}
}

// Violations returns the sensitive columns in dirty, sorted and deduplicated.
func (g *ModerationGuard) Violations(dirty []string) []string {
	seen := make(map[string]struct{}, len(dirty))
	var out []string
	for _, field := range dirty {
		if !IsSensitiveField(field) {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Authorize fails with FORBIDDEN when a non-admin touches a sensitive column.
func (g *ModerationGuard) Authorize(actorIsAdmin bool, dirty []string) error {
	violations := g.Violations(dirty)
	if len(violations) == 0 || actorIsAdmin {
		return nil
	}
	return models.NewForbiddenError(fmt.Sprintf(
		"Only administrators can change %s", strings.Join(violations, ", "),
	))
}
