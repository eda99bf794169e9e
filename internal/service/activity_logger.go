package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/repository"
)

// ActivitySubject is anything an activity record can point at.
type ActivitySubject interface {
	ActivitySubject() (subjectType string, id uint)
}

// ActivityLogger records user activity.
type ActivityLogger interface {
	Log(ctx context.Context, action string, subject ActivitySubject, causerID uint, properties map[string]interface{}) error
}

type dbActivityLogger struct {
	repo repository.ActivityRepository
}

// NewActivityLogger returns an ActivityLogger that appends to the activity table.
func NewActivityLogger(repo repository.ActivityRepository) ActivityLogger {
	return &dbActivityLogger{repo: repo}
}

func (l *dbActivityLogger) Log(ctx context.Context, action string, subject ActivitySubject, causerID uint, properties map[string]interface{}) error {
	subjectType, subjectID := subject.ActivitySubject()
	return l.repo.Create(ctx, &models.ActivityLog{
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		CauserID:    causerID,
		Properties:  properties,
	})
}
