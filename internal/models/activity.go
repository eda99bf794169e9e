package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity actions.
const (
	ActivityPublishedThread = "published thread"
)

// ActivityLog records something a user did to a subject.
type ActivityLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Action      string            `gorm:"size:64;not null;index" json:"action"`
	SubjectType string            `gorm:"size:64;not null;index:idx_activity_subject" json:"subject_type"`
	SubjectID   uint              `gorm:"not null;index:idx_activity_subject" json:"subject_id"`
	CauserID    uint              `gorm:"index" json:"causer_id"`
	Properties  datatypes.JSONMap `json:"properties"`
	CreatedAt   time.Time         `json:"created_at"`
}
