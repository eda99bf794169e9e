package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Thread timestamp columns. Presence of a timestamp means the flag is active.
const (
	FieldExcellentAt = "excellent_at"
	FieldPinnedAt    = "pinned_at"
	FieldFrozenAt    = "frozen_at"
	FieldBannedAt    = "banned_at"
	FieldPublishedAt = "published_at"
)

// Thread is an owned discussion unit. Its body lives in ThreadContent.
type Thread struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	ExcellentAt *time.Time `json:"excellent_at"`
	PinnedAt    *time.Time `json:"pinned_at"`
	FrozenAt    *time.Time `json:"frozen_at"`
	BannedAt    *time.Time `json:"banned_at"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	// Cache holds denormalized engagement counters, refreshed by the cache aggregator.
	Cache     datatypes.JSONType[ThreadCache] `json:"cache"`
	Content   *ThreadContent                  `gorm:"foreignKey:ThreadID" json:"content,omitempty"`
	CreatedAt time.Time                       `gorm:"index" json:"created_at"`
	UpdatedAt time.Time                       `json:"updated_at"`
	DeletedAt gorm.DeletedAt                  `gorm:"index" json:"-"`
}

// IsDraft reports whether the thread has never been published (or was redrafted).
func (t *Thread) IsDraft() bool {
	return t.PublishedAt == nil
}

// Snapshot returns the thread's cache counters with defaults applied.
func (t *Thread) Snapshot() ThreadCache {
	return NormalizeThreadCache(t.Cache.Data())
}

// SetSnapshot replaces the cache counters.
func (t *Thread) SetSnapshot(c ThreadCache) {
	t.Cache = datatypes.NewJSONType(NormalizeThreadCache(c))
}

// TimestampField returns a pointer to the timestamp column named field.
func (t *Thread) TimestampField(field string) (**time.Time, bool) {
	switch field {
	case FieldExcellentAt:
		return &t.ExcellentAt, true
	case FieldPinnedAt:
		return &t.PinnedAt, true
	case FieldFrozenAt:
		return &t.FrozenAt, true
	case FieldBannedAt:
		return &t.BannedAt, true
	case FieldPublishedAt:
		return &t.PublishedAt, true
	}
	return nil, false
}

// ThreadCache is the denormalized engagement snapshot of a thread. It is
// eventually consistent with the related tables.
type ThreadCache struct {
	ViewsCount         int64  `json:"views_count"`
	CommentsCount      int64  `json:"comments_count"`
	LikesCount         int64  `json:"likes_count"`
	FavoritesCount     int64  `json:"favorites_count"`
	SubscriptionsCount int64  `json:"subscriptions_count"`
	LastReplyUserID    uint   `json:"last_reply_user_id"`
	LastReplyUserName  string `json:"last_reply_user_name"`
}

// DefaultThreadCache returns the snapshot of a thread nobody has touched yet.
func DefaultThreadCache() ThreadCache {
	return ThreadCache{}
}

// NormalizeThreadCache clamps counters read from legacy rows to non-negative values.
func NormalizeThreadCache(c ThreadCache) ThreadCache {
	clamp := func(v int64) int64 {
		if v < 0 {
			return 0
		}
		return v
	}
	c.ViewsCount = clamp(c.ViewsCount)
	c.CommentsCount = clamp(c.CommentsCount)
	c.LikesCount = clamp(c.LikesCount)
	c.FavoritesCount = clamp(c.FavoritesCount)
	c.SubscriptionsCount = clamp(c.SubscriptionsCount)
	if c.LastReplyUserID == 0 {
		c.LastReplyUserName = ""
	}
	return c
}

// ThreadContent is the active body of a thread. Exactly one row per thread.
type ThreadContent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;uniqueIndex" json:"thread_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Markdown  string    `gorm:"type:text" json:"markdown,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivitySubject identifies the thread in activity records.
func (t *Thread) ActivitySubject() (string, uint) {
	return "thread", t.ID
}
