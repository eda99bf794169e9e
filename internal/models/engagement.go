package models

import "time"

// ThreadLike represents a user's like on a thread.
// The combination of UserID and ThreadID must be unique.
type ThreadLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_thread_like_user" json:"user_id"`
	ThreadID  uint      `gorm:"not null;uniqueIndex:idx_thread_like_user;index" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadFavorite represents a user's bookmark of a thread.
type ThreadFavorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_thread_favorite_user" json:"user_id"`
	ThreadID  uint      `gorm:"not null;uniqueIndex:idx_thread_favorite_user;index" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadSubscription puts a user in a thread's notification set.
type ThreadSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_thread_subscription_user" json:"user_id"`
	ThreadID  uint      `gorm:"not null;uniqueIndex:idx_thread_subscription_user;index" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}
