// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Store groups the repositories a unit of work touches. Repositories obtained
// from the Store passed to Transaction share that transaction.
type Store interface {
	Threads() ThreadRepository
	Contents() ContentRepository
	Comments() CommentRepository
	Engagement() EngagementRepository
	Users() UserRepository
	Activities() ActivityRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Threads() ThreadRepository        { return NewThreadRepository(s.db) }
func (s *gormStore) Contents() ContentRepository      { return NewContentRepository(s.db) }
func (s *gormStore) Comments() CommentRepository      { return NewCommentRepository(s.db) }
func (s *gormStore) Engagement() EngagementRepository { return NewEngagementRepository(s.db) }
func (s *gormStore) Users() UserRepository            { return NewUserRepository(s.db) }
func (s *gormStore) Activities() ActivityRepository   { return NewActivityRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
