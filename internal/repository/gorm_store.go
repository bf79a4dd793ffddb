package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore implements Store over a relational database (MySQL or SQLite).
// The *gorm.DB must be opened with TranslateError so unique-index violations
// surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a new store bound to the given DB connection.
func NewGormStore(database *gorm.DB) *GormStore {
	return &GormStore{db: database}
}

// DB exposes the underlying connection for maintenance tasks (seeding, resets).
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// findOne loads the first row matching query into dest. It returns nil, nil
// when nothing matches.
func findOne[T any](tx *gorm.DB, query string, args ...any) (*T, error) {
	var out T
	err := tx.Where(query, args...).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
