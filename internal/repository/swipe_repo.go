package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/callfirst/internal/db"
	"github.com/oggyb/callfirst/internal/utils/pagination"
)

// latestSwipeOf restricts alias to the most recent swipe of its (from, to)
// pair. Ties on created_at go to the greater (time-ordered) id.
func latestSwipeOf(alias string) string {
	return `NOT EXISTS (
		SELECT 1 FROM swipes l
		WHERE l.from_id = ` + alias + `.from_id AND l.to_id = ` + alias + `.to_id
		  AND (l.created_at > ` + alias + `.created_at
		       OR (l.created_at = ` + alias + `.created_at AND l.id > ` + alias + `.id))
	)`
}

// CreateSwipe appends a like/pass decision. Swipes are never updated, so the
// history of a pair stays intact and the latest row wins.
func (s *GormStore) CreateSwipe(ctx context.Context, sw *db.Swipe) error {
	sw.CreatedAt = db.Timestamp(sw.CreatedAt)
	return s.db.WithContext(ctx).Create(sw).Error
}

// LatestSwipe returns the most recent decision fromID made about toID.
//
// Example:
//
//	store.LatestSwipe(ctx, "bob", "alice") // -> bob's current stance on alice
func (s *GormStore) LatestSwipe(ctx context.Context, fromID, toID string) (*db.Swipe, error) {
	var swipes []db.Swipe
	err := s.db.WithContext(ctx).
		Where("from_id = ? AND to_id = ?", fromID, toID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&swipes).Error
	if err != nil || len(swipes) == 0 {
		return nil, err
	}
	return &swipes[0], nil
}

// likersQuery selects swipes whose author currently likes userID.
//
// Behavior:
//   - Only the latest swipe of each author counts, and it must be a like.
//   - Excludes authors whose latest swipe from userID is a pass.
//   - Excludes authors with a block in either direction.
func (s *GormStore) likersQuery(ctx context.Context, userID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("swipes s").
		Where("s.to_id = ? AND s.action = ?", userID, db.SwipeLike).
		Where(latestSwipeOf("s")).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes r
				WHERE r.from_id = ?
				  AND r.to_id = s.from_id
				  AND r.action = ?
				  AND `+latestSwipeOf("r")+`
			)`, userID, db.SwipePass).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = s.from_id)
				   OR (b.blocker_id = s.from_id AND b.blocked_id = ?)
			)`, userID, userID)
}

// ListLikers returns users who currently like userID.
//
// Behavior:
//   - Ordered by created_at DESC, from_id DESC.
//   - Supports cursor-based pagination via token.
//
// Example:
//
//	store.ListLikers(ctx, "alice", nil, 5) // first 5 people who liked alice
func (s *GormStore) ListLikers(
	ctx context.Context,
	userID string,
	token *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(token))
	if err != nil {
		return nil, nil, err
	}

	query := s.likersQuery(ctx, userID).
		Order("s.created_at DESC, s.from_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.from_id < ?))",
			ts, ts, cursor.FromID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	swipes, next := pageOf(swipes, limit)
	return swipes, next, nil
}

// CountLikers returns how many users currently like userID. Used behind the
// Redis count cache (DB is the fallback).
func (s *GormStore) CountLikers(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.likersQuery(ctx, userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// pageOf trims a limit+1 result set and builds the next cursor if needed.
func pageOf(swipes []db.Swipe, limit int) ([]db.Swipe, *string) {
	if len(swipes) <= limit {
		return swipes, nil
	}
	last := swipes[limit-1]
	token, _ := pagination.Encode(pagination.Cursor{
		FromID:      last.FromID,
		CreatedUnix: last.CreatedAt.UnixMilli(),
	})
	return swipes[:limit], &token
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
