package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// CreateBlock records a block and applies its side effects in one
// transaction, so a caller that re-lists matches right after sees them
// blocked.
//
// Behavior:
//   - A repeated (blocker, blocked) row is ignored.
//   - Every match of the pair, whatever its state, becomes blocked.
//   - Scheduled calls on those matches' threads are canceled.
func (s *GormStore) CreateBlock(ctx context.Context, b *db.Block) error {
	b.CreatedAt = db.Timestamp(b.CreatedAt)
	return s.transaction(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).Create(b).Error
		if err != nil {
			return err
		}

		a, c := db.OrderedPair(b.BlockerID, b.BlockedID)
		var matchIDs []string
		if err := tx.Model(&db.Match{}).
			Where("user_a_id = ? AND user_b_id = ?", a, c).
			Pluck("id", &matchIDs).Error; err != nil {
			return err
		}
		if len(matchIDs) == 0 {
			return nil
		}

		if err := tx.Model(&db.Match{}).
			Where("id IN ?", matchIDs).
			Updates(map[string]any{"state": db.MatchBlocked, "updated_at": b.CreatedAt}).Error; err != nil {
			return err
		}

		threads := tx.Model(&db.CallThread{}).Select("id").Where("match_id IN ?", matchIDs)
		return tx.Model(&db.CallEvent{}).
			Where("thread_id IN (?) AND state = ?", threads, db.CallScheduled).
			Updates(map[string]any{
				"state":      db.CallCanceled,
				"ended_at":   b.CreatedAt,
				"updated_at": b.CreatedAt,
			}).Error
	})
}

func (s *GormStore) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateReport(ctx context.Context, r *db.Report) error {
	r.CreatedAt = db.Timestamp(r.CreatedAt)
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) CreateFeedback(ctx context.Context, f *db.Feedback) error {
	f.CreatedAt = db.Timestamp(f.CreatedAt)
	err := s.db.WithContext(ctx).Create(f).Error
	if isDuplicate(err) {
		return svcErr.Wrap(svcErr.ErrConflict, err, "feedback already submitted for this call")
	}
	return err
}

func (s *GormStore) ListFeedback(ctx context.Context, callEventID string) ([]db.Feedback, error) {
	var feedback []db.Feedback
	err := s.db.WithContext(ctx).
		Where("call_event_id = ?", callEventID).
		Order("created_at ASC, id ASC").
		Find(&feedback).Error
	if err != nil {
		return nil, err
	}
	return feedback, nil
}
