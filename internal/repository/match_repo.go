package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// CreateMatchWithThread inserts a match and its pending call thread.
//
// Behavior:
//   - The pair is stored in canonical order (UserAID < UserBID).
//   - An existing match for the pair, in any state, is returned with a
//     Conflict error and nothing is written.
//   - Two racing inserts are settled by idx_match_pair: the loser reloads
//     and returns the winner's match.
func (s *GormStore) CreateMatchWithThread(ctx context.Context, m *db.Match, th *db.CallThread) (*db.Match, error) {
	m.UserAID, m.UserBID = db.OrderedPair(m.UserAID, m.UserBID)
	m.CreatedAt = db.Timestamp(m.CreatedAt)
	m.UpdatedAt = m.CreatedAt
	th.MatchID = m.ID
	th.LastActivityAt = db.Timestamp(th.LastActivityAt)

	var existing *db.Match
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		found, err := findOne[db.Match](tx, "user_a_id = ? AND user_b_id = ?", m.UserAID, m.UserBID)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return svcErr.Conflict("users are already matched")
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Create(th).Error
	})
	if isDuplicate(err) {
		existing, err = s.GetMatchByPair(ctx, m.UserAID, m.UserBID)
		if err != nil {
			return nil, err
		}
		return existing, svcErr.Conflict("users are already matched")
	}
	if err != nil {
		return existing, err
	}
	return m, nil
}

func (s *GormStore) GetMatch(ctx context.Context, id string) (*db.Match, error) {
	return findOne[db.Match](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) GetMatchByPair(ctx context.Context, userA, userB string) (*db.Match, error) {
	a, b := db.OrderedPair(userA, userB)
	return findOne[db.Match](s.db.WithContext(ctx), "user_a_id = ? AND user_b_id = ?", a, b)
}

func (s *GormStore) ListMatches(ctx context.Context, userID string, state db.MatchState) ([]db.Match, error) {
	var matches []db.Match
	err := s.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND state = ?", userID, userID, state).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *GormStore) SetMatchState(ctx context.Context, id string, from, to db.MatchState, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]any{"state": to, "updated_at": db.Timestamp(at)})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
