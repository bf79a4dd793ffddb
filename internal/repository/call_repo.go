package repository

import (
	"context"
	"time"

	"github.com/oggyb/callfirst/internal/db"
)

func (s *GormStore) GetCallEvent(ctx context.Context, id string) (*db.CallEvent, error) {
	return findOne[db.CallEvent](s.db.WithContext(ctx), "id = ?", id)
}

// TransitionCallEvent is a compare-and-set on call_events.state. Entering live
// stamps started_at; entering a final state stamps ended_at.
func (s *GormStore) TransitionCallEvent(
	ctx context.Context,
	id string,
	from []db.CallState,
	to db.CallState,
	at time.Time,
) (bool, error) {
	at = db.Timestamp(at)
	updates := map[string]any{"state": to, "updated_at": at}
	switch to {
	case db.CallLive:
		updates["started_at"] = at
	case db.CallCompleted, db.CallMissed, db.CallCanceled:
		updates["ended_at"] = at
	}

	res := s.db.WithContext(ctx).
		Model(&db.CallEvent{}).
		Where("id = ? AND state IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ListOverdueCalls(ctx context.Context, cutoff time.Time) ([]db.CallEvent, error) {
	var events []db.CallEvent
	err := s.db.WithContext(ctx).
		Where("state = ? AND scheduled_start < ?", db.CallScheduled, db.Timestamp(cutoff)).
		Order("scheduled_start ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
