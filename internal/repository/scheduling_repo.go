package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

var upcomingStates = []db.CallState{db.CallScheduled, db.CallLive}

func (s *GormStore) GetThread(ctx context.Context, id string) (*db.CallThread, error) {
	return findOne[db.CallThread](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) GetThreadByMatch(ctx context.Context, matchID string) (*db.CallThread, error) {
	return findOne[db.CallThread](s.db.WithContext(ctx), "match_id = ?", matchID)
}

// activeThread loads and row-locks a thread and checks its match inside tx,
// failing when either is missing or the match is no longer active.
func activeThread(tx *gorm.DB, threadID string) (*db.CallThread, error) {
	th, err := findOne[db.CallThread](tx.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", threadID)
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, svcErr.Precondition("call thread %s does not exist", threadID)
	}
	m, err := findOne[db.Match](tx, "id = ?", th.MatchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, svcErr.Precondition("match %s does not exist", th.MatchID)
	}
	if m.State != db.MatchActive {
		return nil, svcErr.Conflict("match is %s", m.State)
	}
	return th, nil
}

func upcomingCall(tx *gorm.DB, threadID string) (*db.CallEvent, error) {
	var events []db.CallEvent
	err := tx.Where("thread_id = ? AND state IN ?", threadID, upcomingStates).
		Order("scheduled_start ASC").
		Limit(1).
		Find(&events).Error
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

func latestProposal(tx *gorm.DB, threadID string) (*db.CallProposal, error) {
	var proposals []db.CallProposal
	err := tx.Where("thread_id = ?", threadID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&proposals).Error
	if err != nil || len(proposals) == 0 {
		return nil, err
	}
	return &proposals[0], nil
}

// AddProposal persists a proposal and moves the thread to proposed.
//
// Behavior:
//   - pending and proposed threads accept new proposals (re-propose or
//     counter-propose).
//   - A confirmed thread accepts one only once its call is over, which
//     starts a new scheduling round.
func (s *GormStore) AddProposal(ctx context.Context, p *db.CallProposal) error {
	p.CreatedAt = db.Timestamp(p.CreatedAt)
	return s.transaction(ctx, func(tx *gorm.DB) error {
		th, err := activeThread(tx, p.ThreadID)
		if err != nil {
			return err
		}
		if th.SchedulingState == db.SchedulingConfirmed {
			upcoming, err := upcomingCall(tx, th.ID)
			if err != nil {
				return err
			}
			if upcoming != nil {
				return svcErr.Conflict("a call is already scheduled for this match")
			}
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Model(&db.CallThread{}).
			Where("id = ?", th.ID).
			Updates(map[string]any{
				"scheduling_state": db.SchedulingProposed,
				"last_activity_at": p.CreatedAt,
			}).Error
	})
}

func (s *GormStore) LatestProposal(ctx context.Context, threadID string) (*db.CallProposal, error) {
	return latestProposal(s.db.WithContext(ctx), threadID)
}

// ConfirmProposal turns the chosen slot of the latest proposal into a
// scheduled call.
//
// Behavior:
//   - proposalID must still be the latest proposal (Precondition otherwise).
//   - No other call may be upcoming (Conflict).
//   - The thread moves proposed → confirmed with a conditional update; a
//     racing confirmation that already flipped it gets Conflict.
func (s *GormStore) ConfirmProposal(ctx context.Context, proposalID string, e *db.CallEvent) error {
	e.CreatedAt = db.Timestamp(e.CreatedAt)
	e.UpdatedAt = e.CreatedAt
	return s.transaction(ctx, func(tx *gorm.DB) error {
		th, err := activeThread(tx, e.ThreadID)
		if err != nil {
			return err
		}
		latest, err := latestProposal(tx, th.ID)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != proposalID {
			return svcErr.Precondition("proposal is no longer current")
		}
		upcoming, err := upcomingCall(tx, th.ID)
		if err != nil {
			return err
		}
		if upcoming != nil {
			return svcErr.Conflict("a call is already scheduled for this match")
		}

		res := tx.Model(&db.CallThread{}).
			Where("id = ? AND scheduling_state = ?", th.ID, db.SchedulingProposed).
			Updates(map[string]any{
				"scheduling_state": db.SchedulingConfirmed,
				"last_activity_at": e.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return svcErr.Conflict("call thread is not awaiting confirmation")
		}
		return tx.Create(e).Error
	})
}

func (s *GormStore) UpcomingCall(ctx context.Context, threadID string) (*db.CallEvent, error) {
	return upcomingCall(s.db.WithContext(ctx), threadID)
}
