package memstore

import (
	"context"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// activeThread returns the thread if it exists and its match is active.
func (st *state) activeThread(threadID string) (db.CallThread, error) {
	th, ok := st.Threads[threadID]
	if !ok {
		return th, svcErr.Precondition("call thread %s does not exist", threadID)
	}
	m, ok := st.Matches[th.MatchID]
	if !ok {
		return th, svcErr.Precondition("match %s does not exist", th.MatchID)
	}
	if m.State != db.MatchActive {
		return th, svcErr.Conflict("match is %s", m.State)
	}
	return th, nil
}

func (st *state) upcomingCall(threadID string) (db.CallEvent, bool) {
	var out db.CallEvent
	found := false
	for _, e := range st.Events {
		if e.ThreadID != threadID || !e.State.Upcoming() {
			continue
		}
		if !found || e.ScheduledStart.Before(out.ScheduledStart) {
			out, found = e, true
		}
	}
	return out, found
}

func (st *state) latestProposal(threadID string) (db.CallProposal, bool) {
	var out db.CallProposal
	found := false
	for _, p := range st.Proposals {
		if p.ThreadID != threadID {
			continue
		}
		if !found || newer(p.CreatedAt, p.ID, out.CreatedAt, out.ID) {
			out, found = p, true
		}
	}
	return out, found
}

func (s *Store) GetThread(_ context.Context, id string) (*db.CallThread, error) {
	var out *db.CallThread
	err := s.read(func(st *state) error {
		if th, ok := st.Threads[id]; ok {
			out = ptr(th)
		}
		return nil
	})
	return out, err
}

func (s *Store) GetThreadByMatch(_ context.Context, matchID string) (*db.CallThread, error) {
	var out *db.CallThread
	err := s.read(func(st *state) error {
		for _, th := range st.Threads {
			if th.MatchID == matchID {
				out = ptr(th)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) AddProposal(ctx context.Context, p *db.CallProposal) error {
	p.CreatedAt = db.Timestamp(p.CreatedAt)
	return s.write(ctx, func(st *state) error {
		th, err := st.activeThread(p.ThreadID)
		if err != nil {
			return err
		}
		if th.SchedulingState == db.SchedulingConfirmed {
			if _, ok := st.upcomingCall(th.ID); ok {
				return svcErr.Conflict("a call is already scheduled for this match")
			}
		}
		st.Proposals = append(st.Proposals, *cloneProposal(*p))
		th.SchedulingState = db.SchedulingProposed
		th.LastActivityAt = p.CreatedAt
		st.Threads[th.ID] = th
		return nil
	})
}

func (s *Store) LatestProposal(_ context.Context, threadID string) (*db.CallProposal, error) {
	var out *db.CallProposal
	err := s.read(func(st *state) error {
		if p, ok := st.latestProposal(threadID); ok {
			out = cloneProposal(p)
		}
		return nil
	})
	return out, err
}

func (s *Store) ConfirmProposal(ctx context.Context, proposalID string, e *db.CallEvent) error {
	e.CreatedAt = db.Timestamp(e.CreatedAt)
	e.UpdatedAt = e.CreatedAt
	return s.write(ctx, func(st *state) error {
		th, err := st.activeThread(e.ThreadID)
		if err != nil {
			return err
		}
		if latest, ok := st.latestProposal(th.ID); !ok || latest.ID != proposalID {
			return svcErr.Precondition("proposal is no longer current")
		}
		if _, ok := st.upcomingCall(th.ID); ok {
			return svcErr.Conflict("a call is already scheduled for this match")
		}
		if th.SchedulingState != db.SchedulingProposed {
			return svcErr.Conflict("call thread is not awaiting confirmation")
		}
		th.SchedulingState = db.SchedulingConfirmed
		th.LastActivityAt = e.CreatedAt
		st.Threads[th.ID] = th
		st.Events[e.ID] = *e
		return nil
	})
}

func (s *Store) UpcomingCall(_ context.Context, threadID string) (*db.CallEvent, error) {
	var out *db.CallEvent
	err := s.read(func(st *state) error {
		if e, ok := st.upcomingCall(threadID); ok {
			out = ptr(e)
		}
		return nil
	})
	return out, err
}
