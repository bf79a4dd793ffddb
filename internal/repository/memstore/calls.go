package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oggyb/callfirst/internal/db"
)

func (s *Store) GetCallEvent(_ context.Context, id string) (*db.CallEvent, error) {
	var out *db.CallEvent
	err := s.read(func(st *state) error {
		if e, ok := st.Events[id]; ok {
			out = ptr(e)
		}
		return nil
	})
	return out, err
}

func (s *Store) TransitionCallEvent(ctx context.Context, id string, from []db.CallState, to db.CallState, at time.Time) (bool, error) {
	at = db.Timestamp(at)
	var ok bool
	err := s.write(ctx, func(st *state) error {
		e, found := st.Events[id]
		if !found || !slices.Contains(from, e.State) {
			return nil
		}
		e.State = to
		e.UpdatedAt = at
		switch to {
		case db.CallLive:
			e.StartedAt = ptr(at)
		case db.CallCompleted, db.CallMissed, db.CallCanceled:
			e.EndedAt = ptr(at)
		}
		st.Events[id] = e
		ok = true
		return nil
	})
	return ok, err
}

func (s *Store) ListOverdueCalls(_ context.Context, cutoff time.Time) ([]db.CallEvent, error) {
	var out []db.CallEvent
	_ = s.read(func(st *state) error {
		for _, e := range st.Events {
			if e.State == db.CallScheduled && e.ScheduledStart.Before(cutoff) {
				out = append(out, e)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b db.CallEvent) int {
		return cmp.Or(a.ScheduledStart.Compare(b.ScheduledStart), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}
