package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

func (s *Store) CreateBlock(ctx context.Context, b *db.Block) error {
	b.CreatedAt = db.Timestamp(b.CreatedAt)
	return s.write(ctx, func(st *state) error {
		exists := slices.ContainsFunc(st.Blocks, func(cur db.Block) bool {
			return cur.BlockerID == b.BlockerID && cur.BlockedID == b.BlockedID
		})
		if !exists {
			st.Blocks = append(st.Blocks, *b)
		}

		m, ok := st.matchByPair(b.BlockerID, b.BlockedID)
		if !ok {
			return nil
		}
		m.State = db.MatchBlocked
		m.UpdatedAt = b.CreatedAt
		st.Matches[m.ID] = m

		for id, e := range st.Events {
			th, ok := st.Threads[e.ThreadID]
			if !ok || th.MatchID != m.ID || e.State != db.CallScheduled {
				continue
			}
			e.State = db.CallCanceled
			e.EndedAt = ptr(b.CreatedAt)
			e.UpdatedAt = b.CreatedAt
			st.Events[id] = e
		}
		return nil
	})
}

func (s *Store) IsBlocked(_ context.Context, a, b string) (bool, error) {
	var out bool
	err := s.read(func(st *state) error {
		out = st.blocked(a, b)
		return nil
	})
	return out, err
}

func (s *Store) CreateReport(ctx context.Context, r *db.Report) error {
	r.CreatedAt = db.Timestamp(r.CreatedAt)
	return s.write(ctx, func(st *state) error {
		st.Reports = append(st.Reports, *r)
		return nil
	})
}

func (s *Store) CreateFeedback(ctx context.Context, f *db.Feedback) error {
	f.CreatedAt = db.Timestamp(f.CreatedAt)
	return s.write(ctx, func(st *state) error {
		dup := slices.ContainsFunc(st.Feedback, func(cur db.Feedback) bool {
			return cur.CallEventID == f.CallEventID && cur.UserID == f.UserID
		})
		if dup {
			return svcErr.Conflict("feedback already submitted for this call")
		}
		st.Feedback = append(st.Feedback, *f)
		return nil
	})
}

func (s *Store) ListFeedback(_ context.Context, callEventID string) ([]db.Feedback, error) {
	var out []db.Feedback
	err := s.read(func(st *state) error {
		for _, f := range st.Feedback {
			if f.CallEventID == callEventID {
				out = append(out, f)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b db.Feedback) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, err
}
