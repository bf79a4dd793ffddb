package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

func (st *state) matchByPair(a, b string) (db.Match, bool) {
	a, b = db.OrderedPair(a, b)
	for _, m := range st.Matches {
		if m.UserAID == a && m.UserBID == b {
			return m, true
		}
	}
	return db.Match{}, false
}

func (s *Store) CreateMatchWithThread(ctx context.Context, m *db.Match, th *db.CallThread) (*db.Match, error) {
	m.UserAID, m.UserBID = db.OrderedPair(m.UserAID, m.UserBID)
	m.CreatedAt = db.Timestamp(m.CreatedAt)
	m.UpdatedAt = m.CreatedAt
	th.MatchID = m.ID
	th.LastActivityAt = db.Timestamp(th.LastActivityAt)

	var existing *db.Match
	err := s.write(ctx, func(st *state) error {
		if cur, ok := st.matchByPair(m.UserAID, m.UserBID); ok {
			existing = ptr(cur)
			return svcErr.Conflict("users are already matched")
		}
		st.Matches[m.ID] = *m
		st.Threads[th.ID] = *th
		return nil
	})
	if err != nil {
		return existing, err
	}
	return m, nil
}

func (s *Store) GetMatch(_ context.Context, id string) (*db.Match, error) {
	var out *db.Match
	err := s.read(func(st *state) error {
		if m, ok := st.Matches[id]; ok {
			out = ptr(m)
		}
		return nil
	})
	return out, err
}

func (s *Store) GetMatchByPair(_ context.Context, userA, userB string) (*db.Match, error) {
	var out *db.Match
	err := s.read(func(st *state) error {
		if m, ok := st.matchByPair(userA, userB); ok {
			out = ptr(m)
		}
		return nil
	})
	return out, err
}

func (s *Store) ListMatches(_ context.Context, userID string, ms db.MatchState) ([]db.Match, error) {
	var out []db.Match
	_ = s.read(func(st *state) error {
		for _, m := range st.Matches {
			if m.HasUser(userID) && m.State == ms {
				out = append(out, m)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b db.Match) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (s *Store) SetMatchState(ctx context.Context, id string, from, to db.MatchState, at time.Time) (bool, error) {
	var ok bool
	err := s.write(ctx, func(st *state) error {
		m, found := st.Matches[id]
		if !found || m.State != from {
			return nil
		}
		m.State = to
		m.UpdatedAt = db.Timestamp(at)
		st.Matches[id] = m
		ok = true
		return nil
	})
	return ok, err
}
