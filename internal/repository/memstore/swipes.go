package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oggyb/callfirst/internal/db"
	"github.com/oggyb/callfirst/internal/utils/pagination"
)

type pair struct{ from, to string }

// latestSwipes indexes the most recent swipe of every (from, to) pair.
func (st *state) latestSwipes() map[pair]db.Swipe {
	latest := make(map[pair]db.Swipe, len(st.Swipes))
	for _, sw := range st.Swipes {
		k := pair{sw.FromID, sw.ToID}
		if cur, ok := latest[k]; !ok || newer(sw.CreatedAt, sw.ID, cur.CreatedAt, cur.ID) {
			latest[k] = sw
		}
	}
	return latest
}

func (st *state) blocked(a, b string) bool {
	for _, bl := range st.Blocks {
		if (bl.BlockerID == a && bl.BlockedID == b) || (bl.BlockerID == b && bl.BlockedID == a) {
			return true
		}
	}
	return false
}

// likers returns the swipes whose author currently likes userID, newest first.
func (st *state) likers(userID string) []db.Swipe {
	latest := st.latestSwipes()
	var out []db.Swipe
	for k, sw := range latest {
		if k.to != userID || sw.Action != db.SwipeLike {
			continue
		}
		if back, ok := latest[pair{userID, k.from}]; ok && back.Action == db.SwipePass {
			continue
		}
		if st.blocked(userID, k.from) {
			continue
		}
		out = append(out, sw)
	}
	slices.SortFunc(out, func(a, b db.Swipe) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.FromID, a.FromID))
	})
	return out
}

func (s *Store) CreateSwipe(ctx context.Context, sw *db.Swipe) error {
	sw.CreatedAt = db.Timestamp(sw.CreatedAt)
	return s.write(ctx, func(st *state) error {
		st.Swipes = append(st.Swipes, *sw)
		return nil
	})
}

func (s *Store) LatestSwipe(_ context.Context, fromID, toID string) (*db.Swipe, error) {
	var out *db.Swipe
	err := s.read(func(st *state) error {
		for _, sw := range st.Swipes {
			if sw.FromID != fromID || sw.ToID != toID {
				continue
			}
			if out == nil || newer(sw.CreatedAt, sw.ID, out.CreatedAt, out.ID) {
				out = ptr(sw)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) ListLikers(_ context.Context, userID string, token *string, limit int) ([]db.Swipe, *string, error) {
	var t string
	if token != nil {
		t = *token
	}
	cursor, err := pagination.Decode(t)
	if err != nil {
		return nil, nil, err
	}

	var all []db.Swipe
	_ = s.read(func(st *state) error {
		all = st.likers(userID)
		return nil
	})

	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		all = slices.DeleteFunc(all, func(sw db.Swipe) bool {
			c := sw.CreatedAt.Compare(ts)
			return c > 0 || (c == 0 && sw.FromID >= cursor.FromID)
		})
	}

	if len(all) <= limit {
		return all, nil, nil
	}
	last := all[limit-1]
	next, _ := pagination.Encode(pagination.Cursor{
		FromID:      last.FromID,
		CreatedUnix: last.CreatedAt.UnixMilli(),
	})
	return all[:limit], &next, nil
}

func (s *Store) CountLikers(_ context.Context, userID string) (int64, error) {
	var n int64
	err := s.read(func(st *state) error {
		n = int64(len(st.likers(userID)))
		return nil
	})
	return n, err
}
