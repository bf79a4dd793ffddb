// Package memstore is the local serialized backend. All state lives in memory
// behind one mutex and is optionally persisted to a compressed CBOR snapshot
// file after every mutation.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/repository"
)

type Store struct {
	mu    sync.Mutex
	st    *state
	path  string
	saved []byte // last bytes written to path, restored when a persist fails
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store that is never persisted.
func New() *Store {
	return &Store{st: newState()}
}

// Open loads the snapshot at path (if any) and persists every later mutation
// back to it.
func Open(path string) (*Store, error) {
	b, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	st, err := decodeState(b)
	if err != nil {
		return nil, err
	}
	return &Store{st: st, path: path, saved: b}, nil
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// write runs fn under the lock and persists the result. fn must validate
// before it mutates, so an error from fn leaves state untouched. When the
// snapshot cannot be written the previous state is restored.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.st); err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}

	b, err := encodeState(s.st)
	if err == nil {
		err = writeSnapshot(s.path, b)
	}
	if err != nil {
		prev, derr := decodeState(s.saved)
		if derr != nil {
			return derr
		}
		s.st = prev
		return err
	}
	s.saved = b
	return nil
}

func ptr[T any](v T) *T { return &v }

func cloneProfile(p db.UserProfile) *db.UserProfile {
	p.Photos = slices.Clone(p.Photos)
	p.Prompts = slices.Clone(p.Prompts)
	return &p
}

func cloneProposal(p db.CallProposal) *db.CallProposal {
	p.Slots = slices.Clone(p.Slots)
	return &p
}

// newer orders rows by (created_at, id); time-ordered ids break ties.
func newer(at time.Time, id string, thanAt time.Time, thanID string) bool {
	if c := at.Compare(thanAt); c != 0 {
		return c > 0
	}
	return id > thanID
}

//
// Profiles and credentials
//

func (s *Store) GetProfile(_ context.Context, id string) (*db.UserProfile, error) {
	var out *db.UserProfile
	err := s.read(func(st *state) error {
		if p, ok := st.Profiles[id]; ok {
			out = cloneProfile(p)
		}
		return nil
	})
	return out, err
}

func (s *Store) CreateProfile(ctx context.Context, p *db.UserProfile) error {
	p.CreatedAt = db.Timestamp(p.CreatedAt)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return s.write(ctx, func(st *state) error {
		if _, ok := st.Profiles[p.ID]; ok {
			return svcErr.Conflict("profile %s already exists", p.ID)
		}
		st.Profiles[p.ID] = *cloneProfile(*p)
		return nil
	})
}

func (s *Store) SaveProfile(ctx context.Context, p *db.UserProfile) error {
	return s.write(ctx, func(st *state) error {
		cur, ok := st.Profiles[p.ID]
		if !ok {
			return svcErr.Precondition("profile %s does not exist", p.ID)
		}
		next := *cloneProfile(*p)
		next.CreatedAt = cur.CreatedAt
		st.Profiles[p.ID] = next
		return nil
	})
}

func (s *Store) ListCandidates(_ context.Context, userID string) ([]db.UserProfile, error) {
	var out []db.UserProfile
	err := s.read(func(st *state) error {
		swiped := map[string]bool{}
		for _, sw := range st.Swipes {
			if sw.FromID == userID {
				swiped[sw.ToID] = true
			}
		}
		for id, p := range st.Profiles {
			if id == userID || swiped[id] || st.blocked(userID, id) {
				continue
			}
			out = append(out, *cloneProfile(p))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b db.UserProfile) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, err
}

func credentialKey(kind db.CredentialKind, identifier string) string {
	return string(kind) + ":" + identifier
}

func (s *Store) CreateCredential(ctx context.Context, c *db.Credential) error {
	c.CreatedAt = db.Timestamp(c.CreatedAt)
	return s.write(ctx, func(st *state) error {
		key := credentialKey(c.Kind, c.Identifier)
		if _, ok := st.Credentials[key]; ok {
			return svcErr.Conflict("%s %s is already registered", c.Kind, c.Identifier)
		}
		st.Credentials[key] = *c
		return nil
	})
}

func (s *Store) GetCredential(_ context.Context, kind db.CredentialKind, identifier string) (*db.Credential, error) {
	var out *db.Credential
	err := s.read(func(st *state) error {
		if c, ok := st.Credentials[credentialKey(kind, identifier)]; ok {
			out = ptr(c)
		}
		return nil
	})
	return out, err
}
