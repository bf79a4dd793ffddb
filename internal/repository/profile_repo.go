package repository

import (
	"context"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

func (s *GormStore) GetProfile(ctx context.Context, id string) (*db.UserProfile, error) {
	return findOne[db.UserProfile](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) CreateProfile(ctx context.Context, p *db.UserProfile) error {
	p.CreatedAt = db.Timestamp(p.CreatedAt)
	err := s.db.WithContext(ctx).Create(p).Error
	if isDuplicate(err) {
		return svcErr.Wrap(svcErr.ErrConflict, err, "profile %s already exists", p.ID)
	}
	return err
}

func (s *GormStore) SaveProfile(ctx context.Context, p *db.UserProfile) error {
	res := s.db.WithContext(ctx).
		Model(&db.UserProfile{}).
		Where("id = ?", p.ID).
		Select("name", "birthday", "gender", "sexuality", "show_me", "photos", "prompts", "bio", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.Precondition("profile %s does not exist", p.ID)
	}
	return nil
}

// ListCandidates returns discovery candidates for userID.
//
// Behavior:
//   - Excludes the user themself.
//   - Excludes anyone userID already swiped on, like or pass.
//   - Excludes anyone with a block row in either direction.
//   - Ordered by created_at ASC, id ASC (insertion order).
func (s *GormStore) ListCandidates(ctx context.Context, userID string) ([]db.UserProfile, error) {
	var profiles []db.UserProfile
	err := s.db.WithContext(ctx).
		Table("profiles p").
		Where("p.id <> ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM swipes s WHERE s.from_id = ? AND s.to_id = p.id)", userID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = p.id)
				   OR (b.blocker_id = p.id AND b.blocked_id = ?)
			)`, userID, userID).
		Order("p.created_at ASC, p.id ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *GormStore) CreateCredential(ctx context.Context, c *db.Credential) error {
	err := s.db.WithContext(ctx).Create(c).Error
	if isDuplicate(err) {
		return svcErr.Wrap(svcErr.ErrConflict, err, "%s %s is already registered", c.Kind, c.Identifier)
	}
	return err
}

func (s *GormStore) GetCredential(ctx context.Context, kind db.CredentialKind, identifier string) (*db.Credential, error) {
	return findOne[db.Credential](s.db.WithContext(ctx), "kind = ? AND identifier = ?", kind, identifier)
}
