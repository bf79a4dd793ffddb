package profile

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

const (
	MinAge       = 18
	MaxAge       = 120
	MaxNameLen   = 64
	MaxBioLen    = 500
	MaxPhotos    = 3
	MaxPrompts   = 3
	MaxPromptLen = 300
)

// Service owns the dating profiles.
type Service struct {
	appCtx *app.AppContext
}

func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// GetProfile returns the profile or nil when it does not exist.
func (s *Service) GetProfile(ctx context.Context, id string) (*db.UserProfile, error) {
	return s.appCtx.Store.GetProfile(ctx, id)
}

// CreateProfile creates the actor's own profile.
//
// Behavior:
//   - The profile id is the actor's user id; a second profile is Conflict.
//   - Every field is validated, see validate.
//
// Example:
//
//	svc.CreateProfile(ctx, "u1", api.ProfileInput{Name: "Sam", Birthday: "1996-04-02", ...})
func (s *Service) CreateProfile(ctx context.Context, actor string, in api.ProfileInput) (*db.UserProfile, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}

	birthday, err := parseBirthday(in.Birthday)
	if err != nil {
		return nil, err
	}
	now := s.appCtx.Now()
	p := &db.UserProfile{
		ID:        actor,
		Name:      strings.TrimSpace(in.Name),
		Birthday:  birthday,
		Gender:    db.Gender(in.Gender),
		Sexuality: db.Sexuality(in.Sexuality),
		ShowMe:    db.ShowMe(in.ShowMe),
		Photos:    in.Photos,
		Prompts:   in.Prompts,
		Bio:       strings.TrimSpace(in.Bio),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate(p, now); err != nil {
		return nil, err
	}
	if err := s.appCtx.Store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("profile created", "user_id", actor)
	return p, nil
}

// UpdateProfile applies patch to profile id.
//
// Behavior:
//   - Only the owner may update: anyone else gets PermissionDenied.
//   - Returns nil when the profile does not exist.
//   - Photos dropped by the patch are removed from the photo store on a
//     best-effort basis; failures are logged only.
func (s *Service) UpdateProfile(ctx context.Context, actor, id string, patch api.ProfilePatch) (*db.UserProfile, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	if actor != id {
		return nil, svcErr.PermissionDenied("profiles can only be edited by their owner")
	}

	p, err := s.appCtx.Store.GetProfile(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	oldPhotos := slices.Clone(p.Photos)

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Birthday != nil {
		if p.Birthday, err = parseBirthday(*patch.Birthday); err != nil {
			return nil, err
		}
	}
	if patch.Gender != nil {
		p.Gender = db.Gender(*patch.Gender)
	}
	if patch.Sexuality != nil {
		p.Sexuality = db.Sexuality(*patch.Sexuality)
	}
	if patch.ShowMe != nil {
		p.ShowMe = db.ShowMe(*patch.ShowMe)
	}
	if patch.Photos != nil {
		p.Photos = *patch.Photos
	}
	if patch.Prompts != nil {
		p.Prompts = *patch.Prompts
	}
	if patch.Bio != nil {
		p.Bio = strings.TrimSpace(*patch.Bio)
	}

	now := s.appCtx.Now()
	if err := validate(p, now); err != nil {
		return nil, err
	}
	p.UpdatedAt = now
	if err := s.appCtx.Store.SaveProfile(ctx, p); err != nil {
		return nil, err
	}

	for _, url := range oldPhotos {
		if slices.Contains(p.Photos, url) {
			continue
		}
		if err := s.appCtx.Photos.DeletePhoto(ctx, url); err != nil {
			s.appCtx.Logger.Warn("failed to delete orphaned photo", "user_id", id, "url", url, "err", err)
		}
	}
	return p, nil
}

// ListCandidates returns everyone actor has not swiped on and has no block
// with, in insertion order.
func (s *Service) ListCandidates(ctx context.Context, actor string) ([]db.UserProfile, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	return s.appCtx.Store.ListCandidates(ctx, actor)
}

func parseBirthday(s string) (time.Time, error) {
	t, err := time.Parse(api.BirthdayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, svcErr.InvalidInput("birthday must be a date like 1990-12-31")
	}
	return t, nil
}

func validate(p *db.UserProfile, now time.Time) error {
	if n := utf8.RuneCountInString(p.Name); n == 0 || n > MaxNameLen {
		return svcErr.InvalidInput("name must be 1 to %d characters", MaxNameLen)
	}
	age := p.AgeAt(now)
	if age < MinAge {
		return svcErr.InvalidInput("must be 18+")
	}
	if age > MaxAge {
		return svcErr.InvalidInput("birthday is not plausible")
	}
	if !p.Gender.Valid() {
		return svcErr.InvalidInput("gender %q is not supported", p.Gender)
	}
	if !p.Sexuality.Valid() {
		return svcErr.InvalidInput("sexuality %q is not supported", p.Sexuality)
	}
	if !p.ShowMe.Valid() {
		return svcErr.InvalidInput("show me %q is not supported", p.ShowMe)
	}
	if len(p.Photos) > MaxPhotos {
		return svcErr.InvalidInput("at most %d photos", MaxPhotos)
	}
	for _, url := range p.Photos {
		if strings.TrimSpace(url) == "" {
			return svcErr.InvalidInput("photo url must not be empty")
		}
	}
	if len(p.Prompts) > MaxPrompts {
		return svcErr.InvalidInput("at most %d prompts", MaxPrompts)
	}
	for _, prompt := range p.Prompts {
		if n := utf8.RuneCountInString(strings.TrimSpace(prompt)); n == 0 || n > MaxPromptLen {
			return svcErr.InvalidInput("prompts must be 1 to %d characters", MaxPromptLen)
		}
	}
	if utf8.RuneCountInString(p.Bio) > MaxBioLen {
		return svcErr.InvalidInput("bio must be at most %d characters", MaxBioLen)
	}
	return nil
}
