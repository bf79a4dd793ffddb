package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

const (
	minPasswordLen = 6
	codeDigits     = 6
)

var (
	phonePattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Service authenticates users and issues sessions.
//
// A session is an HS256 JWT carrying the user id (sub) and a session id (jti).
// The session id is also recorded in Redis for the session TTL; a token is
// only valid while that record exists.
type Service struct {
	appCtx  *app.AppContext
	otpKey  [32]byte
	secret  []byte
	signing jwt.SigningMethod
}

func NewIdentityService(appCtx *app.AppContext) *Service {
	secret := []byte(appCtx.Config.Auth.JWTSecret)
	return &Service{
		appCtx:  appCtx,
		otpKey:  blake3.Sum256(append([]byte("callfirst otp v1:"), secret...)),
		secret:  secret,
		signing: jwt.SigningMethodHS256,
	}
}

// SignUp registers an email/password identity and opens a session for it.
//
// Behavior:
//   - Email must parse as a bare address, password must be at least 6 chars.
//   - Emails are matched case-insensitively.
//   - Conflict when the email is already registered.
//
// Example:
//
//	svc.SignUp(ctx, "sam@example.com", "secret1")
func (s *Service) SignUp(ctx context.Context, email, password string) (*api.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, svcErr.InvalidInput("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &db.Credential{
		ID:           db.NewID(),
		UserID:       db.NewID(),
		Kind:         db.CredentialEmail,
		Identifier:   email,
		PasswordHash: string(hash),
		CreatedAt:    s.appCtx.Now(),
	}
	if err := s.appCtx.Store.CreateCredential(ctx, cred); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("user signed up", "user_id", cred.UserID)
	return s.issue(ctx, cred.UserID)
}

// RequestPhoneCode sends a one-time login code to phone and returns how long
// it stays valid. A new request replaces any pending code.
func (s *Service) RequestPhoneCode(ctx context.Context, phone string) (time.Duration, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return 0, svcErr.InvalidInput("phone must be in E.164 format, e.g. +15551234567")
	}

	code, err := newCode()
	if err != nil {
		return 0, err
	}

	ttl := s.appCtx.Config.Auth.OTPTTL
	if err := s.appCtx.RedisCache.PutOTP(ctx, phone, s.hashCode(phone, code), ttl); err != nil {
		return 0, fmt.Errorf("failed to store otp: %w", err)
	}
	if err := s.appCtx.Codes.SendCode(ctx, phone, code); err != nil {
		return 0, fmt.Errorf("failed to send otp: %w", err)
	}
	return ttl, nil
}

// EstablishSession signs in with exactly one credential.
//
// Behavior:
//   - password: email + password checked against the bcrypt hash.
//   - phone: the pending code for phone is consumed by the attempt, right or
//     wrong. The first successful login creates the phone identity.
//   - demo: signs in as an existing profile; only when demo login is enabled.
//   - Any wrong secret is Unauthenticated with a generic message.
func (s *Service) EstablishSession(ctx context.Context, req *api.EstablishSessionRequest) (*api.Session, error) {
	n := 0
	for _, set := range []bool{req.Password != nil, req.Phone != nil, req.Demo != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, svcErr.InvalidInput("exactly one credential is required")
	}

	switch {
	case req.Password != nil:
		return s.signInWithPassword(ctx, req.Password.Email, req.Password.Password)
	case req.Phone != nil:
		return s.signInWithPhone(ctx, req.Phone.Phone, req.Phone.Code)
	default:
		return s.signInAsDemo(ctx, req.Demo.UserID)
	}
}

func (s *Service) signInWithPassword(ctx context.Context, email, password string) (*api.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	cred, err := s.appCtx.Store.GetCredential(ctx, db.CredentialEmail, email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, svcErr.Unauthenticated("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, svcErr.Unauthenticated("invalid email or password")
	}
	return s.issue(ctx, cred.UserID)
}

func (s *Service) signInWithPhone(ctx context.Context, phone, code string) (*api.Session, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return nil, svcErr.InvalidInput("phone must be in E.164 format, e.g. +15551234567")
	}
	if !codePattern.MatchString(code) {
		return nil, svcErr.InvalidInput("code must be %d digits", codeDigits)
	}

	stored, err := s.appCtx.RedisCache.TakeOTP(ctx, phone)
	if err != nil {
		return nil, err
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(s.hashCode(phone, code))) != 1 {
		return nil, svcErr.Unauthenticated("invalid or expired code")
	}

	cred, err := s.appCtx.Store.GetCredential(ctx, db.CredentialPhone, phone)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		cred = &db.Credential{
			ID:         db.NewID(),
			UserID:     db.NewID(),
			Kind:       db.CredentialPhone,
			Identifier: phone,
			CreatedAt:  s.appCtx.Now(),
		}
		if err := s.appCtx.Store.CreateCredential(ctx, cred); err != nil {
			if !errors.Is(err, svcErr.ErrConflict) {
				return nil, err
			}
			// a concurrent first login created it
			if cred, err = s.appCtx.Store.GetCredential(ctx, db.CredentialPhone, phone); err != nil || cred == nil {
				return nil, fmt.Errorf("failed to load phone credential: %w", err)
			}
		}
		s.appCtx.Logger.Info("user signed up by phone", "user_id", cred.UserID)
	}
	return s.issue(ctx, cred.UserID)
}

func (s *Service) signInAsDemo(ctx context.Context, userID string) (*api.Session, error) {
	if !s.appCtx.Config.Auth.DemoLogin {
		return nil, svcErr.Unauthenticated("demo login is disabled")
	}
	p, err := s.appCtx.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, svcErr.Unauthenticated("unknown demo user")
	}
	return s.issue(ctx, p.ID)
}

// GetSession resolves a token. It returns nil when the token is malformed,
// expired or its session was ended.
func (s *Service) GetSession(ctx context.Context, token string) (*api.Session, error) {
	claims, ok := s.parse(token)
	if !ok {
		return nil, nil
	}
	owner, err := s.appCtx.RedisCache.SessionUser(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if owner == "" || owner != claims.Subject {
		return nil, nil
	}
	return &api.Session{
		UserID:    claims.Subject,
		SessionID: claims.ID,
		Token:     token,
		CreatedAt: claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}

// Authenticate returns the user id behind token or Unauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", svcErr.Unauthenticated("sign in required")
	}
	sess, err := s.GetSession(ctx, token)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", svcErr.Unauthenticated("session is invalid or expired")
	}
	return sess.UserID, nil
}

// EndSession revokes the session behind token. Unknown, expired or already
// ended tokens are accepted.
func (s *Service) EndSession(ctx context.Context, token string) error {
	claims, ok := s.parseUnverifiedExpiry(token)
	if !ok {
		return nil
	}
	if err := s.appCtx.RedisCache.DeleteSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.appCtx.Logger.Info("session ended", "user_id", claims.Subject, "session_id", claims.ID)
	return nil
}

func (s *Service) issue(ctx context.Context, userID string) (*api.Session, error) {
	now := s.appCtx.Now().Truncate(time.Second)
	ttl := s.appCtx.Config.Auth.SessionTTL
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        db.NewID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(s.signing, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := s.appCtx.RedisCache.PutSession(ctx, claims.ID, userID, ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &api.Session{
		UserID:    userID,
		SessionID: claims.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (s *Service) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, bool) {
	if token == "" {
		return nil, false
	}
	opts = append(opts,
		jwt.WithValidMethods([]string{s.signing.Alg()}),
		jwt.WithTimeFunc(s.appCtx.Clock.Now),
		jwt.WithIssuedAt(),
	)
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, false
	}
	return claims, true
}

// parseUnverifiedExpiry checks the signature but accepts expired tokens, so
// their Redis record can still be removed.
func (s *Service) parseUnverifiedExpiry(token string) (*jwt.RegisteredClaims, bool) {
	return s.parse(token, jwt.WithoutClaimsValidation())
}

// hashCode stores codes keyed by phone so a leaked Redis value cannot be
// replayed for another number.
func (s *Service) hashCode(phone, code string) string {
	h, err := blake3.NewKeyed(s.otpKey[:])
	if err != nil {
		panic("identity: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = h.Write([]byte(phone + ":" + code))
	return hex.EncodeToString(h.Sum(nil))
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", svcErr.InvalidInput("email is not valid")
	}
	return email, nil
}
