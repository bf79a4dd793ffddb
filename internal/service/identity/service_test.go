package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app/apptest"
	"github.com/oggyb/callfirst/internal/config"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/service/identity"
)

func setupService(t *testing.T, opts ...func(*config.Config)) (*identity.Service, *apptest.Env) {
	t.Helper()
	env := apptest.New(t, opts...)
	return identity.NewIdentityService(env.App), env
}

func TestSignUpAndPasswordLogin(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "Sam@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.UserID)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, apptest.Epoch.Add(30*24*time.Hour), sess.ExpiresAt)

	got, err := svc.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.SessionID, got.SessionID)

	again, err := svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Password: &api.PasswordCredential{Email: "sam@example.com", Password: "secret1"},
	})
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, again.UserID)
	assert.NotEqual(t, sess.SessionID, again.SessionID)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "secret1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.SignUp(ctx, "Sam <sam@example.com>", "secret1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.SignUp(ctx, "sam@example.com", "short")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.SignUp(ctx, "sam@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "SAM@example.com", "another1")
	assert.ErrorIs(t, err, svcErr.ErrConflict)
}

func TestWrongPasswordIsUnauthenticated(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "sam@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Password: &api.PasswordCredential{Email: "sam@example.com", Password: "wrong!!"},
	})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Password: &api.PasswordCredential{Email: "nobody@example.com", Password: "secret1"},
	})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}

func TestEstablishSessionNeedsExactlyOneCredential(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.EstablishSession(context.Background(), &api.EstablishSessionRequest{})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.EstablishSession(context.Background(), &api.EstablishSessionRequest{
		Demo:  &api.DemoCredential{UserID: "demo-alex"},
		Phone: &api.PhoneCredential{Phone: "+15551234567", Code: "123456"},
	})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

func TestPhoneLogin(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	const phone = "+15551234567"

	_, err := svc.RequestPhoneCode(ctx, "5551234567")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "missing + prefix")

	ttl, err := svc.RequestPhoneCode(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)

	code := env.Codes.Last(phone)
	require.Len(t, code, 6)
	stored, err := env.Redis.Get("otp:" + phone)
	require.NoError(t, err)
	assert.NotEqual(t, code, stored, "codes are stored hashed")

	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Phone: &api.PhoneCredential{Phone: phone, Code: "12345"},
	})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "code must be 6 digits")

	first, err := svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Phone: &api.PhoneCredential{Phone: phone, Code: code},
	})
	require.NoError(t, err)

	// the code is single use
	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Phone: &api.PhoneCredential{Phone: phone, Code: code},
	})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	// a second login reuses the identity
	_, err = svc.RequestPhoneCode(ctx, phone)
	require.NoError(t, err)
	second, err := svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Phone: &api.PhoneCredential{Phone: phone, Code: env.Codes.Last(phone)},
	})
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestWrongCodeConsumesPendingCode(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	const phone = "+447700900123"

	_, err := svc.RequestPhoneCode(ctx, phone)
	require.NoError(t, err)
	code := env.Codes.Last(phone)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Phone: &api.PhoneCredential{Phone: phone, Code: wrong},
	})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{
		Phone: &api.PhoneCredential{Phone: phone, Code: code},
	})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}

func TestDemoLogin(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	env.Profile(t, "demo-alex")

	sess, err := svc.EstablishSession(ctx, &api.EstablishSessionRequest{Demo: &api.DemoCredential{UserID: "demo-alex"}})
	require.NoError(t, err)
	assert.Equal(t, "demo-alex", sess.UserID)

	_, err = svc.EstablishSession(ctx, &api.EstablishSessionRequest{Demo: &api.DemoCredential{UserID: "demo-nobody"}})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}

func TestDemoLoginDisabled(t *testing.T) {
	svc, env := setupService(t, func(c *config.Config) { c.Auth.DemoLogin = false })
	env.Profile(t, "demo-alex")

	_, err := svc.EstablishSession(context.Background(), &api.EstablishSessionRequest{Demo: &api.DemoCredential{UserID: "demo-alex"}})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}

func TestEndSessionRevokesToken(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "sam@example.com", "secret1")
	require.NoError(t, err)

	userID, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, userID)

	require.NoError(t, svc.EndSession(ctx, sess.Token))
	require.NoError(t, svc.EndSession(ctx, sess.Token), "ending twice is fine")
	require.NoError(t, svc.EndSession(ctx, "garbage"))

	got, err := svc.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}

func TestExpiredOrForeignTokens(t *testing.T) {
	svc, env := setupService(t, func(c *config.Config) { c.Auth.SessionTTL = time.Hour })
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "sam@example.com", "secret1")
	require.NoError(t, err)

	other := identity.NewIdentityService(env.App)
	got, err := other.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.NotNil(t, got, "same secret verifies")

	env.App.Config.Auth.JWTSecret = "another-secret"
	foreign := identity.NewIdentityService(env.App)
	got, err = foreign.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "signature from another secret is rejected")

	env.Clock.Advance(2 * time.Hour)
	got, err = svc.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "expired")

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}
