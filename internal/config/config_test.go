package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CALL_DURATION_SECONDS", "")
	t.Setenv("MATCH_AUTO_MATCH", "true")

	cfg := New()

	assert.Equal(t, ShortCallSeconds, cfg.Call.DurationSeconds)
	assert.True(t, cfg.Match.AutoMatch)
	assert.True(t, cfg.Auth.DemoLogin)
	assert.Equal(t, "gorm", cfg.Store.Backend)
}

func TestNew_ProductionOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CALL_DURATION_SECONDS", "")
	t.Setenv("MATCH_AUTO_MATCH", "yes")
	t.Setenv("AUTH_DEMO_LOGIN", "")

	cfg := New()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, LongCallSeconds, cfg.Call.DurationSeconds)
	assert.False(t, cfg.Match.AutoMatch, "auto-match must stay off in production")
	assert.False(t, cfg.Auth.DemoLogin)
}

func TestNew_ExplicitValues(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("CALL_DURATION_SECONDS", "120")
	t.Setenv("CALL_MISSED_GRACE", "2m")
	t.Setenv("SESSION_TTL", "bogus")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_DRIVER", "SQLite")

	cfg := New()

	assert.Equal(t, 120, cfg.Call.DurationSeconds)
	assert.Equal(t, 2*time.Minute, cfg.Call.MissedGrace)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
}

func TestNew_NonPositiveCallDurationFallsBack(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	for _, v := range []string{"0", "-30", "soon"} {
		t.Setenv("CALL_DURATION_SECONDS", v)
		assert.Equal(t, ShortCallSeconds, New().Call.DurationSeconds, v)
	}

	t.Setenv("APP_ENV", "production")
	t.Setenv("CALL_DURATION_SECONDS", "0")
	assert.Equal(t, LongCallSeconds, New().Call.DurationSeconds)
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		assert.False(t, isTruthy(v), v)
	}
}
