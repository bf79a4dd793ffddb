package apptest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/app/apptest"
)

func TestFakeClockDrivesAppTime(t *testing.T) {
	env := apptest.New(t)
	assert.Equal(t, apptest.Epoch, env.App.Now())

	fired := make(chan struct{})
	env.App.Clock.AfterFunc(30*time.Second, func() { close(fired) })

	env.Clock.Advance(29 * time.Second)
	assert.Equal(t, apptest.Epoch.Add(29*time.Second), env.App.Now())
	select {
	case <-fired:
		t.Fatal("timer fired early")
	case <-time.After(20 * time.Millisecond):
	}

	env.Clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		select {
		case <-fired:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
