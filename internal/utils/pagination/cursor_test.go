package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := Encode(Cursor{FromID: "demo-alex", CreatedUnix: 1700000000123})
	require.NoError(t, err)

	c, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "demo-alex", c.FromID)
	assert.Equal(t, int64(1700000000123), c.CreatedUnix)
	assert.False(t, c.IsZero())
}

func TestDecodeEmptyIsFirstPage(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("%%%")
	assert.EqualError(t, err, "invalid pagination token")

	_, err = Decode("bm90IGpzb24=") // "not json"
	assert.EqualError(t, err, "invalid pagination token")
}
