package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	r, err := ParseRange("bytes=2-6")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.EqualValues(t, 2, r.From)
	assert.EqualValues(t, 6, r.To)
	assert.EqualValues(t, 5, r.Length())
}

func TestParseRange_OpenRejected(t *testing.T) {
	_, err := ParseRange("bytes=2-")
	require.Error(t, err)
}

func TestParseRange_SuffixRejected(t *testing.T) {
	_, err := ParseRange("bytes=-500")
	require.Error(t, err)
}

func TestParseRange_MultiRejected(t *testing.T) {
	_, err := ParseRange("bytes=0-1,2-3")
	require.Error(t, err)
}

func TestParseRange_FromGreaterThanTo(t *testing.T) {
	_, err := ParseRange("bytes=6-2")
	require.Error(t, err)
}

func TestParseRange_Empty(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRange_RoundTrip(t *testing.T) {
	r, err := ParseRange("bytes=2-6")
	require.NoError(t, err)
	r2, err := ParseRange(r.String())
	require.NoError(t, err)
	assert.Equal(t, *r, *r2)
}
