package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDigest(t *testing.T) {
	d, err := ParseDigest("md5=abc123==")
	require.NoError(t, err)
	assert.Equal(t, "md5", d.Algorithm)
	assert.Equal(t, "abc123==", d.Value)
}

func TestParseDigest_UnsupportedAlgorithm(t *testing.T) {
	_, err := ParseDigest("crc32=abc")
	require.Error(t, err)
}

func TestParseWantDigest_PicksHighestQ(t *testing.T) {
	prefs, err := ParseWantDigest("md5;q=0.3, sha-256;q=0.9, sha;q=0.9")
	require.NoError(t, err)
	got := PickAlgorithm(prefs, SupportedDigestAlgorithms)
	// sha-256 and sha tie at q=0.9; declaration order picks sha-256 first.
	assert.Equal(t, "sha-256", got)
}

func TestPickAlgorithm_NoneSupported(t *testing.T) {
	prefs, err := ParseWantDigest("crc32;q=1.0")
	require.NoError(t, err)
	got := PickAlgorithm(prefs, SupportedDigestAlgorithms)
	assert.Equal(t, "", got)
}
