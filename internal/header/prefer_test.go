package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefer(t *testing.T) {
	p, err := ParsePrefer(`return=minimal`)
	require.NoError(t, err)
	assert.Equal(t, ReturnMinimal, p.Return)
	assert.Equal(t, "return=minimal", p.PreferenceApplied())
}

func TestParsePrefer_IncludeOmit(t *testing.T) {
	p, err := ParsePrefer(`return=representation; include="http://www.w3.org/ns/ldp#PreferMinimalContainer"`)
	require.NoError(t, err)
	assert.Equal(t, ReturnRepresentation, p.Return)
	assert.Contains(t, p.Include, "http://www.w3.org/ns/ldp#PreferMinimalContainer")
}

func TestParsePrefer_Empty(t *testing.T) {
	p, err := ParsePrefer("")
	require.NoError(t, err)
	assert.Equal(t, ReturnUnset, p.Return)
}

func TestParsePrefer_Invalid(t *testing.T) {
	_, err := ParsePrefer("return=bogus")
	require.Error(t, err)
	var malformedErr *MalformedError
	assert.ErrorAs(t, err, &malformedErr)
}

func TestPrefer_RoundTrip(t *testing.T) {
	p, err := ParsePrefer("return=representation")
	require.NoError(t, err)
	reparsed, err := ParsePrefer(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.Return, reparsed.Return)
}
