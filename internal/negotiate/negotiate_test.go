package negotiate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisldp/trellis-http/internal/header"
)

var rdfVariants = []Variant{
	{MediaType: "text/turtle", RDFSyntax: "text/turtle"},
	{MediaType: "application/n-triples", RDFSyntax: "application/n-triples"},
	{MediaType: "application/ld+json", RDFSyntax: "application/ld+json", Profile: ProfileCompacted},
	{MediaType: "application/ld+json", RDFSyntax: "application/ld+json", Profile: ProfileExpanded},
}

func TestNegotiate_Wildcard(t *testing.T) {
	accept, err := header.ParseAccept("*/*")
	require.NoError(t, err)
	v, err := Negotiate(accept, rdfVariants)
	require.NoError(t, err)
	assert.Equal(t, "text/turtle", v.MediaType)
}

func TestNegotiate_JSONLDProfileDefaultsToExpanded(t *testing.T) {
	accept, err := header.ParseAccept("application/ld+json")
	require.NoError(t, err)
	v, err := Negotiate(accept, rdfVariants)
	require.NoError(t, err)
	assert.Equal(t, ProfileExpanded, v.Profile)
}

func TestNegotiate_JSONLDProfileExplicit(t *testing.T) {
	accept, err := header.ParseAccept(`application/ld+json;profile="http://www.w3.org/ns/json-ld#compacted"`)
	require.NoError(t, err)
	v, err := Negotiate(accept, rdfVariants)
	require.NoError(t, err)
	assert.Equal(t, ProfileCompacted, v.Profile)
}

func TestNegotiate_NotAcceptable(t *testing.T) {
	accept, err := header.ParseAccept("application/xml")
	require.NoError(t, err)
	_, err = Negotiate(accept, rdfVariants)
	assert.ErrorIs(t, err, ErrNotAcceptable)
}

func TestNegotiate_QOrdering(t *testing.T) {
	accept, err := header.ParseAccept("application/n-triples;q=0.5, text/turtle;q=0.9")
	require.NoError(t, err)
	v, err := Negotiate(accept, rdfVariants)
	require.NoError(t, err)
	assert.Equal(t, "text/turtle", v.MediaType)
}
