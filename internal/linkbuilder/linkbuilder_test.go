package linkbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
)

func TestForResource_TypeChainIncludesResource(t *testing.T) {
	r := &ldp.Resource{InteractionModel: ldp.BasicContainer}
	links := ForResource(r, "http://example.org/repo1/resource", Options{IncludeTypeLinks: true})
	found := false
	for _, l := range links {
		if l.Rel == RelType && l.Target == ldp.Resource.IRI() {
			found = true
		}
	}
	assert.True(t, found, "type chain must always include LDP.Resource (spec.md §8 invariant 7)")
}

func TestForResource_MementoLinksExactlyOneEach(t *testing.T) {
	r := &ldp.Resource{
		InteractionModel: ldp.RDFSource,
		Mementos: []ldp.VersionRange{
			{From: time.Unix(0, 0), Until: time.Unix(100, 0)},
			{From: time.Unix(100, 0), Until: time.Unix(200, 0)},
			{From: time.Unix(200, 0), Until: time.Unix(300, 0)},
		},
	}
	links := ForResource(r, "http://example.org/repo1/resource", Options{IncludeMementoLinks: true})
	counts := map[string]int{}
	for _, l := range links {
		counts[l.Rel]++
	}
	assert.Equal(t, 1, counts[RelOriginal])
	assert.Equal(t, 1, counts[RelTimegate])
	assert.Equal(t, 1, counts[RelTimemap])
	assert.Equal(t, 3, counts[RelMemento])
}

func TestForResource_BinaryDescribedBy(t *testing.T) {
	r := &ldp.Resource{InteractionModel: ldp.NonRDFSource, Binary: &ldp.Binary{}}
	links := ForResource(r, "http://example.org/repo1/image", Options{})
	assert.Equal(t, "http://example.org/repo1/image#description", header.MatchRel(links, RelDescribedBy))
	assert.Equal(t, "http://example.org/repo1/image", header.MatchRel(links, RelCanonical))
}

func TestForResource_UploadLinkOnlyForContainerOrNonRDF(t *testing.T) {
	c := &ldp.Resource{InteractionModel: ldp.BasicContainer}
	links := ForResource(c, "http://example.org/repo1/c/", Options{IncludeUploadLink: true, SupportsMultipart: true})
	assert.NotEqual(t, "", header.MatchRel(links, RelMultipartUploadService))

	rdf := &ldp.Resource{InteractionModel: ldp.RDFSource}
	links = ForResource(rdf, "http://example.org/repo1/r", Options{IncludeUploadLink: true, SupportsMultipart: true})
	assert.Equal(t, "", header.MatchRel(links, RelMultipartUploadService))
}
