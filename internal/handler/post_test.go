package handler

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/memstore"
)

func newPostHandler() (*PostHandler, *memstore.Resources) {
	resources := memstore.NewResources("http://example.org/")
	return &PostHandler{
		Resources:   resources,
		Binaries:    memstore.NewBinaries(),
		IO:          memstore.NewIO(),
		Constraints: memstore.NewConstraints(),
	}, resources
}

// TestPost_WithSlug covers spec.md §8 scenario 4: POST to a container with
// a Slug header creates a named child.
func TestPost_WithSlug(t *testing.T) {
	h, resources := newPostHandler()
	ctx := context.Background()
	containerIRI := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, containerIRI, []ldp.Quad{
		{Subject: containerIRI, Predicate: "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", Object: ldp.Container.IRI(), Graph: ldp.PreferServerManaged},
	}))

	req := &ldp.Request{Method: "POST", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		Slug: "child", ContentType: "text/turtle",
		Body: io.NopCloser(strings.NewReader(`<http://example.org/repo1/resource/child> <http://purl.org/dc/terms/title> "A title" .`))}

	resp, err := h.Serve(ctx, req, "http://example.org/agent")
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, "http://example.org/repo1/resource/child", resp.Headers.Get("Location"))
	link := resp.Headers.Get("Link")
	assert.Contains(t, link, "ldp#RDFSource")
	assert.NotContains(t, link, "ldp#Container")
}

// TestPost_RejectsNonContainer covers invariant 8: POST to a non-container
// always yields MethodNotAllowed.
func TestPost_RejectsNonContainer(t *testing.T) {
	h, resources := newPostHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, id, nil))

	req := &ldp.Request{Method: "POST", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/", ContentType: "text/turtle"}
	_, err := h.Serve(ctx, req, "http://example.org/agent")
	require.Error(t, err)
}
