package handler

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/memstore"
)

func newGetHandler() (*GetHandler, *memstore.Resources, *memstore.Binaries) {
	resources := memstore.NewResources("http://example.org/")
	binaries := memstore.NewBinaries()
	return &GetHandler{
		Resources:     resources,
		Binaries:      binaries,
		IO:            memstore.NewIO(),
		CacheMaxAge:   3600,
		RDFMediaTypes: []string{"text/turtle", "application/n-triples", "application/ld+json"},
		SupportsUpload: func(string) bool {
			_, ok := binaries.ResolverForPartition("repo1")
			return ok
		},
	}, resources, binaries
}

// TestGet_Turtle covers spec.md §8 scenario 1: GET Turtle RDF.
func TestGet_Turtle(t *testing.T) {
	h, resources, _ := newGetHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, id, []ldp.Quad{
		{Subject: ldp.ExternalURL("http://example.org/", "repo1", "resource"), Predicate: "http://purl.org/dc/terms/title", Object: "A title", ObjectIsLiteral: true, Graph: ldp.PreferUserManaged},
	}))

	req := &ldp.Request{Method: "GET", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		Accept: []header.MediaRange{{Type: "text", SubType: "turtle", Q: 1}}}

	resp, err := h.Serve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/turtle", resp.Headers.Get("Content-Type"))
	assert.Contains(t, resp.Headers.Get("Allow"), "PUT")
	assert.NotContains(t, resp.Headers.Get("Allow"), "POST")
	assert.Equal(t, "application/sparql-update", resp.Headers.Get("Accept-Patch"))
	assert.Contains(t, resp.Headers.Get("Vary"), "Accept-Datetime")
	assert.Contains(t, resp.Headers.Get("Vary"), "Prefer")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "A title")
}

// TestGet_ConditionalNotModified covers scenario 2: a matching
// If-None-Match produces 304 with no body.
func TestGet_ConditionalNotModified(t *testing.T) {
	h, resources, _ := newGetHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, id, nil))

	plain := &ldp.Request{Method: "GET", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/"}
	first, err := h.Serve(ctx, plain)
	require.NoError(t, err)
	etag := first.Headers.Get("ETag")
	require.NotEmpty(t, etag)

	conditional := &ldp.Request{Method: "GET", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		IfNoneMatch: []string{etag}}
	second, err := h.Serve(ctx, conditional)
	require.NoError(t, err)
	assert.Equal(t, 304, second.Status)
	assert.Nil(t, second.Body)
}

// TestGet_BinaryRange covers scenario 3: a closed byte range over a binary.
func TestGet_BinaryRange(t *testing.T) {
	h, resources, binaries := newGetHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")

	_, err := binaries.SetContent(ctx, "repo1", "blob-1", bytes.NewReader([]byte("Some data")), "text/plain")
	require.NoError(t, err)
	require.NoError(t, resources.Put(ctx, id, []ldp.Quad{
		{Subject: id, Predicate: "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", Object: ldp.NonRDFSource.IRI(), Graph: ldp.PreferServerManaged},
		{Subject: id, Predicate: "http://purl.org/dc/terms/hasPart", Object: "blob-1", Graph: ldp.PreferServerManaged},
		{Subject: id, Predicate: "http://purl.org/dc/terms/format", Object: "text/plain", ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		{Subject: id, Predicate: "http://purl.org/dc/terms/extent", Object: "9", ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
	}))

	req := &ldp.Request{Method: "GET", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		Range: &header.ByteRange{From: 2, To: 6}}
	resp, err := h.Serve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/plain", resp.Headers.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Headers.Get("Accept-Ranges"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "me da", string(body))
}

// TestGet_MissingResource covers the 404 branch.
func TestGet_MissingResource(t *testing.T) {
	h, _, _ := newGetHandler()
	req := &ldp.Request{Method: "GET", Partition: "repo1", Path: "nope", BaseURL: "http://example.org/"}
	_, err := h.Serve(context.Background(), req)
	require.Error(t, err)
}
