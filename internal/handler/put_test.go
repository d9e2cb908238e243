package handler

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/memstore"
)

func newPutHandler() (*PutHandler, *memstore.Resources) {
	resources := memstore.NewResources("http://example.org/")
	return &PutHandler{
		Resources:   resources,
		Binaries:    memstore.NewBinaries(),
		IO:          memstore.NewIO(),
		Constraints: memstore.NewConstraints(),
	}, resources
}

// TestPut_CreatesRDFResource covers a fresh PUT creating an RDFSource.
func TestPut_CreatesRDFResource(t *testing.T) {
	h, _ := newPutHandler()
	ctx := context.Background()

	req := &ldp.Request{Method: "PUT", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		ContentType: "text/turtle",
		Body:        io.NopCloser(strings.NewReader(`<http://example.org/repo1/resource> <http://purl.org/dc/terms/title> "A title" .`))}

	resp, err := h.Serve(ctx, req, "http://example.org/agent")
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Status)
	assert.Contains(t, resp.Headers.Get("Link"), "ldp#RDFSource")
}

// TestPut_RejectsCrossModelReplacement covers spec.md §4.7: replacing a
// Container with a NonRDFSource (crossing the RDF/non-RDF boundary) is a
// constraint violation.
func TestPut_RejectsCrossModelReplacement(t *testing.T) {
	h, resources := newPutHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, id, []ldp.Quad{
		{Subject: id, Predicate: "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", Object: ldp.BasicContainer.IRI(), Graph: ldp.PreferServerManaged},
	}))

	req := &ldp.Request{Method: "PUT", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		ContentType: "application/octet-stream",
		Body:        io.NopCloser(strings.NewReader("binary")),
		Link: []header.LinkValue{{Target: ldp.NonRDFSource.IRI(), Rel: "type"}},
	}
	_, err := h.Serve(ctx, req, "http://example.org/agent")
	require.Error(t, err)
}

// TestPut_ContentReplacePreservesACLAndType covers the review concern that a
// plain content PUT must not wipe out a previously-set ACL graph or revert
// the resource's interaction model: an initial PUT creates a BasicContainer,
// a PUT ?ext=acl attaches an authorization, then a second ordinary content
// PUT must leave both untouched.
func TestPut_ContentReplacePreservesACLAndType(t *testing.T) {
	h, resources := newPutHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")

	createReq := &ldp.Request{Method: "PUT", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		ContentType: "text/turtle",
		Body:        io.NopCloser(strings.NewReader("")),
		Link:        []header.LinkValue{{Target: ldp.BasicContainer.IRI(), Rel: "type"}},
	}
	_, err := h.Serve(ctx, createReq, "http://example.org/agent")
	require.NoError(t, err)

	aclReq := &ldp.Request{Method: "PUT", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		Ext:         ldp.ExtACL,
		ContentType: "text/turtle",
		Body: io.NopCloser(strings.NewReader(
			`<http://example.org/repo1/resource> <http://www.w3.org/ns/auth/acl#mode> <http://www.w3.org/ns/auth/acl#Read> .`))}
	_, err = h.Serve(ctx, aclReq, "http://example.org/agent")
	require.NoError(t, err)

	replaceReq := &ldp.Request{Method: "PUT", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		ContentType: "text/turtle",
		Body:        io.NopCloser(strings.NewReader(`<http://example.org/repo1/resource> <http://purl.org/dc/terms/title> "New title" .`)),
	}
	_, err = h.Serve(ctx, replaceReq, "http://example.org/agent")
	require.NoError(t, err)

	resource, err := resources.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ldp.BasicContainer, resource.InteractionModel, "interaction model must survive a content-only PUT")

	aclQuads, err := resource.Stream(ldp.PreferAccessControl)
	require.NoError(t, err)
	assert.Len(t, aclQuads, 1, "ACL graph must survive a content-only PUT")

	userQuads, err := resource.Stream(ldp.PreferUserManaged)
	require.NoError(t, err)
	var foundTitle bool
	for _, q := range userQuads {
		if q.Object == "New title" {
			foundTitle = true
		}
	}
	assert.True(t, foundTitle)
}

// TestPut_PreconditionFailed covers a stale If-Match being rejected.
func TestPut_PreconditionFailed(t *testing.T) {
	h, resources := newPutHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, id, nil))

	req := &ldp.Request{Method: "PUT", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/",
		ContentType: "text/turtle",
		Body:        io.NopCloser(strings.NewReader("")),
		IfMatch:     []string{`W/"stale"`},
	}
	_, err := h.Serve(ctx, req, "http://example.org/agent")
	require.Error(t, err)
}
