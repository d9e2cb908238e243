package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/memstore"
)

func newDeleteHandler() (*DeleteHandler, *memstore.Resources) {
	resources := memstore.NewResources("http://example.org/")
	return &DeleteHandler{Resources: resources}, resources
}

// TestDelete_LeavesTombstone covers invariant 5: after DELETE, the
// resource's live snapshot is Gone (a GET against it would answer 410).
func TestDelete_LeavesTombstone(t *testing.T) {
	h, resources := newDeleteHandler()
	ctx := context.Background()
	id := ldp.InternalIRI("repo1", "resource")
	require.NoError(t, resources.Put(ctx, id, []ldp.Quad{
		{Subject: id, Predicate: "http://purl.org/dc/terms/title", Object: "A title", ObjectIsLiteral: true, Graph: ldp.PreferUserManaged},
	}))

	req := &ldp.Request{Method: "DELETE", Partition: "repo1", Path: "resource", BaseURL: "http://example.org/"}
	resp, err := h.Serve(ctx, req, "http://example.org/agent")
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Status)

	after, err := resources.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, after.IsGone())
}

// TestDelete_MissingResource covers the 404 branch.
func TestDelete_MissingResource(t *testing.T) {
	h, _ := newDeleteHandler()
	req := &ldp.Request{Method: "DELETE", Partition: "repo1", Path: "nope", BaseURL: "http://example.org/"}
	_, err := h.Serve(context.Background(), req, "http://example.org/agent")
	require.Error(t, err)
}
