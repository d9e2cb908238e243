package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/memstore"
)

func newMultipartController() (*MultipartController, *memstore.Binaries, *memstore.Resources) {
	binaries := memstore.NewBinaries()
	resources := memstore.NewResources("http://example.org/")
	return &MultipartController{
		Binaries:  binaries,
		Resources: resources,
		Resolver:  binaries.ResolverForPartition,
	}, binaries, resources
}

const testAgent = "http://example.org/agent"

// TestMultipart_FullLifecycle covers spec.md §4.10: initiate, upload two
// parts, list them, complete, and confirm the assembled blob.
func TestMultipart_FullLifecycle(t *testing.T) {
	c, binaries, resources := newMultipartController()
	ctx := context.Background()

	initiateReq := &ldp.Request{Method: http.MethodPost, Partition: "repo1", Path: "resource", Slug: "child", BaseURL: "http://example.org/", ContentType: "application/octet-stream"}
	initiateResp, err := c.Initiate(ctx, initiateReq)
	require.NoError(t, err)
	assert.Equal(t, 201, initiateResp.Status)
	location := initiateResp.Headers.Get("Location")
	require.NotEmpty(t, location)
	session := strings.TrimPrefix(location, "http://example.org/upload/repo1/")

	part1 := &ldp.Request{Method: http.MethodPut, Partition: "repo1", Path: "upload/repo1/" + session + "/1",
		BaseURL: "http://example.org/", Body: io.NopCloser(strings.NewReader("hello "))}
	resp1, err := c.Serve(ctx, part1, testAgent)
	require.NoError(t, err)
	assert.Equal(t, 200, resp1.Status)
	var digest1 map[string]string
	require.NoError(t, json.NewDecoder(resp1.Body).Decode(&digest1))
	require.NotEmpty(t, digest1["digest"])

	part2 := &ldp.Request{Method: http.MethodPut, Partition: "repo1", Path: "upload/repo1/" + session + "/2",
		BaseURL: "http://example.org/", Body: io.NopCloser(strings.NewReader("world"))}
	resp2, err := c.Serve(ctx, part2, testAgent)
	require.NoError(t, err)
	var digest2 map[string]string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&digest2))

	listReq := &ldp.Request{Method: http.MethodGet, Partition: "repo1", Path: "upload/repo1/" + session, BaseURL: "http://example.org/"}
	listResp, err := c.Serve(ctx, listReq, testAgent)
	require.NoError(t, err)
	var parts []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&parts))
	assert.Len(t, parts, 2)

	completeBody, err := json.Marshal(map[string]string{"1": digest1["digest"], "2": digest2["digest"]})
	require.NoError(t, err)
	completeReq := &ldp.Request{Method: http.MethodPost, Partition: "repo1", Path: "upload/repo1/" + session,
		BaseURL: "http://example.org/", Body: io.NopCloser(bytes.NewReader(completeBody))}
	completeResp, err := c.Serve(ctx, completeReq, testAgent)
	require.NoError(t, err)
	assert.Equal(t, 201, completeResp.Status)
	finalLocation := completeResp.Headers.Get("Location")
	assert.Equal(t, "http://example.org/repo1/resource/child", finalLocation)

	childInternalIRI, err := resources.ToInternal(finalLocation)
	require.NoError(t, err)
	persisted, err := resources.Get(ctx, childInternalIRI)
	require.NoError(t, err)
	require.NotNil(t, persisted, "completed upload must be retrievable as an LDP resource")
	assert.Equal(t, ldp.NonRDFSource, persisted.InteractionModel)

	quads, err := persisted.Stream(ldp.PreferServerManaged)
	require.NoError(t, err)
	var internalID string
	for _, q := range quads {
		if q.Predicate == dcHasPart {
			internalID = q.Object
		}
	}
	require.NotEmpty(t, internalID)

	content, err := binaries.GetContent(ctx, "repo1", internalID)
	require.NoError(t, err)
	data := new(bytes.Buffer)
	_, err = data.ReadFrom(content)
	require.NoError(t, err)
	assert.Equal(t, "hello world", data.String())
}

// TestMultipart_AbortRemovesSession covers the abort lifecycle step: after
// DELETE, the session no longer exists and a further request 404s.
func TestMultipart_AbortRemovesSession(t *testing.T) {
	c, _, _ := newMultipartController()
	ctx := context.Background()

	initiateResp, err := c.Initiate(ctx, &ldp.Request{Method: http.MethodPost, Partition: "repo1", Path: "resource", BaseURL: "http://example.org/"})
	require.NoError(t, err)
	session := strings.TrimPrefix(initiateResp.Headers.Get("Location"), "http://example.org/upload/repo1/")

	abortReq := &ldp.Request{Method: http.MethodDelete, Partition: "repo1", Path: "upload/repo1/" + session, BaseURL: "http://example.org/"}
	abortResp, err := c.Serve(ctx, abortReq, testAgent)
	require.NoError(t, err)
	assert.Equal(t, 204, abortResp.Status)

	_, err = c.Serve(ctx, &ldp.Request{Method: http.MethodGet, Partition: "repo1", Path: "upload/repo1/" + session, BaseURL: "http://example.org/"}, testAgent)
	require.Error(t, err)
}
