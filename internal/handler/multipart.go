package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/services"
)

// MultipartController routes the `?ext=upload` lifecycle to a Resolver
// (spec.md §4.10): initiate, upload part, list parts, complete, abort.
// Grounded on the teacher's multipart form handling in server.go's POST
// arm, generalized from an in-request multipart/form-data parse into a
// session addressed by its own sub-path so large uploads can be streamed
// part-by-part. On Complete, it persists the finished upload as an LDP
// resource through Resources, mirroring PostHandler.persistBinaryChild —
// the Resolver only ever deals in raw bytes.
type MultipartController struct {
	Binaries  services.BinaryService
	Resources services.ResourceService
	Resolver  func(partition string) (services.Resolver, bool)
}

// sessionPath splits "upload/<partition>/<session>[/<partNumber>]" into
// its components.
func sessionPath(path string) (partition, session string, partNumber int, hasPartNumber bool, ok bool) {
	const prefix = "upload/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", 0, false, false
	}
	parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
	if len(parts) < 2 {
		return "", "", 0, false, false
	}
	partition, session = parts[0], parts[1]
	if len(parts) >= 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return "", "", 0, false, false
		}
		return partition, session, n, true, true
	}
	return partition, session, 0, false, true
}

func (c *MultipartController) resolverFor(partition string) (services.Resolver, error) {
	resolver, ok := c.Resolver(partition)
	if !ok || !resolver.SupportsMultipartUpload() {
		return nil, services.New(services.MethodNotAllowed, nil)
	}
	return resolver, nil
}

// Initiate handles POST <container>?ext=upload, reserving the child
// identifier (Slug, if given, else a minted id) the completed upload will
// occupy — the same slug resolution PostHandler.Serve applies — so
// Complete has a resource to persist against.
func (c *MultipartController) Initiate(ctx context.Context, req *ldp.Request) (*ldp.Response, error) {
	resolver, err := c.resolverFor(req.Partition)
	if err != nil {
		return nil, err
	}
	slug := req.Slug
	if strings.Contains(slug, "/") {
		return nil, services.New(services.MalformedHeader, nil)
	}
	if slug == "" {
		slug = uuid.NewString()
	}
	childPath := strings.TrimSuffix(req.Path, "/") + "/" + slug
	childIRI := ldp.InternalIRI(req.Partition, childPath)

	session, err := resolver.InitiateUpload(ctx, req.Partition, childIRI, req.ContentType)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	resp := ldp.NewResponse(http.StatusCreated)
	resp.Headers.Set("Location", req.BaseURL+"upload/"+req.Partition+"/"+session)
	return resp, nil
}

// Serve dispatches a request already identified as targeting the upload
// sub-path (path begins with "upload/<partition>/<session>").
func (c *MultipartController) Serve(ctx context.Context, req *ldp.Request, agent string) (*ldp.Response, error) {
	partition, session, partNumber, hasPartNumber, ok := sessionPath(req.Path)
	if !ok {
		return nil, services.New(services.ResourceMissing, nil)
	}
	resolver, err := c.resolverFor(partition)
	if err != nil {
		return nil, err
	}
	exists, err := resolver.UploadSessionExists(ctx, partition, session)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	if !exists {
		return nil, services.New(services.ResourceMissing, nil)
	}

	switch req.Method {
	case http.MethodPut:
		if !hasPartNumber {
			return nil, services.New(services.MethodNotAllowed, nil)
		}
		digest, err := resolver.UploadPart(ctx, partition, session, partNumber, req.Body)
		if err != nil {
			return nil, services.New(services.StorageFailure, err)
		}
		body, _ := json.Marshal(map[string]string{"digest": digest})
		resp := ldp.NewResponse(http.StatusOK)
		resp.Headers.Set("Content-Type", "application/json")
		return resp.WithBody(bytes.NewReader(body)), nil

	case http.MethodGet:
		parts, err := resolver.ListParts(ctx, partition, session)
		if err != nil {
			return nil, services.New(services.StorageFailure, err)
		}
		body, _ := json.Marshal(parts)
		resp := ldp.NewResponse(http.StatusOK)
		resp.Headers.Set("Content-Type", "application/json")
		return resp.WithBody(bytes.NewReader(body)), nil

	case http.MethodPost:
		var parts map[int]string
		if err := json.NewDecoder(req.Body).Decode(&parts); err != nil {
			return nil, services.New(services.MalformedHeader, err)
		}
		internalID, childIRI, contentType, size, err := resolver.CompleteUpload(ctx, partition, session, parts)
		if err != nil {
			return nil, services.New(services.StorageFailure, err)
		}
		childExternalURL, err := c.persistUploadedResource(ctx, childIRI, internalID, contentType, size, agent)
		if err != nil {
			return nil, err
		}
		resp := ldp.NewResponse(http.StatusCreated)
		resp.Headers.Set("Location", childExternalURL)
		return resp, nil

	case http.MethodDelete:
		if err := resolver.AbortUpload(ctx, partition, session); err != nil {
			return nil, services.New(services.StorageFailure, err)
		}
		return ldp.NewResponse(http.StatusNoContent), nil
	}

	return nil, services.New(services.MethodNotAllowed, nil)
}

// persistUploadedResource registers the assembled upload as an LDP
// NonRDFSource, mirroring PostHandler.persistBinaryChild — the Resolver
// itself only deals in raw bytes, so the descriptor write happens here.
func (c *MultipartController) persistUploadedResource(ctx context.Context, childIRI, internalID, contentType string, size int64, agent string) (string, error) {
	now := time.Now()
	quads := []ldp.Quad{
		{Subject: childIRI, Predicate: dcFormat, Object: contentType, ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		{Subject: childIRI, Predicate: dcHasPart, Object: internalID, Graph: ldp.PreferServerManaged},
		{Subject: childIRI, Predicate: dcExtent, Object: strconv.FormatInt(size, 10), ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		{Subject: childIRI, Predicate: rdfType, Object: ldp.NonRDFSource.IRI(), Graph: ldp.PreferServerManaged},
	}
	quads = append(quads, BuildAuditQuads(childIRI+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", childIRI, now)...)
	if err := c.Resources.Put(ctx, childIRI, quads); err != nil {
		return "", services.New(services.StorageFailure, err)
	}
	externalURL, err := c.Resources.ToExternal(childIRI)
	if err != nil {
		return "", services.New(services.StorageFailure, err)
	}
	return externalURL, nil
}
