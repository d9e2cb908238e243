package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/precondition"
	"github.com/trellisldp/trellis-http/internal/services"
)

// DeleteHandler marks a resource as deleted and writes an audit record
// (spec.md §4.9). Grounded on the teacher's handle() DELETE arm, which
// unlinked the file directly; generalized here to a soft-delete snapshot
// since the core's Memento support requires prior versions to remain
// retrievable by version.
type DeleteHandler struct {
	Resources services.ResourceService
}

func (h *DeleteHandler) Serve(ctx context.Context, req *ldp.Request, agent string) (*ldp.Response, error) {
	if req.Version != nil || req.Ext == ldp.ExtUpload {
		return nil, services.New(services.MethodNotAllowed, nil)
	}

	id := req.InternalIRI()
	resource, err := h.Resources.Get(ctx, id)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	if resource == nil {
		return nil, services.New(services.ResourceMissing, nil)
	}

	externalURL := req.ExternalURL()
	etag := resource.ETag(externalURL)
	outcome := precondition.Evaluate(false, etag, resource.LastModified(), req.IfMatch, req.IfNoneMatch, req.IfModSince, req.IfUnmodSince)
	if outcome == precondition.PreconditionFailed {
		return nil, services.New(services.PreconditionFailed, nil)
	}

	now := time.Now()
	quads := []ldp.Quad{
		{Subject: id, Predicate: rdfType, Object: ldp.DeletedResourceType, Graph: ldp.PreferServerManaged},
		{Subject: id, Predicate: rdfType, Object: ldp.Resource.IRI(), Graph: ldp.PreferServerManaged},
	}
	quads = append(quads, BuildAuditQuads(id+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", id, now)...)

	if err := h.Resources.Put(ctx, id, quads); err != nil {
		return nil, services.New(services.StorageFailure, err)
	}

	return ldp.NewResponse(http.StatusNoContent), nil
}
