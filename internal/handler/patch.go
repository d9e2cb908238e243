package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/linkbuilder"
	"github.com/trellisldp/trellis-http/internal/negotiate"
	"github.com/trellisldp/trellis-http/internal/precondition"
	"github.com/trellisldp/trellis-http/internal/services"
)

// PatchHandler applies a SPARQL-Update body and re-checks constraints
// (spec.md §4.8). Grounded on the teacher's handle() PATCH arm, which
// shelled out to a SPARQL engine against a parsed in-memory graph; here
// the update itself is delegated to IOService.Update so the handler stays
// engine-agnostic.
type PatchHandler struct {
	Resources   services.ResourceService
	IO          services.IOService
	Constraints services.ConstraintService
}

func (h *PatchHandler) Serve(ctx context.Context, req *ldp.Request, agent string) (*ldp.Response, error) {
	if req.Version != nil || req.Ext == ldp.ExtUpload {
		return nil, services.New(services.MethodNotAllowed, nil)
	}
	if !strings.HasPrefix(req.ContentType, "application/sparql-update") {
		return nil, services.New(services.UnsupportedMedia, nil)
	}

	id := req.InternalIRI()
	resource, err := h.Resources.Get(ctx, id)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	if resource == nil {
		return nil, services.New(services.ResourceMissing, nil)
	}
	if resource.IsGone() {
		return nil, services.New(services.ResourceGone, nil)
	}

	externalURL := req.ExternalURL()
	etag := resource.ETag(externalURL)
	outcome := precondition.Evaluate(false, etag, resource.LastModified(), req.IfMatch, req.IfNoneMatch, req.IfModSince, req.IfUnmodSince)
	if outcome == precondition.PreconditionFailed {
		return nil, services.New(services.PreconditionFailed, nil)
	}

	graphName := ldp.PreferUserManaged
	if req.Ext == ldp.ExtACL {
		graphName = ldp.PreferAccessControl
	}
	current, err := resource.Stream(graphName)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}

	sparqlBody := new(bytes.Buffer)
	if _, err := sparqlBody.ReadFrom(req.Body); err != nil {
		return nil, services.New(services.IoFailure, err)
	}

	updated, err := h.IO.Update(current, sparqlBody.String(), externalURL)
	if err != nil {
		return nil, services.New(services.MalformedHeader, err)
	}
	for i := range updated {
		updated[i].Graph = graphName
	}

	if violation, err := h.Constraints.ConstrainedBy(resource.InteractionModel, externalURL, updated); err != nil {
		return nil, services.New(services.StorageFailure, err)
	} else if violation != nil {
		return nil, services.NewConstraintViolation(id+"#constraint", nil)
	}

	preserved, err := graphsOtherThan(resource, graphName)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	now := time.Now()
	toPersist := append(preserved, updated...)
	toPersist = append(toPersist, BuildAuditQuads(id+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", id, now)...)
	if err := h.Resources.Put(ctx, id, toPersist); err != nil {
		return nil, services.New(services.StorageFailure, err)
	}

	if req.Prefer.Return == header.ReturnRepresentation {
		refreshed, err := h.Resources.Get(ctx, id)
		if err != nil {
			return nil, services.New(services.StorageFailure, err)
		}
		variant, err := negotiate.Negotiate(acceptOrDefault(req.Accept), rdfVariants)
		if err != nil {
			return nil, services.New(services.NoAcceptableVariant, err)
		}
		repr, err := refreshed.Stream(resolveGraphs(refreshed, req.Prefer)...)
		if err != nil {
			return nil, services.New(services.StorageFailure, err)
		}
		var buf bytes.Buffer
		if err := h.IO.Write(repr, &buf, variant.RDFSyntax, variant.Profile); err != nil {
			return nil, services.New(services.IoFailure, err)
		}
		resp := ldp.NewResponse(http.StatusOK)
		resp.Headers.Set("Content-Type", variant.MediaType)
		if pa := req.Prefer.PreferenceApplied(); pa != "" {
			resp.Headers.Set("Preference-Applied", pa)
		}
		links := linkbuilder.ForResource(refreshed, externalURL, linkbuilder.Options{IncludeTypeLinks: true})
		resp.Headers.Set("Link", header.FormatLinks(links))
		return resp.WithBody(&buf), nil
	}

	return ldp.NewResponse(http.StatusNoContent), nil
}
