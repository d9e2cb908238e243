package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/linkbuilder"
	"github.com/trellisldp/trellis-http/internal/precondition"
	"github.com/trellisldp/trellis-http/internal/services"
)

// PutHandler replaces or creates a resource at an exact path (spec.md
// §4.7). Grounded on the teacher's handle() PUT arm in server.go, which
// wrote either a file or a parsed graph straight to the filesystem after
// its own precondition check; generalized onto the same collaborator set
// as PostHandler/PatchHandler.
type PutHandler struct {
	Resources   services.ResourceService
	Binaries    services.BinaryService
	IO          services.IOService
	Constraints services.ConstraintService
}

func (h *PutHandler) Serve(ctx context.Context, req *ldp.Request, agent string) (*ldp.Response, error) {
	if req.Version != nil || req.Ext == ldp.ExtTimemap || req.Ext == ldp.ExtUpload {
		return nil, services.New(services.MethodNotAllowed, nil)
	}

	id := req.InternalIRI()
	existing, err := h.Resources.Get(ctx, id)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}

	externalURL := req.ExternalURL()
	if existing != nil {
		etag := existing.ETag(externalURL)
		outcome := precondition.Evaluate(false, etag, existing.LastModified(), req.IfMatch, req.IfNoneMatch, req.IfModSince, req.IfUnmodSince)
		if outcome == precondition.PreconditionFailed {
			return nil, services.New(services.PreconditionFailed, nil)
		}
	}

	model := ldp.RDFSource
	if existing != nil {
		model = existing.InteractionModel
	}
	var userTypes []string
	for _, lv := range req.Link {
		if lv.Rel != "type" {
			continue
		}
		if m, ok := ldpTypeIRIs[lv.Target]; ok {
			if existing != nil && !compatibleReplacement(existing.InteractionModel, m) {
				return nil, services.New(services.ConstraintViolation, nil)
			}
			model = m
		} else {
			userTypes = append(userTypes, lv.Target)
		}
	}

	now := time.Now()
	isBinary := req.Ext != ldp.ExtACL && (model == ldp.NonRDFSource || (req.ContentType != "" && !isRDFContentType(req.ContentType)))

	if req.Ext == ldp.ExtACL {
		if err := h.persistACL(ctx, req, existing, id, externalURL, agent, now); err != nil {
			return nil, err
		}
	} else if isBinary {
		if err := h.persistBinaryReplace(ctx, req, existing, id, agent, now); err != nil {
			return nil, err
		}
	} else {
		if err := h.persistRDFReplace(ctx, req, existing, externalURL, id, model, userTypes, agent, now); err != nil {
			return nil, err
		}
	}

	resp := ldp.NewResponse(http.StatusNoContent)
	resultModel := model
	if isBinary {
		resultModel = ldp.NonRDFSource
	}
	placeholder := &ldp.Resource{InteractionModel: resultModel, Types: userTypes}
	resp.Headers.Set("Link", header.FormatLinks(linkbuilder.ForResource(placeholder, externalURL, linkbuilder.Options{IncludeTypeLinks: true})))
	return resp, nil
}

// compatibleReplacement rejects an interaction-model change that would
// cross the RDF/non-RDF boundary or move between a container and a
// non-container model in either direction, per spec.md §4.7 ("replacing a Container with a
// NonRDFSource").
func compatibleReplacement(existing, requested ldp.InteractionModel) bool {
	if existing == requested {
		return true
	}
	if existing.IsContainer() != requested.IsContainer() {
		return false
	}
	if (existing == ldp.NonRDFSource) != (requested == ldp.NonRDFSource) {
		return false
	}
	return true
}

// graphsOtherThan returns existing's full quad set minus the named graphs
// (always including PreferAudit, since every mutation contributes its own
// fresh audit quads via BuildAuditQuads rather than re-persisting the prior
// snapshot's). A handler that only intends to replace one or two named
// graphs must merge this back in before calling Resources.Put, since Put
// treats each call's quads as a wholly-replacing snapshot.
func graphsOtherThan(existing *ldp.Resource, except ...ldp.GraphName) ([]ldp.Quad, error) {
	if existing == nil {
		return nil, nil
	}
	drop := map[ldp.GraphName]bool{ldp.PreferAudit: true}
	for _, g := range except {
		drop[g] = true
	}
	all, err := existing.Stream()
	if err != nil {
		return nil, err
	}
	out := make([]ldp.Quad, 0, len(all))
	for _, q := range all {
		if !drop[q.Graph] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (h *PutHandler) persistBinaryReplace(ctx context.Context, req *ldp.Request, existing *ldp.Resource, id, agent string, now time.Time) error {
	internalID := id
	size, err := h.Binaries.SetContent(ctx, req.Partition, internalID, req.Body, req.ContentType)
	if err != nil {
		return services.New(services.StorageFailure, err)
	}
	if req.Digest != nil {
		verifyStream, err := h.Binaries.GetContent(ctx, req.Partition, internalID)
		if err != nil {
			return services.New(services.IoFailure, err)
		}
		defer verifyStream.Close()
		computed, err := h.Binaries.Digest(ctx, req.Digest.Algorithm, verifyStream)
		if err != nil {
			return services.New(services.StorageFailure, err)
		}
		if computed != req.Digest.Value {
			return services.New(services.ConstraintViolation, nil)
		}
	}
	preserved, err := graphsOtherThan(existing, ldp.PreferUserManaged, ldp.PreferServerManaged)
	if err != nil {
		return services.New(services.StorageFailure, err)
	}
	quads := append(preserved, ldp.Quad{Subject: id, Predicate: dcFormat, Object: req.ContentType, ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		ldp.Quad{Subject: id, Predicate: dcHasPart, Object: internalID, Graph: ldp.PreferServerManaged},
		ldp.Quad{Subject: id, Predicate: dcExtent, Object: strconv.FormatInt(size, 10), ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		ldp.Quad{Subject: id, Predicate: rdfType, Object: ldp.NonRDFSource.IRI(), Graph: ldp.PreferServerManaged})
	quads = append(quads, BuildAuditQuads(id+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", id, now)...)
	if err := h.Resources.Put(ctx, id, quads); err != nil {
		return services.New(services.StorageFailure, err)
	}
	return nil
}

func (h *PutHandler) persistRDFReplace(ctx context.Context, req *ldp.Request, existing *ldp.Resource, externalURL, id string, model ldp.InteractionModel, userTypes []string, agent string, now time.Time) error {
	quads, err := h.IO.Read(req.Body, externalURL, rdfSyntaxForContentType(req.ContentType))
	if err != nil {
		return services.New(services.MalformedHeader, err)
	}
	quads = h.Resources.Skolemize(quads, externalURL)

	if violation, err := h.Constraints.ConstrainedBy(model, externalURL, quads); err != nil {
		return services.New(services.StorageFailure, err)
	} else if violation != nil {
		return services.NewConstraintViolation(id+"#constraint", nil)
	}

	quads = append(quads, ldp.Quad{Subject: id, Predicate: rdfType, Object: model.IRI(), Graph: ldp.PreferServerManaged})
	for _, t := range userTypes {
		quads = append(quads, ldp.Quad{Subject: id, Predicate: rdfType, Object: t, Graph: ldp.PreferUserManaged})
	}
	quads = append(quads, BuildAuditQuads(id+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", id, now)...)

	preserved, err := graphsOtherThan(existing, ldp.PreferUserManaged, ldp.PreferServerManaged)
	if err != nil {
		return services.New(services.StorageFailure, err)
	}
	toPersist := append(preserved, quads...)
	if err := h.Resources.Put(ctx, id, toPersist); err != nil {
		return services.New(services.StorageFailure, err)
	}
	return nil
}

func (h *PutHandler) persistACL(ctx context.Context, req *ldp.Request, existing *ldp.Resource, id, externalURL, agent string, now time.Time) error {
	quads, err := h.IO.Read(req.Body, externalURL, rdfSyntaxForContentType(req.ContentType))
	if err != nil {
		return services.New(services.MalformedHeader, err)
	}
	for i := range quads {
		quads[i].Graph = ldp.PreferAccessControl
	}
	quads = append(quads, BuildAuditQuads(id+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", id, now)...)

	preserved, err := graphsOtherThan(existing, ldp.PreferAccessControl)
	if err != nil {
		return services.New(services.StorageFailure, err)
	}
	toPersist := append(preserved, quads...)
	if err := h.Resources.Put(ctx, id, toPersist); err != nil {
		return services.New(services.StorageFailure, err)
	}
	return nil
}
