package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/linkbuilder"
	"github.com/trellisldp/trellis-http/internal/services"
)

// Non-RDF-safe LDP type IRIs a posted Link: rel="type" may declare, per
// spec.md §4.6.
var ldpTypeIRIs = map[string]ldp.InteractionModel{
	ldp.Resource.IRI():          ldp.Resource,
	ldp.RDFSource.IRI():         ldp.RDFSource,
	ldp.NonRDFSource.IRI():      ldp.NonRDFSource,
	ldp.Container.IRI():         ldp.Container,
	ldp.BasicContainer.IRI():    ldp.BasicContainer,
	ldp.DirectContainer.IRI():   ldp.DirectContainer,
	ldp.IndirectContainer.IRI(): ldp.IndirectContainer,
}

const (
	dcFormat  = "http://purl.org/dc/terms/format"
	dcHasPart = "http://purl.org/dc/terms/hasPart"
	dcExtent  = "http://purl.org/dc/terms/extent"
	rdfType   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// PostHandler creates a child resource under a container (spec.md §4.6).
// Grounded on the teacher's handle() POST arm in server.go, which minted a
// UUID child path and dispatched on Content-Type between the RDF-parse
// path and the raw-file-write path; generalized here onto
// ResourceService/BinaryService/ConstraintService.
type PostHandler struct {
	Resources   services.ResourceService
	Binaries    services.BinaryService
	IO          services.IOService
	Constraints services.ConstraintService
	IDSupplier  func() string
}

func (h *PostHandler) Serve(ctx context.Context, req *ldp.Request, agent string) (*ldp.Response, error) {
	container, err := h.Resources.Get(ctx, req.InternalIRI())
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	if container == nil {
		return nil, services.New(services.ResourceMissing, nil)
	}
	if !container.InteractionModel.IsContainer() {
		return nil, services.New(services.MethodNotAllowed, nil)
	}

	slug := req.Slug
	if strings.Contains(slug, "/") {
		return nil, services.New(services.MalformedHeader, nil)
	}
	if slug == "" {
		slug = h.newID()
	}
	childPath := strings.TrimSuffix(req.Path, "/") + "/" + slug
	childIRI := ldp.InternalIRI(req.Partition, childPath)

	if existing, err := h.Resources.Get(ctx, childIRI); err != nil {
		return nil, services.New(services.StorageFailure, err)
	} else if existing != nil {
		return nil, services.New(services.ConstraintViolation, nil)
	}

	model := ldp.RDFSource
	var userTypes []string
	for _, lv := range req.Link {
		if lv.Rel != "type" {
			continue
		}
		if m, ok := ldpTypeIRIs[lv.Target]; ok {
			model = m
		} else {
			userTypes = append(userTypes, lv.Target)
		}
	}

	childExternalURL, err := h.Resources.ToExternal(childIRI)
	if err != nil {
		childExternalURL = req.BaseURL + "/" + childPath
	}
	now := time.Now()

	isBinary := model == ldp.NonRDFSource || (req.ContentType != "" && !isRDFContentType(req.ContentType))
	if isBinary {
		if err := h.persistBinaryChild(ctx, req, childIRI, agent, now); err != nil {
			return nil, err
		}
	} else {
		if err := h.persistRDFChild(ctx, req, childExternalURL, childIRI, model, userTypes, agent, now); err != nil {
			return nil, err
		}
	}

	resp := ldp.NewResponse(http.StatusCreated)
	resp.Headers.Set("Location", childExternalURL)
	childModel := model
	if isBinary {
		childModel = ldp.NonRDFSource
	}
	placeholder := &ldp.Resource{InteractionModel: childModel, Types: userTypes}
	resp.Headers.Set("Link", header.FormatLinks(linkbuilder.ForResource(placeholder, childExternalURL, linkbuilder.Options{IncludeTypeLinks: true})))
	return resp, nil
}

func (h *PostHandler) newID() string {
	if h.IDSupplier != nil {
		return h.IDSupplier()
	}
	return uuid.NewString()
}

func (h *PostHandler) persistBinaryChild(ctx context.Context, req *ldp.Request, childIRI, agent string, now time.Time) error {
	internalID := uuid.NewString()
	size, err := h.Binaries.SetContent(ctx, req.Partition, internalID, req.Body, req.ContentType)
	if err != nil {
		return services.New(services.StorageFailure, err)
	}
	quads := []ldp.Quad{
		{Subject: childIRI, Predicate: dcFormat, Object: req.ContentType, ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		{Subject: childIRI, Predicate: dcHasPart, Object: internalID, Graph: ldp.PreferServerManaged},
		{Subject: childIRI, Predicate: dcExtent, Object: strconv.FormatInt(size, 10), ObjectIsLiteral: true, Graph: ldp.PreferServerManaged},
		{Subject: childIRI, Predicate: rdfType, Object: ldp.NonRDFSource.IRI(), Graph: ldp.PreferServerManaged},
	}
	quads = append(quads, BuildAuditQuads(childIRI+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", childIRI, now)...)
	if err := h.Resources.Put(ctx, childIRI, quads); err != nil {
		return services.New(services.StorageFailure, err)
	}
	return nil
}

func (h *PostHandler) persistRDFChild(ctx context.Context, req *ldp.Request, externalURL, childIRI string, model ldp.InteractionModel, userTypes []string, agent string, now time.Time) error {
	quads, err := h.IO.Read(req.Body, externalURL, rdfSyntaxForContentType(req.ContentType))
	if err != nil {
		return services.New(services.MalformedHeader, err)
	}
	quads = h.Resources.Skolemize(quads, externalURL)

	if violation, err := h.Constraints.ConstrainedBy(model, externalURL, quads); err != nil {
		return services.New(services.StorageFailure, err)
	} else if violation != nil {
		return services.NewConstraintViolation(childIRI+"#constraint", nil)
	}

	quads = append(quads, ldp.Quad{Subject: childIRI, Predicate: rdfType, Object: model.IRI(), Graph: ldp.PreferServerManaged})
	for _, t := range userTypes {
		quads = append(quads, ldp.Quad{Subject: childIRI, Predicate: rdfType, Object: t, Graph: ldp.PreferUserManaged})
	}
	quads = append(quads, BuildAuditQuads(childIRI+"#activity", "http://www.w3.org/ns/prov#Activity", agent, "", childIRI, now)...)

	if err := h.Resources.Put(ctx, childIRI, quads); err != nil {
		return services.New(services.StorageFailure, err)
	}
	return nil
}

func isRDFContentType(ct string) bool {
	switch {
	case strings.HasPrefix(ct, "text/turtle"),
		strings.HasPrefix(ct, "application/n-triples"),
		strings.HasPrefix(ct, "application/ld+json"),
		strings.HasPrefix(ct, "text/html"):
		return true
	}
	return false
}

// rdfSyntaxForContentType maps a client's declared Content-Type (spec.md §6)
// to the RDF syntax key IOService.Read expects, defaulting to Turtle for an
// empty or unrecognized type.
func rdfSyntaxForContentType(ct string) string {
	switch {
	case strings.HasPrefix(ct, "application/n-triples"):
		return "application/n-triples"
	case strings.HasPrefix(ct, "application/ld+json"):
		return "application/ld+json"
	default:
		return "text/turtle"
	}
}
