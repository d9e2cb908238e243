package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/linkbuilder"
	"github.com/trellisldp/trellis-http/internal/negotiate"
	"github.com/trellisldp/trellis-http/internal/precondition"
	"github.com/trellisldp/trellis-http/internal/services"
)

// rdfVariants is the negotiable RDF representation set spec.md §6 names:
// Turtle (default), N-Triples, JSON-LD (compacted/expanded), and HTML
// (produced only, but still negotiable so an explicit Accept: text/html
// is honored).
var rdfVariants = []negotiate.Variant{
	{MediaType: "text/turtle", RDFSyntax: "text/turtle"},
	{MediaType: "application/n-triples", RDFSyntax: "application/n-triples"},
	{MediaType: "application/ld+json", RDFSyntax: "application/ld+json", Profile: negotiate.ProfileCompacted},
	{MediaType: "application/ld+json", RDFSyntax: "application/ld+json", Profile: negotiate.ProfileExpanded},
	{MediaType: "text/html", RDFSyntax: "text/html"},
}

// GetHandler serves GET and HEAD, the largest single branch of the core
// protocol surface (spec.md §4.5). Grounded on the teacher's handle()
// method's GET arm in server.go, which walked the same
// binary/timemap/acl/container decision tree directly against the
// filesystem; here the branches are rewired onto ResourceService/
// BinaryService/IOService so the decision tree itself is reusable against
// any storage backend.
type GetHandler struct {
	Resources     services.ResourceService
	Binaries      services.BinaryService
	IO            services.IOService
	CacheMaxAge   int
	RDFMediaTypes []string
	SupportsUpload func(partition string) bool
}

// Serve implements the full GetHandler decision tree.
func (h *GetHandler) Serve(ctx context.Context, req *ldp.Request) (*ldp.Response, error) {
	id := req.InternalIRI()
	var resource *ldp.Resource
	var err error
	if req.Version != nil {
		resource, err = h.Resources.GetAt(ctx, id, *req.Version)
	} else {
		resource, err = h.Resources.Get(ctx, id)
	}
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	if resource == nil {
		return nil, services.New(services.ResourceMissing, nil)
	}
	if !resource.IsMemento && resource.IsGone() {
		return nil, services.New(services.ResourceGone, nil)
	}

	externalURL := req.ExternalURL()
	etag := resource.ETag(externalURL)
	lastMod := resource.LastModified()
	outcome := precondition.Evaluate(true, etag, lastMod, req.IfMatch, req.IfNoneMatch, req.IfModSince, req.IfUnmodSince)

	allowed := Allowed(resource.InteractionModel, resource.IsMemento, req.Version != nil, req.Ext)

	if outcome == precondition.PreconditionFailed {
		return nil, services.New(services.PreconditionFailed, nil)
	}
	if outcome == precondition.NotModified {
		resp := ldp.NewResponse(http.StatusNotModified)
		h.addCommonHeaders(resp, etag, allowed, resource)
		return resp, nil
	}

	switch req.Ext {
	case ldp.ExtACL:
		return h.serveACL(ctx, req, resource, allowed, etag)
	case ldp.ExtTimemap:
		return h.serveTimemap(req, resource, allowed)
	}
	if req.Version != nil {
		return h.serveMemento(req, resource, allowed, etag)
	}
	if resource.InteractionModel == ldp.NonRDFSource {
		return h.serveNonRDFSource(ctx, req, resource, allowed, etag)
	}
	return h.serveRDFSource(req, resource, allowed, etag)
}

func (h *GetHandler) addCommonHeaders(resp *ldp.Response, etag string, allowed []string, resource *ldp.Resource) {
	resp.Headers.Set("ETag", etag)
	resp.Headers.Set("Allow", joinComma(allowed))
	if p := AcceptPatch(allowed); p != "" {
		resp.Headers.Set("Accept-Patch", p)
	}
	if p := AcceptPost(allowed, h.RDFMediaTypes); p != "" {
		resp.Headers.Set("Accept-Post", p)
	}
}

func (h *GetHandler) serveACL(ctx context.Context, req *ldp.Request, resource *ldp.Resource, allowed []string, etag string) (*ldp.Response, error) {
	if !resource.HasACL {
		return nil, services.New(services.ResourceMissing, nil)
	}
	variant, err := negotiate.Negotiate(acceptOrDefault(req.Accept), rdfVariants)
	if err != nil {
		return nil, services.New(services.NoAcceptableVariant, err)
	}
	quads, err := resource.Stream(ldp.PreferAccessControl)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	var buf bytes.Buffer
	if err := h.IO.Write(quads, &buf, variant.RDFSyntax, variant.Profile); err != nil {
		return nil, services.New(services.IoFailure, err)
	}
	resp := ldp.NewResponse(http.StatusOK)
	h.addCommonHeaders(resp, etag, allowed, resource)
	resp.Headers.Set("Content-Type", variant.MediaType)
	resp.Headers.Set("Vary", "Accept-Datetime, Prefer")
	links := linkbuilder.ForResource(resource, req.ExternalURL(), linkbuilder.Options{IncludeTypeLinks: true})
	if len(links) > 0 {
		resp.Headers.Set("Link", header.FormatLinks(links))
	}
	if h.CacheMaxAge > 0 {
		resp.Headers.Set("Cache-Control", fmt.Sprintf("max-age=%d", h.CacheMaxAge))
	}
	return resp.WithBody(&buf), nil
}

func (h *GetHandler) serveTimemap(req *ldp.Request, resource *ldp.Resource, allowed []string) (*ldp.Response, error) {
	timemapVariants := []negotiate.Variant{
		{MediaType: "application/link-format"},
		{MediaType: "application/ld+json", Profile: negotiate.ProfileCompacted},
		{MediaType: "application/ld+json", Profile: negotiate.ProfileExpanded},
	}
	accept := req.Accept
	if len(accept) == 0 {
		accept = []header.MediaRange{{Type: "application", SubType: "link-format", Q: 1.0, Params: map[string]string{}}}
	}
	variant, err := negotiate.Negotiate(accept, timemapVariants)
	if err != nil {
		return nil, services.New(services.NoAcceptableVariant, err)
	}
	externalURL := req.ExternalURL()
	links := linkbuilder.ForResource(resource, externalURL, linkbuilder.Options{IncludeMementoLinks: true})
	resp := ldp.NewResponse(http.StatusOK)
	resp.Headers.Set("Allow", joinComma(allowed))
	resp.Headers.Set("Content-Type", variant.MediaType)
	if len(links) > 0 {
		resp.Headers.Set("Link", header.FormatLinks(links))
	}
	if variant.MediaType == "application/link-format" {
		parts := make([]string, len(links))
		for i, l := range links {
			parts[i] = header.FormatLink(l)
		}
		return resp.WithBody(bytesReader(joinNewline(parts))), nil
	}
	return resp.WithBody(bytesReader("[]")), nil
}

func (h *GetHandler) serveMemento(req *ldp.Request, resource *ldp.Resource, allowed []string, etag string) (*ldp.Response, error) {
	variant, err := negotiate.Negotiate(acceptOrDefault(req.Accept), rdfVariants)
	if err != nil {
		return nil, services.New(services.NoAcceptableVariant, err)
	}
	quads, err := resource.Stream(ldp.PreferUserManaged, ldp.PreferServerManaged)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	quads = applyLDF(quads, req.Query)
	var buf bytes.Buffer
	if err := h.IO.Write(quads, &buf, variant.RDFSyntax, variant.Profile); err != nil {
		return nil, services.New(services.IoFailure, err)
	}
	resp := ldp.NewResponse(http.StatusOK)
	resp.Headers.Set("ETag", etag)
	resp.Headers.Set("Allow", joinComma(allowed))
	resp.Headers.Set("Content-Type", variant.MediaType)
	resp.Headers.Set("Memento-Datetime", header.FormatRFC1123(resource.Modified))
	links := linkbuilder.ForResource(resource, req.ExternalURL(), linkbuilder.Options{IncludeTypeLinks: true, IncludeMementoLinks: true})
	if len(links) > 0 {
		resp.Headers.Set("Link", header.FormatLinks(links))
	}
	return resp.WithBody(&buf), nil
}

func (h *GetHandler) serveNonRDFSource(ctx context.Context, req *ldp.Request, resource *ldp.Resource, allowed []string, etag string) (*ldp.Response, error) {
	externalURL := req.ExternalURL()
	if len(req.Accept) > 0 {
		if variant, err := negotiate.Negotiate(req.Accept, rdfVariants); err == nil {
			quads, err := resource.Stream(ldp.PreferServerManaged)
			if err != nil {
				return nil, services.New(services.StorageFailure, err)
			}
			var buf bytes.Buffer
			if err := h.IO.Write(quads, &buf, variant.RDFSyntax, variant.Profile); err != nil {
				return nil, services.New(services.IoFailure, err)
			}
			resp := ldp.NewResponse(http.StatusOK)
			h.addCommonHeaders(resp, etag, allowed, resource)
			resp.Headers.Set("Content-Type", variant.MediaType)
			resp.Headers.Set("Vary", "Accept-Datetime, Prefer")
			links := append(linkbuilder.ForResource(resource, externalURL, linkbuilder.Options{IncludeTypeLinks: true, IncludeMementoLinks: true}),
				linkbuilder.DescriptionLinks(externalURL)...)
			resp.Headers.Set("Link", header.FormatLinks(links))
			if h.CacheMaxAge > 0 {
				resp.Headers.Set("Cache-Control", fmt.Sprintf("max-age=%d", h.CacheMaxAge))
			}
			return resp.WithBody(&buf), nil
		}
	}

	binVariant := negotiate.DefaultBinaryVariant(resource.Binary.MimeType)
	if len(req.Accept) > 0 {
		if _, err := negotiate.Negotiate(req.Accept, []negotiate.Variant{binVariant}); err != nil {
			return nil, services.New(services.NoAcceptableVariant, err)
		}
	}

	content, err := h.Binaries.GetContent(ctx, req.Partition, resource.Binary.InternalID)
	if err != nil {
		return nil, services.New(services.IoFailure, err)
	}
	var body io.Reader = content
	status := http.StatusOK
	if req.Range != nil {
		if req.Range.From >= resource.Binary.Size {
			body = bytes.NewReader(nil)
			content.Close()
		} else {
			if _, err := io.CopyN(io.Discard, content, req.Range.From); err != nil && err != io.EOF {
				content.Close()
				return nil, services.New(services.MalformedHeader, err)
			}
			body = io.LimitReader(content, req.Range.Length())
		}
	}

	resp := ldp.NewResponse(status)
	h.addCommonHeaders(resp, etag, allowed, resource)
	resp.Headers.Set("Content-Type", resource.Binary.MimeType)
	resp.Headers.Set("Last-Modified", header.FormatRFC1123(resource.Binary.Modified))
	resp.Headers.Set("Accept-Ranges", "bytes")
	resp.Headers.Set("Vary", "Accept-Datetime, Prefer, Range, Want-Digest")
	links := linkbuilder.ForResource(resource, externalURL, linkbuilder.Options{
		IncludeTypeLinks: true, IncludeMementoLinks: true,
		IncludeUploadLink: true, SupportsMultipart: h.SupportsUpload != nil && h.SupportsUpload(req.Partition),
	})
	resp.Headers.Set("Link", header.FormatLinks(links))
	if h.CacheMaxAge > 0 && status == http.StatusOK {
		resp.Headers.Set("Cache-Control", fmt.Sprintf("max-age=%d", h.CacheMaxAge))
	}

	if len(req.WantDigest) > 0 {
		algo := header.PickAlgorithm(req.WantDigest, h.Binaries.SupportedAlgorithms())
		if algo != "" {
			digestStream, err := h.Binaries.GetContent(ctx, req.Partition, resource.Binary.InternalID)
			if err != nil {
				return nil, services.New(services.IoFailure, err)
			}
			defer digestStream.Close()
			value, err := h.Binaries.Digest(ctx, algo, digestStream)
			if err != nil {
				return nil, services.New(services.StorageFailure, err)
			}
			resp.Headers.Set("Digest", header.FormatDigestHeader(algo, value))
		}
	}

	return resp.WithBody(body), nil
}

func (h *GetHandler) serveRDFSource(req *ldp.Request, resource *ldp.Resource, allowed []string, etag string) (*ldp.Response, error) {
	if req.Prefer.Return == header.ReturnMinimal {
		resp := ldp.NewResponse(http.StatusNoContent)
		h.addCommonHeaders(resp, etag, allowed, resource)
		resp.Headers.Set("Vary", "Accept-Datetime, Prefer")
		if pa := req.Prefer.PreferenceApplied(); pa != "" {
			resp.Headers.Set("Preference-Applied", pa)
		}
		links := linkbuilder.ForResource(resource, req.ExternalURL(), linkbuilder.Options{IncludeTypeLinks: true, IncludeMementoLinks: true})
		resp.Headers.Set("Link", header.FormatLinks(links))
		return resp, nil
	}

	variant, err := negotiate.Negotiate(acceptOrDefault(req.Accept), rdfVariants)
	if err != nil {
		return nil, services.New(services.NoAcceptableVariant, err)
	}
	graphs := resolveGraphs(resource, req.Prefer)
	quads, err := resource.Stream(graphs...)
	if err != nil {
		return nil, services.New(services.StorageFailure, err)
	}
	quads = applyLDF(quads, req.Query)

	var buf bytes.Buffer
	if err := h.IO.Write(quads, &buf, variant.RDFSyntax, variant.Profile); err != nil {
		return nil, services.New(services.IoFailure, err)
	}

	resp := ldp.NewResponse(http.StatusOK)
	h.addCommonHeaders(resp, etag, allowed, resource)
	resp.Headers.Set("Content-Type", variant.MediaType)
	resp.Headers.Set("Vary", "Accept-Datetime, Prefer")
	if pa := req.Prefer.PreferenceApplied(); pa != "" {
		resp.Headers.Set("Preference-Applied", pa)
	}
	links := linkbuilder.ForResource(resource, req.ExternalURL(), linkbuilder.Options{
		IncludeTypeLinks: true, IncludeMementoLinks: true,
		IncludeUploadLink: resource.InteractionModel.IsContainer(),
		SupportsMultipart: h.SupportsUpload != nil && h.SupportsUpload(req.Partition),
	})
	resp.Headers.Set("Link", header.FormatLinks(links))
	if h.CacheMaxAge > 0 {
		resp.Headers.Set("Cache-Control", fmt.Sprintf("max-age=%d", h.CacheMaxAge))
	}
	return resp.WithBody(&buf), nil
}

// resolveGraphs determines which named graphs serveRDFSource streams,
// honoring Prefer: include/omit over the default set (spec.md §4.5,
// §4.1 "Prefer"). Containers include containment/membership by default;
// a client may omit them or explicitly include PreferAudit.
func resolveGraphs(resource *ldp.Resource, prefer header.Prefer) []ldp.GraphName {
	graphs := []ldp.GraphName{ldp.PreferUserManaged, ldp.PreferServerManaged}
	if resource.InteractionModel.IsContainer() {
		graphs = append(graphs, ldp.PreferContainment, ldp.PreferMembership)
	}
	graphs = filterGraphs(graphs, prefer.Omit, false)
	graphs = filterGraphs(graphs, prefer.Include, true)
	return graphs
}

func filterGraphs(graphs []ldp.GraphName, names []string, add bool) []ldp.GraphName {
	if len(names) == 0 {
		return graphs
	}
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	if !add {
		var out []ldp.GraphName
		for _, g := range graphs {
			if !set[string(g)] {
				out = append(out, g)
			}
		}
		return out
	}
	out := graphs
	for n := range set {
		if n == string(ldp.PreferAudit) {
			out = append(out, ldp.PreferAudit)
		}
	}
	return out
}

// applyLDF filters quads by the non-empty components of a Linked Data
// Fragments triple pattern, per spec.md §3 "LdpRequest" / §4.5.
func applyLDF(quads []ldp.Quad, pattern ldp.TriplePattern) []ldp.Quad {
	if pattern.Empty() {
		return quads
	}
	var out []ldp.Quad
	for _, q := range quads {
		if pattern.Subject != "" && q.Subject != pattern.Subject {
			continue
		}
		if pattern.Predicate != "" && q.Predicate != pattern.Predicate {
			continue
		}
		if pattern.Object != "" && q.Object != pattern.Object {
			continue
		}
		out = append(out, q)
	}
	return out
}

func acceptOrDefault(accept []header.MediaRange) []header.MediaRange {
	if len(accept) == 0 {
		return []header.MediaRange{{Type: "text", SubType: "turtle", Q: 1.0, Params: map[string]string{}}}
	}
	return accept
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func joinNewline(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ",\n"
		}
		out += s
	}
	return out
}

func bytesReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
