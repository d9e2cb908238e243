// Package linkbuilder assembles the Link header set spec.md §4.3 requires:
// LDP type links, Memento timegate/timemap/memento/original links,
// describes/describedby/canonical, inbox, annotation-service,
// constrained-by, and multipart-upload links.
package linkbuilder

import (
	"github.com/trellisldp/trellis-http/internal/header"
	"github.com/trellisldp/trellis-http/internal/ldp"
)

const (
	RelType                  = "type"
	RelSelf                  = "self"
	RelCanonical             = "canonical"
	RelDescribes             = "describes"
	RelDescribedBy           = "describedby"
	RelInbox                 = "inbox"
	RelOriginal              = "original"
	RelTimegate              = "timegate"
	RelTimemap               = "timemap"
	RelMemento               = "memento"
	RelConstrainedBy         = "ldp:constrainedBy"
	RelAnnotationService     = "http://www.w3.org/ns/oa#annotationService"
	RelMultipartUploadService = "http://www.trellisldp.org/ns/trellis#multipartUploadService"
)

// Options controls which extra link groups ForResource emits, since
// several of spec.md §4.5's response paths suppress some of them (e.g.
// ?ext=acl omits timegate/original).
type Options struct {
	IncludeTypeLinks    bool // LDP type links; GetHandler sets it for OPTIONS as for GET
	IncludeMementoLinks bool // suppressed for ?ext=acl
	IncludeUploadLink   bool
	SupportsMultipart   bool
}

// ForResource builds the full link-value set for a resource at externalURL.
func ForResource(r *ldp.Resource, externalURL string, opts Options) []header.LinkValue {
	var out []header.LinkValue

	if opts.IncludeTypeLinks {
		for _, m := range r.InteractionModel.TypeChain() {
			out = append(out, header.LinkValue{Target: m.IRI(), Rel: RelType, Params: map[string]string{}})
		}
		for _, t := range r.Types {
			if t == ldp.DeletedResourceType {
				continue
			}
			out = append(out, header.LinkValue{Target: t, Rel: RelType, Params: map[string]string{}})
		}
	}

	if r.InteractionModel == ldp.NonRDFSource {
		out = append(out,
			header.LinkValue{Target: externalURL + "#description", Rel: RelDescribedBy, Params: map[string]string{}},
			header.LinkValue{Target: externalURL, Rel: RelCanonical, Params: map[string]string{}},
		)
	}

	if opts.IncludeMementoLinks && !r.IsMemento && len(r.Mementos) > 0 {
		out = append(out,
			header.LinkValue{Target: externalURL, Rel: RelOriginal, Params: map[string]string{}},
			header.LinkValue{Target: externalURL, Rel: RelTimegate, Params: map[string]string{}},
		)
		for _, v := range r.Mementos {
			out = append(out, header.LinkValue{
				Target: ldp.MementoVersionURL(externalURL, v.Until),
				Rel:    RelMemento,
				Params: map[string]string{"datetime": header.FormatRFC1123(v.Until)},
			})
		}
		out = append(out, TimemapLink(externalURL, r.Mementos))
	}

	if r.Inbox != "" {
		out = append(out, header.LinkValue{Target: r.Inbox, Rel: RelInbox, Params: map[string]string{}})
	}
	if r.AnnotationService != "" {
		out = append(out, header.LinkValue{Target: r.AnnotationService, Rel: RelAnnotationService, Params: map[string]string{}})
	}

	if opts.IncludeUploadLink && opts.SupportsMultipart &&
		(r.InteractionModel.IsContainer() || r.InteractionModel == ldp.NonRDFSource) {
		out = append(out, header.LinkValue{
			Target: externalURL + "?ext=upload",
			Rel:    RelMultipartUploadService,
			Params: map[string]string{},
		})
	}

	return out
}

// DescriptionLinks builds the link set for a NonRDFSource's description
// resource (the "#description" fragment), per spec.md §4.3.3.
func DescriptionLinks(bareURL string) []header.LinkValue {
	return []header.LinkValue{
		{Target: bareURL, Rel: RelDescribes, Params: map[string]string{}},
		{Target: bareURL + "#description", Rel: RelCanonical, Params: map[string]string{}},
	}
}

// TimemapLink builds the single timemap link-value with from/until
// parameters, per spec.md §3 invariant 5 / §4.3.4.
func TimemapLink(externalURL string, ranges []ldp.VersionRange) header.LinkValue {
	params := map[string]string{"type": "application/link-format"}
	if len(ranges) > 0 {
		params["from"] = header.FormatRFC1123(ranges[0].From)
		params["until"] = header.FormatRFC1123(ranges[len(ranges)-1].Until)
	}
	return header.LinkValue{Target: externalURL + "?ext=timemap", Rel: RelTimemap, Params: params}
}

// ConstrainedByLink builds the ldp:constrainedBy link for a 409/400
// response, per spec.md §4.3.6.
func ConstrainedByLink(violationIRI string) header.LinkValue {
	return header.LinkValue{Target: violationIRI, Rel: RelConstrainedBy, Params: map[string]string{}}
}
