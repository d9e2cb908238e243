package ldp

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// InteractionModel is the LDP interaction model of a resource. Containers
// are sub-kinds of RDFSource, which is itself a sub-kind of Resource; see
// TypeChain.
type InteractionModel int

const (
	Resource InteractionModel = iota
	RDFSource
	NonRDFSource
	Container
	BasicContainer
	DirectContainer
	IndirectContainer
)

// LDP namespace IRIs for each interaction model, used on Link: rel="type"
// headers.
var modelIRI = map[InteractionModel]string{
	Resource:        "http://www.w3.org/ns/ldp#Resource",
	RDFSource:       "http://www.w3.org/ns/ldp#RDFSource",
	NonRDFSource:    "http://www.w3.org/ns/ldp#NonRDFSource",
	Container:       "http://www.w3.org/ns/ldp#Container",
	BasicContainer:  "http://www.w3.org/ns/ldp#BasicContainer",
	DirectContainer: "http://www.w3.org/ns/ldp#DirectContainer",
	IndirectContainer: "http://www.w3.org/ns/ldp#IndirectContainer",
}

func (m InteractionModel) IRI() string { return modelIRI[m] }

func (m InteractionModel) String() string { return modelIRI[m] }

// IsContainer reports whether m is any of the container sub-kinds.
func (m InteractionModel) IsContainer() bool {
	switch m {
	case Container, BasicContainer, DirectContainer, IndirectContainer:
		return true
	}
	return false
}

// TypeChain returns the ancestor chain of LDP type links that must be
// emitted for a resource with this interaction model, per spec.md §4.3.1:
// Resource -> RDFSource -> Container (as applicable), or Resource ->
// NonRDFSource for binaries.
func (m InteractionModel) TypeChain() []InteractionModel {
	switch m {
	case NonRDFSource:
		return []InteractionModel{Resource, NonRDFSource}
	case RDFSource:
		return []InteractionModel{Resource, RDFSource}
	case Container:
		return []InteractionModel{Resource, RDFSource, Container}
	case BasicContainer:
		return []InteractionModel{Resource, RDFSource, Container, BasicContainer}
	case DirectContainer:
		return []InteractionModel{Resource, RDFSource, Container, DirectContainer}
	case IndirectContainer:
		return []InteractionModel{Resource, RDFSource, Container, IndirectContainer}
	default:
		return []InteractionModel{Resource}
	}
}

// GraphName identifies one of the named graphs a Resource's quad stream may
// be filtered to.
type GraphName string

const (
	PreferUserManaged   GraphName = "http://www.w3.org/ns/ldp#PreferUserManaged"
	PreferServerManaged GraphName = "http://www.w3.org/ns/ldp#PreferServerManaged"
	PreferAccessControl GraphName = "http://www.w3.org/ns/auth/acl#PreferAccessControl"
	PreferAudit         GraphName = "http://www.trellisldp.org/ns/trellis#PreferAudit"
	PreferContainment   GraphName = "http://www.w3.org/ns/ldp#PreferContainment"
	PreferMembership    GraphName = "http://www.w3.org/ns/ldp#PreferMembership"
)

// Quad is a single RDF statement in one of the named graphs above.
type Quad struct {
	Subject   string
	Predicate string
	Object    string
	// ObjectIsLiteral distinguishes a plain string literal object from an
	// IRI reference, which is all downstream consumers (the Negotiator's
	// RDF writer) need to know without pulling in a full term model.
	ObjectIsLiteral bool
	Graph           GraphName
}

// Binary describes a non-RDF resource's opaque byte content. Present iff
// the owning Resource's InteractionModel is NonRDFSource (spec.md §3
// invariant 1).
type Binary struct {
	InternalID string
	Modified   time.Time
	MimeType   string
	Size       int64
}

// VersionRange describes one historical memento's coverage window.
// Consecutive ranges abut: range[i].Until == range[i+1].From.
type VersionRange struct {
	From  time.Time
	Until time.Time
}

// DeletedResourceType is the type IRI marking a soft-deleted resource.
const DeletedResourceType = "http://www.trellisldp.org/ns/trellis#DeletedResource"

// QuadStream is a lazy, finite, restartable sequence of quads. Call Stream
// each time a fresh pass is needed (e.g. one pass to compute a digest, a
// second to serialize the response body) — implementations MUST support
// being called more than once.
type QuadStream func(graphs ...GraphName) ([]Quad, error)

// Resource is an immutable snapshot of a repository resource as observed by
// the core protocol layer. See spec.md §3.
type Resource struct {
	Identifier        string
	InteractionModel  InteractionModel
	Modified          time.Time
	Binary            *Binary
	IsMemento         bool
	Mementos          []VersionRange
	Inbox             string
	AnnotationService string
	Types             []string
	HasACL            bool
	Stream            QuadStream
}

// HasType reports whether t is present in the resource's extra type
// assertions (spec.md §3 "types").
func (r *Resource) HasType(t string) bool {
	for _, got := range r.Types {
		if got == t {
			return true
		}
	}
	return false
}

// IsDeleted reports whether the resource carries the DeletedResource marker.
func (r *Resource) IsDeleted() bool { return r.HasType(DeletedResourceType) }

// IsGone implements spec.md §3 invariant 4 / §9's resolved ambiguity: a
// live resource (not already a memento) is Gone only when the marker is
// present AND the interaction model is exactly LDP.Resource. Any other
// interaction model treats the marker as ordinary user data.
func (r *Resource) IsGone() bool {
	return r.IsDeleted() && r.InteractionModel == Resource
}

// ETag computes the weak entity tag for r per spec.md §3 invariant 3:
// md5(modified || externalURL) for RDF resources, md5(binary.modified ||
// binary.size || externalURL) for binaries. Equal inputs yield equal
// ETags; externalURL must already be fully resolved by the caller.
func (r *Resource) ETag(externalURL string) string {
	h := md5.New()
	if r.InteractionModel == NonRDFSource && r.Binary != nil {
		fmt.Fprintf(h, "%d", r.Binary.Modified.Unix())
		fmt.Fprintf(h, "%d", r.Binary.Size)
	} else {
		fmt.Fprintf(h, "%d", r.Modified.Unix())
	}
	h.Write([]byte(externalURL))
	return `W/"` + hex.EncodeToString(h.Sum(nil)) + `"`
}

// LastModified returns the instant used for If-Modified-Since/
// If-Unmodified-Since comparisons: the binary's own modified time for
// NonRDFSource resources, otherwise the resource's modified time.
func (r *Resource) LastModified() time.Time {
	if r.InteractionModel == NonRDFSource && r.Binary != nil {
		return r.Binary.Modified
	}
	return r.Modified
}

// MementoVersionURL produces the load-bearing `<bareURL>?version=<epochMillis>`
// form uniformly, per spec.md §9 "Memento version IRIs" — never assemble
// this ad hoc at other call sites.
func MementoVersionURL(bareURL string, at time.Time) string {
	return fmt.Sprintf("%s?version=%d", bareURL, at.UnixMilli())
}

// ParseMementoVersion parses the `?version=<epochMillis>` query value back
// into an instant, the inverse of MementoVersionURL.
func ParseMementoVersion(value string) (time.Time, error) {
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("ldp: invalid version %q: %w", value, err)
	}
	return time.UnixMilli(millis).UTC(), nil
}
