package ldp

import (
	"io"
	"net/http"
	"time"

	"github.com/trellisldp/trellis-http/internal/header"
)

// Ext names the reserved `?ext=` query parameter values from spec.md §6.
type Ext string

const (
	ExtNone    Ext = ""
	ExtACL     Ext = "acl"
	ExtTimemap Ext = "timemap"
	ExtUpload  Ext = "upload"
)

// TriplePattern is the Linked Data Fragments filter carried by
// ?subject/?predicate/?object (spec.md §3 "LdpRequest").
type TriplePattern struct {
	Subject   string
	Predicate string
	Object    string
}

// Empty reports whether no component of the pattern was supplied.
func (p TriplePattern) Empty() bool {
	return p.Subject == "" && p.Predicate == "" && p.Object == ""
}

// Request is the input to every handler: a fully parsed view of an inbound
// HTTP request for a repository resource (spec.md §3 "LdpRequest").
type Request struct {
	Method      string
	Partition   string
	Path        string
	BaseURL     string
	Accept      []header.MediaRange
	ContentType string

	Prefer        header.Prefer
	Range         *header.ByteRange
	WantDigest    []header.DigestPreference
	Digest        *header.Digest
	IfMatch       []string
	IfNoneMatch   []string
	IfModSince    *time.Time
	IfUnmodSince  *time.Time
	AcceptDate    *time.Time
	Link          []header.LinkValue
	Slug          string
	Ext           Ext
	Version       *time.Time
	Query         TriplePattern
	Session       string
	Body          io.ReadCloser

	raw *http.Request
}

// Raw exposes the underlying *http.Request for collaborators that need
// low-level access (e.g. streaming a large PUT body); handlers themselves
// must not reach past the parsed fields above for protocol decisions.
func (r *Request) Raw() *http.Request { return r.raw }

// WithRaw attaches the originating *http.Request. Outer routing (out of
// scope for the core) is expected to call this once after parsing.
func (r *Request) WithRaw(raw *http.Request) *Request {
	r.raw = raw
	return r
}

// ExternalURL resolves the request's target resource to its external URL.
func (r *Request) ExternalURL() string {
	return ExternalURL(r.BaseURL, r.Partition, r.Path)
}

// InternalIRI resolves the request's target resource to its internal IRI.
func (r *Request) InternalIRI() string {
	return InternalIRI(r.Partition, r.Path)
}
