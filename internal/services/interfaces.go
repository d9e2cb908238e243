package services

import (
	"context"
	"io"
	"time"

	"github.com/trellisldp/trellis-http/internal/ldp"
)

// ResourceService owns persisted resource state exclusively; handlers hold
// only transient references during a single request (spec.md §3
// "Ownership").
type ResourceService interface {
	Get(ctx context.Context, id string) (*ldp.Resource, error)
	GetAt(ctx context.Context, id string, at time.Time) (*ldp.Resource, error)
	Put(ctx context.Context, id string, quads []ldp.Quad) error
	IdentifierSupplier() func() string
	ToInternal(externalURL string) (string, error)
	ToExternal(internalIRI string) (string, error)
	Skolemize(quads []ldp.Quad, baseURL string) []ldp.Quad
	Unskolemize(quads []ldp.Quad, baseURL string) []ldp.Quad
}

// BinaryService owns blob content exclusively; handlers borrow a readable
// byte stream with scoped acquisition guaranteeing release on every exit
// (spec.md §3 "Ownership", §5 "Shared resources").
type BinaryService interface {
	GetContent(ctx context.Context, partition, id string) (io.ReadCloser, error)
	SetContent(ctx context.Context, partition, id string, r io.Reader, mimeType string) (int64, error)
	Digest(ctx context.Context, algorithm string, r io.Reader) (string, error)
	SupportedAlgorithms() map[string]bool
	ResolverForPartition(partition string) (Resolver, bool)
	IdentifierSupplier(partition string) func() string
}

// Resolver drives the `?ext=upload` multipart-upload lifecycle (spec.md
// §4.10) for a BinaryService that supports it. InitiateUpload records the
// internal IRI of the resource the finished upload will become (passed as
// container) and its declared content type; CompleteUpload hands both back alongside the assembled
// blob's internal id and size so the caller can persist the finished
// resource's descriptor, mirroring an ordinary binary POST/PUT.
type Resolver interface {
	SupportsMultipartUpload() bool
	InitiateUpload(ctx context.Context, partition, container, contentType string) (session string, err error)
	UploadPart(ctx context.Context, partition, session string, partNumber int, r io.Reader) (digest string, err error)
	ListParts(ctx context.Context, partition, session string) ([]Part, error)
	UploadSessionExists(ctx context.Context, partition, session string) (bool, error)
	CompleteUpload(ctx context.Context, partition, session string, parts map[int]string) (internalID, container, contentType string, size int64, err error)
	AbortUpload(ctx context.Context, partition, session string) error
}

// Part is one uploaded multipart-upload part.
type Part struct {
	PartNumber int
	Digest     string
}

// IOService reads/writes RDF representations and applies SPARQL-Update
// bodies (spec.md §6).
type IOService interface {
	Read(r io.Reader, baseURL, syntax string) ([]ldp.Quad, error)
	Write(quads []ldp.Quad, w io.Writer, syntax, profile string) error
	Update(quads []ldp.Quad, sparql, baseURL string) ([]ldp.Quad, error)
}

// Violation describes a constraint failure (spec.md §6).
type Violation struct {
	Kind             string
	OffendingTriples []ldp.Quad
}

// ConstraintService validates a graph against an interaction model's shape
// rules (spec.md §6, §4.8).
type ConstraintService interface {
	ConstrainedBy(model ldp.InteractionModel, baseURL string, quads []ldp.Quad) (*Violation, error)
}

// Mode is a WAC access mode.
type Mode string

const (
	ModeRead    Mode = "Read"
	ModeWrite   Mode = "Write"
	ModeAppend  Mode = "Append"
	ModeControl Mode = "Control"
)

// Session identifies the authenticated agent (and optional delegator) for
// an access-control check.
type Session struct {
	Agent     string
	OnBehalfOf string
}

// AccessControlService decides which access modes a session holds over a
// resource (spec.md §6).
type AccessControlService interface {
	GetAccessModes(ctx context.Context, id string, session Session) (map[Mode]bool, error)
}

// AgentService converts an opaque user id into an IRI (spec.md §6).
type AgentService interface {
	AsAgent(ctx context.Context, userID string) (string, error)
}
