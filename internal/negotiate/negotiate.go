// Package negotiate implements spec.md §4.2's Negotiator: picking a
// concrete RDF syntax or binary media type from an ordered Accept list and
// a set of available variants.
package negotiate

import (
	"errors"

	"github.com/trellisldp/trellis-http/internal/header"
)

// ErrNotAcceptable is returned when no acceptable entry matches any
// available variant (spec.md §7 NoAcceptableVariant / 406).
var ErrNotAcceptable = errors.New("negotiate: no acceptable variant")

// JSONLDProfile IRIs spec.md §6 names.
const (
	ProfileCompacted = "http://www.w3.org/ns/json-ld#compacted"
	ProfileExpanded  = "http://www.w3.org/ns/json-ld#expanded"
)

// Variant is one representation the server can produce for a resource:
// a concrete media type, optionally an RDF syntax name, optionally a
// JSON-LD profile IRI.
type Variant struct {
	MediaType string
	RDFSyntax string
	Profile   string
}

// Negotiate walks acceptable in order and returns the first available
// variant that is compatible, per spec.md §4.2's algorithm: wildcards match,
// JSON-LD profile is matched literally, ties broken by declaration order of
// variants.
func Negotiate(acceptable []header.MediaRange, available []Variant) (Variant, error) {
	for _, a := range acceptable {
		for _, v := range available {
			if !a.Matches(v.MediaType) {
				continue
			}
			if v.MediaType == "application/ld+json" {
				wantProfile := a.Params["profile"]
				if wantProfile == "" {
					wantProfile = ProfileExpanded
				}
				if v.Profile != "" && v.Profile != wantProfile {
					continue
				}
			}
			return v, nil
		}
	}
	return Variant{}, ErrNotAcceptable
}

// DefaultRDFVariant is spec.md §4.2's default when no Accept is supplied:
// Turtle for RDF resources.
var DefaultRDFVariant = Variant{MediaType: "text/turtle", RDFSyntax: "text/turtle"}

// DefaultBinaryVariant returns the default variant for a binary resource
// when no Accept is supplied: the binary's own mimeType.
func DefaultBinaryVariant(mimeType string) Variant {
	return Variant{MediaType: mimeType}
}
