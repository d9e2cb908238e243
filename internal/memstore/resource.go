// Package memstore supplies in-memory reference implementations of the
// collaborator interfaces internal/services declares, used by the handler
// tests and the cmd/trellis-http demo server. spec.md places these
// collaborators out of the core's scope; the core still needs one
// concrete, testable backend.
package memstore

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/trellisldp/trellis-http/internal/ldp"
)

// snapshot is one persisted version of a resource's quad set.
type snapshot struct {
	at    time.Time
	quads []ldp.Quad
}

// Resources is an in-memory ResourceService that retains every snapshot
// ever written to an identifier, so `GetAt` can serve Memento lookups
// without a separate archive (spec.md §4.5 "?version").
type Resources struct {
	mu      sync.RWMutex
	history map[string][]snapshot
	baseURL string
	counter int64
}

// NewResources constructs an empty in-memory resource store rooted at
// baseURL (used by ToExternal/ToInternal).
func NewResources(baseURL string) *Resources {
	return &Resources{history: make(map[string][]snapshot), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *Resources) Get(ctx context.Context, id string) (*ldp.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snaps := r.history[id]
	if len(snaps) == 0 {
		return nil, nil
	}
	return buildResource(id, snaps, len(snaps)-1, false), nil
}

func (r *Resources) GetAt(ctx context.Context, id string, at time.Time) (*ldp.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snaps := r.history[id]
	if len(snaps) == 0 {
		return nil, nil
	}
	idx := -1
	for i, s := range snaps {
		if !s.at.After(at) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil
	}
	return buildResource(id, snaps, idx, idx != len(snaps)-1), nil
}

func (r *Resources) Put(ctx context.Context, id string, quads []ldp.Quad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[id] = append(r.history[id], snapshot{at: time.Now(), quads: quads})
	return nil
}

func (r *Resources) IdentifierSupplier() func() string {
	return func() string {
		r.mu.Lock()
		r.counter++
		n := r.counter
		r.mu.Unlock()
		return strconv.FormatInt(n, 10)
	}
}

func (r *Resources) ToInternal(externalURL string) (string, error) {
	return ldp.ToInternal(r.baseURL, externalURL)
}

func (r *Resources) ToExternal(internalIRI string) (string, error) {
	return ldp.ToExternal(r.baseURL, internalIRI)
}

// Skolemize replaces blank-node identifiers ("_:name") with minted IRIs
// scoped under baseURL, per spec.md §3 "skolemize".
func (r *Resources) Skolemize(quads []ldp.Quad, baseURL string) []ldp.Quad {
	mapping := map[string]string{}
	out := make([]ldp.Quad, len(quads))
	for i, q := range quads {
		out[i] = q
		out[i].Subject = r.skolemizeTerm(q.Subject, baseURL, mapping)
		if !q.ObjectIsLiteral {
			out[i].Object = r.skolemizeTerm(q.Object, baseURL, mapping)
		}
	}
	return out
}

func (r *Resources) skolemizeTerm(term, baseURL string, mapping map[string]string) string {
	if !strings.HasPrefix(term, "_:") {
		return term
	}
	if iri, ok := mapping[term]; ok {
		return iri
	}
	r.mu.Lock()
	r.counter++
	n := r.counter
	r.mu.Unlock()
	iri := baseURL + "/.well-known/genid/" + url.QueryEscape(term[2:]) + strconv.FormatInt(n, 10)
	mapping[term] = iri
	return iri
}

// Unskolemize reverses Skolemize for blank nodes minted under baseURL's
// well-known genid path, restoring them to "_:name" form for display.
func (r *Resources) Unskolemize(quads []ldp.Quad, baseURL string) []ldp.Quad {
	prefix := baseURL + "/.well-known/genid/"
	out := make([]ldp.Quad, len(quads))
	for i, q := range quads {
		out[i] = q
		if strings.HasPrefix(q.Subject, prefix) {
			out[i].Subject = "_:" + strings.TrimPrefix(q.Subject, prefix)
		}
		if !q.ObjectIsLiteral && strings.HasPrefix(q.Object, prefix) {
			out[i].Object = "_:" + strings.TrimPrefix(q.Object, prefix)
		}
	}
	return out
}

// dcExtent is the predicate internal/handler's PostHandler/PutHandler
// record a binary's byte size under, mirroring dcFormat/dcHasPart.
const dcExtent = "http://purl.org/dc/terms/extent"

// buildResource assembles the *ldp.Resource view presented to handlers
// from a snapshot history, computing interaction model and binary
// metadata from the server-managed graph of the snapshot at idx.
func buildResource(id string, snaps []snapshot, idx int, isMemento bool) *ldp.Resource {
	s := snaps[idx]
	res := &ldp.Resource{
		Identifier:       id,
		InteractionModel: ldp.RDFSource,
		Modified:         s.at,
		IsMemento:        isMemento,
	}
	var internalID, mimeType string
	var size int64
	for _, q := range s.quads {
		if q.Graph == ldp.PreferAccessControl {
			res.HasACL = true
		}
		if q.Subject != id {
			continue
		}
		switch q.Predicate {
		case "http://www.w3.org/1999/02/22-rdf-syntax-ns#type":
			if m, ok := modelByIRI(q.Object); ok {
				res.InteractionModel = m
			} else {
				res.Types = append(res.Types, q.Object)
			}
		case "http://purl.org/dc/terms/hasPart":
			internalID = q.Object
		case "http://purl.org/dc/terms/format":
			mimeType = q.Object
		case dcExtent:
			if n, err := strconv.ParseInt(q.Object, 10, 64); err == nil {
				size = n
			}
		}
	}
	if internalID != "" {
		res.Binary = &ldp.Binary{InternalID: internalID, Modified: s.at, MimeType: mimeType, Size: size}
	}
	for i := 0; i < idx; i++ {
		res.Mementos = append(res.Mementos, ldp.VersionRange{From: snaps[i].at, Until: snaps[i+1].at})
	}
	graph := func(names ...ldp.GraphName) ([]ldp.Quad, error) {
		if len(names) == 0 {
			return s.quads, nil
		}
		wanted := map[ldp.GraphName]bool{}
		for _, n := range names {
			wanted[n] = true
		}
		var out []ldp.Quad
		for _, q := range s.quads {
			if wanted[q.Graph] {
				out = append(out, q)
			}
		}
		return out, nil
	}
	res.Stream = graph
	return res
}

func modelByIRI(iri string) (ldp.InteractionModel, bool) {
	for _, m := range []ldp.InteractionModel{
		ldp.Resource, ldp.RDFSource, ldp.NonRDFSource,
		ldp.Container, ldp.BasicContainer, ldp.DirectContainer, ldp.IndirectContainer,
	} {
		if m.IRI() == iri {
			return m, true
		}
	}
	return 0, false
}
