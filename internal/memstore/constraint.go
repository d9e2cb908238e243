package memstore

import (
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/services"
)

// containmentPredicate and membershipPredicate are LDP-reserved predicates
// a client-supplied graph must not set directly; doing so is a
// constraint violation of kind "knownProperty" (spec.md §4.8/§6
// ConstraintService).
const (
	containmentPredicate = "http://www.w3.org/ns/ldp#contains"
	membershipPredicate  = "http://www.w3.org/ns/ldp#member"
)

// Constraints is a minimal services.ConstraintService: it rejects a
// client graph that tries to set server-managed LDP predicates directly,
// the one constraint every interaction model shares (spec.md §6).
// Container-shape-specific rules (membership resource well-formedness,
// etc.) are intentionally not modeled here — the core's own invariants
// (§3, §8) don't require them to exercise ConstraintViolation.
type Constraints struct{}

func NewConstraints() *Constraints { return &Constraints{} }

func (*Constraints) ConstrainedBy(model ldp.InteractionModel, baseURL string, quads []ldp.Quad) (*services.Violation, error) {
	var offending []ldp.Quad
	for _, q := range quads {
		if q.Predicate == containmentPredicate || q.Predicate == membershipPredicate {
			offending = append(offending, q)
		}
	}
	if len(offending) == 0 {
		return nil, nil
	}
	return &services.Violation{Kind: "knownProperty", OffendingTriples: offending}, nil
}
