package handler

import (
	"time"

	"github.com/trellisldp/trellis-http/internal/ldp"
)

// Activity types used on the five audit quads every mutation appends
// (spec.md §9 "Audit quads").
const (
	ActivityCreate = "http://www.w3.org/ns/prov#Activity"
	AuditPredicateType      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	AuditPredicateAgent     = "http://www.w3.org/ns/prov#wasAssociatedWith"
	AuditPredicateDelegate  = "http://www.trellisldp.org/ns/trellis#actedOnBehalfOf"
	AuditPredicateAt        = "http://www.w3.org/ns/prov#atTime"
	AuditPredicateTarget    = "http://www.trellisldp.org/ns/trellis#target"
)

// BuildAuditQuads produces exactly five audit quads for a single mutation —
// activity type, agent, delegated-agent (may be empty), instant, and
// target — from a single builder so the count is invariant across
// handlers (spec.md §9).
func BuildAuditQuads(activityIRI, activityType, agent, delegate, target string, at time.Time) []ldp.Quad {
	return []ldp.Quad{
		{Subject: activityIRI, Predicate: AuditPredicateType, Object: activityType, Graph: ldp.PreferAudit},
		{Subject: activityIRI, Predicate: AuditPredicateAgent, Object: agent, Graph: ldp.PreferAudit},
		{Subject: activityIRI, Predicate: AuditPredicateDelegate, Object: delegate, Graph: ldp.PreferAudit},
		{Subject: activityIRI, Predicate: AuditPredicateAt, Object: at.UTC().Format(time.RFC3339), ObjectIsLiteral: true, Graph: ldp.PreferAudit},
		{Subject: activityIRI, Predicate: AuditPredicateTarget, Object: target, Graph: ldp.PreferAudit},
	}
}
