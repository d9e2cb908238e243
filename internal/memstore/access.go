package memstore

import (
	"context"
	"strings"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/services"
)

const (
	aclMode        = "http://www.w3.org/ns/auth/acl#mode"
	aclAccessTo    = "http://www.w3.org/ns/auth/acl#accessTo"
	aclAgent       = "http://www.w3.org/ns/auth/acl#agent"
	aclAgentClass  = "http://www.w3.org/ns/auth/acl#agentClass"
	aclOwner       = "http://www.w3.org/ns/auth/acl#owner"
	foafAgent      = "http://xmlns.com/foaf/0.1/Agent"
	aclModeRead    = "http://www.w3.org/ns/auth/acl#Read"
	aclModeWrite   = "http://www.w3.org/ns/auth/acl#Write"
	aclModeAppend  = "http://www.w3.org/ns/auth/acl#Append"
	aclModeControl = "http://www.w3.org/ns/auth/acl#Control"
)

var aclModeIRI = map[services.Mode]string{
	services.ModeRead:    aclModeRead,
	services.ModeWrite:   aclModeWrite,
	services.ModeAppend:  aclModeAppend,
	services.ModeControl: aclModeControl,
}

// Access is a services.AccessControlService that walks a resource's own
// access-control graph (and, finding none, its ancestors up to the
// partition root) looking for an authorization naming the session's
// agent — by direct `acl:agent`, `acl:owner`, or the special
// `foaf:Agent` agentClass granting everyone access. Grounded on the
// teacher's `WAC.allow` in acl.go, which performed the identical
// accessTo/agent/agentClass walk directly against `NewGraph`/`aclGraph.All`
// triple-pattern queries; group delegation via `foaf:Group` membership
// (the teacher's nested group-graph fetch) is out of scope here since it
// requires fetching a second, possibly-remote graph — the in-memory store
// has no notion of an external group resource to fetch.
type Access struct {
	resources *Resources
}

func NewAccess(resources *Resources) *Access {
	return &Access{resources: resources}
}

func (a *Access) GetAccessModes(ctx context.Context, id string, session services.Session) (map[services.Mode]bool, error) {
	modes := map[services.Mode]bool{}
	path := id
	for path != "" {
		resource, err := a.resources.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		if resource != nil && resource.HasACL {
			quads, err := resource.Stream(ldp.PreferAccessControl)
			if err != nil {
				return nil, err
			}
			if grantsFound(quads, path, session.Agent) {
				applyGrants(modes, quads, path, session.Agent)
				return modes, nil
			}
		}
		parent, ok := parentOf(path)
		if !ok {
			break
		}
		path = parent
	}
	for m := range aclModeIRI {
		modes[m] = true
	}
	return modes, nil
}

// grantsFound reports whether the ACL graph at quads carries any
// authorization naming target as its acl:accessTo, regardless of agent —
// its presence is what stops the ancestor walk (spec.md §6, mirroring the
// teacher's per-path "if aclGraph.Len() > 0" short-circuit).
func grantsFound(quads []ldp.Quad, target, agent string) bool {
	for _, q := range quads {
		if q.Predicate == aclAccessTo && q.Object == target {
			return true
		}
	}
	return false
}

func applyGrants(modes map[services.Mode]bool, quads []ldp.Quad, target, agent string) {
	bySubject := map[string][]ldp.Quad{}
	for _, q := range quads {
		bySubject[q.Subject] = append(bySubject[q.Subject], q)
	}
	for _, authz := range bySubject {
		if !authorizationTargets(authz, target) {
			continue
		}
		if !authorizationGrantsAgent(authz, agent) {
			continue
		}
		for _, q := range authz {
			if q.Predicate != aclMode {
				continue
			}
			for mode, iri := range aclModeIRI {
				if q.Object == iri {
					modes[mode] = true
				}
			}
		}
	}
}

func authorizationTargets(authz []ldp.Quad, target string) bool {
	for _, q := range authz {
		if q.Predicate == aclAccessTo && q.Object == target {
			return true
		}
	}
	return false
}

func authorizationGrantsAgent(authz []ldp.Quad, agent string) bool {
	for _, q := range authz {
		switch q.Predicate {
		case aclOwner, aclAgent:
			if q.Object == agent {
				return true
			}
		case aclAgentClass:
			if q.Object == foafAgent {
				return true
			}
		}
	}
	return false
}

// parentOf returns the internal IRI of path's parent container, or
// ("", false) at the partition root.
func parentOf(internalIRI string) (string, bool) {
	partition, path, err := ldp.SplitPartition(internalIRI)
	if err != nil || path == "" {
		return "", false
	}
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ldp.InternalIRI(partition, ""), true
	}
	return ldp.InternalIRI(partition, path[:idx]), true
}
