package handler

import (
	"context"
	"net/http"

	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/services"
)

// Authorizer checks a session's WAC access modes before a request reaches
// its handler, generalizing the teacher's inline `acl.AllowRead`/
// `AllowWrite`/`AllowAppend` calls in server.go's `handle` (each guarding
// one method's branch directly against a freshly-built `NewWAC`).
type Authorizer struct {
	Access services.AccessControlService
}

// RequiredMode returns the access mode a request needs, per spec.md §6's
// method-to-mode table: safe methods need Read; POST needs Append (the
// container gains a member) unless it targets `?ext=upload`, which still
// only appends; PUT/PATCH/DELETE need Write; a PUT/PATCH targeting
// `?ext=acl` needs Control, since it rewrites the resource's own
// authorizations.
func RequiredMode(method string, ext ldp.Ext) services.Mode {
	if ext == ldp.ExtACL && (method == http.MethodPut || method == http.MethodPatch) {
		return services.ModeControl
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return services.ModeRead
	case http.MethodPost:
		return services.ModeAppend
	default:
		return services.ModeWrite
	}
}

// Check reports whether session holds the mode a request needs over id,
// returning a services.Error(Forbidden) when it does not.
func (a *Authorizer) Check(ctx context.Context, id, method string, ext ldp.Ext, session services.Session) error {
	modes, err := a.Access.GetAccessModes(ctx, id, session)
	if err != nil {
		return services.New(services.StorageFailure, err)
	}
	if !modes[RequiredMode(method, ext)] {
		return &services.Error{Kind: services.Forbidden}
	}
	return nil
}
