// Package cors implements CorsFilter (spec.md §4.11): evaluating preflight
// and simple cross-origin requests against a configured origin allow-list.
// Grounded on the teacher's inline CORS header-setting in server.go's
// handle() method, generalized from an always-allow, wildcard-origin
// policy into an explicit allow-list with a preflight decision.
package cors

import (
	"net/http"
	"strings"
)

// simpleMethods is the fixed method set spec.md §4.11 names as requiring
// no preflight.
var simpleMethods = map[string]bool{"GET": true, "HEAD": true, "POST": true}

// Filter evaluates CORS for a single request against a configured
// allow-list.
type Filter struct {
	AllowOrigins    []string
	AllowedMethods  []string // the server's full allowed-method set, for the preflight decision
	AllowedHeaders  []string
	MaxAge          string
}

func (f *Filter) originAllowed(origin string) bool {
	for _, o := range f.AllowOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (f *Filter) methodAllowed(method string) bool {
	for _, m := range f.AllowedMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func (f *Filter) headersAllowed(headers []string) bool {
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		found := false
		for _, allowed := range f.AllowedHeaders {
			if strings.EqualFold(allowed, h) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply sets the appropriate CORS response headers on w for req, per
// spec.md §4.11. It does not short-circuit the request: preflight OPTIONS
// handling downstream still decides the final response status.
func (f *Filter) Apply(w http.ResponseWriter, req *http.Request) {
	origin := req.Header.Get("Origin")
	if origin == "" || !f.originAllowed(origin) {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")

	if req.Method != http.MethodOptions {
		return
	}
	reqMethod := req.Header.Get("Access-Control-Request-Method")
	if reqMethod == "" {
		return
	}
	reqHeaders := strings.Split(req.Header.Get("Access-Control-Request-Headers"), ",")
	if !f.methodAllowed(reqMethod) || !f.headersAllowed(reqHeaders) {
		return
	}

	w.Header().Set("Access-Control-Max-Age", f.MaxAge)
	w.Header().Set("Access-Control-Allow-Methods", joinNonSimple(f.AllowedMethods))
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(f.AllowedHeaders, ", "))
}

// joinNonSimple returns the methods in methods that require a preflight
// (i.e. are not in simpleMethods), per spec.md §4.11.
func joinNonSimple(methods []string) string {
	var out []string
	for _, m := range methods {
		if !simpleMethods[m] {
			out = append(out, m)
		}
	}
	return strings.Join(out, ", ")
}
