package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newFilter() *Filter {
	return &Filter{
		AllowOrigins:   []string{"https://allowed.example"},
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Slug", "Link"},
		MaxAge:         "86400",
	}
}

// TestApply_SimpleRequestFromAllowedOrigin covers a non-preflight request:
// only the origin/credentials headers are set.
func TestApply_SimpleRequestFromAllowedOrigin(t *testing.T) {
	f := newFilter()
	req := httptest.NewRequest(http.MethodGet, "http://example.org/resource", nil)
	req.Header.Set("Origin", "https://allowed.example")
	w := httptest.NewRecorder()

	f.Apply(w, req)

	assert.Equal(t, "https://allowed.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

// TestApply_DisallowedOriginSetsNoHeaders covers spec.md §4.11: an origin
// outside the allow-list gets no CORS headers at all.
func TestApply_DisallowedOriginSetsNoHeaders(t *testing.T) {
	f := newFilter()
	req := httptest.NewRequest(http.MethodGet, "http://example.org/resource", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()

	f.Apply(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// TestApply_PreflightGrantsNonSimpleMethods covers a valid preflight:
// PUT requires announcing itself since it isn't in the simple-method set.
func TestApply_PreflightGrantsNonSimpleMethods(t *testing.T) {
	f := newFilter()
	req := httptest.NewRequest(http.MethodOptions, "http://example.org/resource", nil)
	req.Header.Set("Origin", "https://allowed.example")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Slug")
	w := httptest.NewRecorder()

	f.Apply(w, req)

	methods := w.Header().Get("Access-Control-Allow-Methods")
	assert.Contains(t, methods, "PUT")
	assert.NotContains(t, methods, "GET")
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

// TestApply_PreflightRejectsDisallowedHeader covers a preflight that asks
// for a header outside the allow-list: no preflight-specific headers are
// granted.
func TestApply_PreflightRejectsDisallowedHeader(t *testing.T) {
	f := newFilter()
	req := httptest.NewRequest(http.MethodOptions, "http://example.org/resource", nil)
	req.Header.Set("Origin", "https://allowed.example")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	req.Header.Set("Access-Control-Request-Headers", "X-Unapproved")
	w := httptest.NewRecorder()

	f.Apply(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
