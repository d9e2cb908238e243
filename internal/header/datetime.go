package header

import (
	"strings"
	"time"
)

// ParseAcceptDatetime parses an Accept-Datetime (or Memento-Datetime)
// header value, which is RFC 1123 per spec.md §4.1.
func ParseAcceptDatetime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC1123, value)
	if err != nil {
		t, err = time.Parse(time.RFC1123Z, value)
		if err != nil {
			return nil, malformed("Accept-Datetime", value, err.Error())
		}
	}
	utc := t.UTC()
	return &utc, nil
}

// FormatRFC1123 formats an instant as RFC 1123 in GMT, the form used on
// Memento-Datetime and the `memento` Link's `datetime` parameter.
func FormatRFC1123(t time.Time) string {
	return t.UTC().Format(time.RFC1123)
}

// ParseSlug validates the Slug header: must be a single path segment with
// no '/'. Returns a *MalformedError otherwise.
func ParseSlug(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	for i := 0; i < len(value); i++ {
		if value[i] == '/' {
			return "", malformed("Slug", value, "must not contain '/'")
		}
	}
	return value, nil
}

// ParseIfMatch splits an If-Match/If-None-Match header into its
// comma-separated entity-tag list. A malformed (unquoted, non-wildcard)
// value is a *MalformedError, per spec.md §4.4.
func ParseIfMatch(header, value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var out []string
	for _, tok := range splitTopLevel(value, ',') {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if tok == "*" {
			out = append(out, tok)
			continue
		}
		unquoted := strings.TrimPrefix(tok, "W/")
		if !strings.HasPrefix(unquoted, `"`) || !strings.HasSuffix(unquoted, `"`) {
			return nil, malformed(header, value, "entity-tag must be quoted: "+tok)
		}
		out = append(out, tok)
	}
	return out, nil
}
