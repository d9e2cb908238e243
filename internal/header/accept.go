package header

import (
	"sort"
	"strconv"
	"strings"
)

// MediaRange is one entry of a parsed Accept-style header, preserving
// q-value order (spec.md §4.1 "Accept").
type MediaRange struct {
	Type    string
	SubType string
	Q       float64
	Params  map[string]string
}

// String reconstructs the media range, e.g. "application/ld+json".
func (m MediaRange) String() string {
	return m.Type + "/" + m.SubType
}

// Matches reports whether m is compatible with a concrete media type
// "type/subtype", honoring "*/*" and "type/*" wildcards (spec.md §4.2).
func (m MediaRange) Matches(mediaType string) bool {
	parts := strings.SplitN(mediaType, "/", 2)
	if len(parts) != 2 {
		return false
	}
	if m.Type != "*" && m.Type != parts[0] {
		return false
	}
	if m.SubType != "*" && m.SubType != parts[1] {
		return false
	}
	return true
}

// ParseAccept parses an RFC 7231 Accept header with q-values, returning
// entries in descending q order (ties keep declaration order — a stable
// sort).
func ParseAccept(value string) ([]MediaRange, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var out []MediaRange
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.Split(tok, ";")
		typeSub := strings.SplitN(strings.TrimSpace(parts[0]), "/", 2)
		if len(typeSub) != 2 {
			return nil, malformed("Accept", value, "expected type/subtype")
		}
		mr := MediaRange{Type: typeSub[0], SubType: typeSub[1], Q: 1.0, Params: map[string]string{}}
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			i := strings.IndexByte(p, '=')
			if i < 0 {
				continue
			}
			key := strings.TrimSpace(p[:i])
			val := strings.Trim(strings.TrimSpace(p[i+1:]), `"`)
			if strings.EqualFold(key, "q") {
				q, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return nil, malformed("Accept", value, "invalid q value")
				}
				mr.Q = q
			} else {
				mr.Params[key] = val
			}
		}
		out = append(out, mr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Q > out[j].Q })
	return out, nil
}
