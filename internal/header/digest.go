package header

import (
	"fmt"
	"strconv"
	"strings"
)

// SupportedDigestAlgorithms lists the algorithms spec.md §4.1 names for the
// Digest request header: md5, sha, sha-256.
var SupportedDigestAlgorithms = map[string]bool{
	"md5": true, "sha": true, "sha-256": true,
}

// Digest is a parsed request Digest header: `<algo>=<base64>`.
type Digest struct {
	Algorithm string
	Value     string // base64-encoded
}

// ParseDigest parses a request Digest header. Unsupported algorithms
// (anything outside SupportedDigestAlgorithms) are a *MalformedError.
func ParseDigest(value string) (*Digest, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	i := strings.IndexByte(value, '=')
	if i < 0 {
		return nil, malformed("Digest", value, "expected <algo>=<base64>")
	}
	algo := strings.ToLower(strings.TrimSpace(value[:i]))
	val := strings.TrimSpace(value[i+1:])
	if !SupportedDigestAlgorithms[algo] {
		return nil, malformed("Digest", value, "unsupported algorithm "+algo)
	}
	return &Digest{Algorithm: algo, Value: val}, nil
}

// String re-serializes the digest.
func (d *Digest) String() string {
	return d.Algorithm + "=" + d.Value
}

// DigestPreference is one `<algo>[;q=<float>]` entry of a Want-Digest
// header.
type DigestPreference struct {
	Algorithm string
	Q         float64
}

// ParseWantDigest parses a Want-Digest header into its preference list,
// preserving declaration order (ties in Q are broken by this order when
// picking the server's preferred algorithm).
func ParseWantDigest(value string) ([]DigestPreference, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var out []DigestPreference
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.Split(tok, ";")
		algo := strings.ToLower(strings.TrimSpace(parts[0]))
		q := 1.0
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "q=") {
				v, err := strconv.ParseFloat(strings.TrimPrefix(p, "q="), 64)
				if err != nil {
					return nil, malformed("Want-Digest", value, "invalid q value")
				}
				q = v
			}
		}
		out = append(out, DigestPreference{Algorithm: algo, Q: q})
	}
	return out, nil
}

// PickAlgorithm returns the highest-q algorithm in prefs that the server
// supports (per supported, a set of algorithm names), or "" if none match.
// Ties are broken by declaration order.
func PickAlgorithm(prefs []DigestPreference, supported map[string]bool) string {
	best := ""
	bestQ := -1.0
	for _, p := range prefs {
		if !supported[p.Algorithm] {
			continue
		}
		if p.Q > bestQ {
			bestQ = p.Q
			best = p.Algorithm
		}
	}
	return best
}

// FormatDigestHeader formats the response Digest header for a computed
// digest value (already base64-encoded by the caller).
func FormatDigestHeader(algorithm, base64Value string) string {
	return fmt.Sprintf("%s=%s", algorithm, base64Value)
}
