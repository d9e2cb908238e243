// Package ldp holds the core value types of the repository protocol layer:
// resources, binaries, mementos, and the request/response shapes the
// handlers operate on. It has no knowledge of HTTP beyond the value types
// themselves — header parsing, negotiation, and the handler pipeline live in
// sibling packages.
package ldp

import (
	"fmt"
	"strings"
)

// InternalIRI returns the internal IRI `trellis:<partition>/<path>` for a
// partition and a path. The path may be empty.
func InternalIRI(partition, path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "trellis:" + partition
	}
	return "trellis:" + partition + "/" + path
}

// ExternalURL returns the external URL `<baseURL><partition>/<path>` for a
// partition and path, given a base URL that already ends in "/".
func ExternalURL(baseURL, partition, path string) string {
	baseURL = strings.TrimSuffix(baseURL, "/") + "/"
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return baseURL + partition + "/"
	}
	return baseURL + partition + "/" + path
}

// ToInternal converts an external URL into its internal IRI, given the
// server's base URL. It is the inverse of ToExternal for every IRI that
// ToExternal can produce.
func ToInternal(baseURL, externalURL string) (string, error) {
	baseURL = strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(externalURL, baseURL) {
		return "", fmt.Errorf("ldp: %q is not under base URL %q", externalURL, baseURL)
	}
	rest := strings.TrimPrefix(externalURL, baseURL)
	return "trellis:" + rest, nil
}

// ToExternal converts an internal IRI back into its external URL. It is the
// inverse of ToInternal for every IRI ToInternal can produce.
func ToExternal(baseURL, internalIRI string) (string, error) {
	if !strings.HasPrefix(internalIRI, "trellis:") {
		return "", fmt.Errorf("ldp: %q is not an internal trellis IRI", internalIRI)
	}
	rest := strings.TrimPrefix(internalIRI, "trellis:")
	return strings.TrimSuffix(baseURL, "/") + "/" + rest, nil
}

// SplitPartition splits an internal IRI's path portion into its partition
// (the first path segment) and the remainder.
func SplitPartition(internalIRI string) (partition, path string, err error) {
	if !strings.HasPrefix(internalIRI, "trellis:") {
		return "", "", fmt.Errorf("ldp: %q is not an internal trellis IRI", internalIRI)
	}
	rest := strings.TrimPrefix(internalIRI, "trellis:")
	parts := strings.SplitN(rest, "/", 2)
	partition = parts[0]
	if len(parts) == 2 {
		path = parts[1]
	}
	return partition, path, nil
}
