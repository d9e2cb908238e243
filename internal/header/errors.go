// Package header parses and serializes the HTTP protocol vocabulary named
// in spec.md §4.1: Prefer, Range, Digest, Want-Digest, Accept-Datetime,
// Link, and Accept. Each parser returns a normalized value or a
// *MalformedError; it never panics on malformed input.
package header

import "fmt"

// MalformedError reports that a header's value did not match its grammar.
// Handlers translate this into a 400 BadRequest per spec.md §7.
type MalformedError struct {
	Header string
	Value  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("header: malformed %s %q: %s", e.Header, e.Value, e.Reason)
}

func malformed(name, value, reason string) error {
	return &MalformedError{Header: name, Value: value, Reason: reason}
}
