package memstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/trellisldp/trellis-http/internal/ldp"
)

// IO is a minimal, in-process implementation of services.IOService. No
// third-party RDF toolkit appears anywhere in the retrieved pack (the
// teacher's own graph type, `gold.Graph`, is internal to its module and
// not a reusable import); this codec restricts itself to the
// subject-predicate-object triple shape the rest of the core already
// works with (ldp.Quad), trading full Turtle-grammar coverage for a
// round-trip format the rest of memstore can actually exercise.
type IO struct{}

func NewIO() *IO { return &IO{} }

// Read parses one `<subject> <predicate> <object|"literal"> .` statement
// per line — a line-oriented subset of Turtle sufficient for the shapes
// this core ever writes out. baseURL/syntax are accepted for interface
// conformance; a fuller codec would use them to resolve relative IRIs and
// switch grammars.
func (*IO) Read(r io.Reader, baseURL, syntax string) ([]ldp.Quad, error) {
	var quads []ldp.Quad
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := parseTripleLine(line)
		if err != nil {
			return nil, err
		}
		q.Graph = ldp.PreferUserManaged
		quads = append(quads, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return quads, nil
}

// Write serializes quads as one line per statement in the same format
// Read accepts. application/ld+json output is a flat JSON array of
// {subject,predicate,object,literal} objects; profile is accepted but does
// not change the output.
func (*IO) Write(quads []ldp.Quad, w io.Writer, syntax, profile string) error {
	if syntax == "application/ld+json" {
		type jsonQuad struct {
			Subject   string `json:"subject"`
			Predicate string `json:"predicate"`
			Object    string `json:"object"`
			Literal   bool   `json:"literal"`
		}
		out := make([]jsonQuad, len(quads))
		for i, q := range quads {
			out[i] = jsonQuad{q.Subject, q.Predicate, q.Object, q.ObjectIsLiteral}
		}
		enc := json.NewEncoder(w)
		if profile == "" {
			// expanded is the default (negotiate.ProfileExpanded)
		}
		return enc.Encode(out)
	}
	for _, q := range quads {
		if _, err := fmt.Fprintln(w, formatTripleLine(q)); err != nil {
			return err
		}
	}
	return nil
}

func parseTripleLine(line string) (ldp.Quad, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ".")
	line = strings.TrimSpace(line)
	parts := splitTripleTerms(line)
	if len(parts) != 3 {
		return ldp.Quad{}, fmt.Errorf("memstore: malformed triple line %q", line)
	}
	subject := unwrapIRI(parts[0])
	predicate := unwrapIRI(parts[1])
	object := parts[2]
	isLiteral := strings.HasPrefix(object, `"`)
	if isLiteral {
		object = strings.Trim(object, `"`)
	} else {
		object = unwrapIRI(object)
	}
	return ldp.Quad{Subject: subject, Predicate: predicate, Object: object, ObjectIsLiteral: isLiteral}, nil
}

func formatTripleLine(q ldp.Quad) string {
	obj := q.Object
	if q.ObjectIsLiteral {
		obj = `"` + obj + `"`
	} else {
		obj = "<" + obj + ">"
	}
	return fmt.Sprintf("<%s> <%s> %s .", q.Subject, q.Predicate, obj)
}

// splitTripleTerms splits a triple line on whitespace outside of quotes,
// so a quoted literal containing a space survives as one term.
func splitTripleTerms(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func unwrapIRI(term string) string {
	return strings.TrimSuffix(strings.TrimPrefix(term, "<"), ">")
}

// Update applies a small SPARQL-Update subset — `INSERT DATA { ... }` and
// `DELETE DATA { ... }` blocks, each containing triple-line statements in
// the same format Read/Write use — against current, per spec.md §4.8.
func (ioSvc *IO) Update(quads []ldp.Quad, sparql, baseURL string) ([]ldp.Quad, error) {
	out := append([]ldp.Quad(nil), quads...)
	for _, block := range extractBlocks(sparql, "DELETE DATA") {
		toDelete, err := ioSvc.Read(strings.NewReader(block), baseURL, "text/turtle")
		if err != nil {
			return nil, err
		}
		out = subtractQuads(out, toDelete)
	}
	for _, block := range extractBlocks(sparql, "INSERT DATA") {
		toInsert, err := ioSvc.Read(strings.NewReader(block), baseURL, "text/turtle")
		if err != nil {
			return nil, err
		}
		out = append(out, toInsert...)
	}
	return out, nil
}

// extractBlocks returns the contents of every `<keyword> { ... }` block
// in sparql, in order of appearance.
func extractBlocks(sparql, keyword string) []string {
	var out []string
	rest := sparql
	for {
		idx := strings.Index(rest, keyword)
		if idx < 0 {
			return out
		}
		rest = rest[idx+len(keyword):]
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return out
		}
		closeIdx := strings.IndexByte(rest[open:], '}')
		if closeIdx < 0 {
			return out
		}
		out = append(out, rest[open+1:open+closeIdx])
		rest = rest[open+closeIdx:]
	}
}

func subtractQuads(quads, remove []ldp.Quad) []ldp.Quad {
	var out []ldp.Quad
	for _, q := range quads {
		matched := false
		for _, r := range remove {
			if q == r {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, q)
		}
	}
	return out
}
