package handler

import (
	"fmt"
	"net/http"
)

// FailureBody renders the minimal plain-text failure body spec.md §7
// requires: the status, at minimum. Replaces the teacher's HTML error
// skins (templates.go) with a body collaborators in any content type can
// read without negotiation.
func FailureBody(status int, detail string) string {
	if detail == "" {
		return fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("%d %s: %s", status, http.StatusText(status), detail)
}
