package precondition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var modified = time.Date(2017, 6, 1, 0, 32, 9, 0, time.UTC)

func TestEvaluate_IfNoneMatchGET_NotModified(t *testing.T) {
	etag := `W/"abc"`
	out := Evaluate(true, etag, modified, nil, []string{etag}, nil, nil)
	assert.Equal(t, NotModified, out)
}

func TestEvaluate_IfNoneMatchPUT_PreconditionFailed(t *testing.T) {
	etag := `W/"abc"`
	out := Evaluate(false, etag, modified, nil, []string{etag}, nil, nil)
	assert.Equal(t, PreconditionFailed, out)
}

func TestEvaluate_IfMatchMismatch(t *testing.T) {
	out := Evaluate(false, `W/"abc"`, modified, []string{`W/"other"`}, nil, nil, nil)
	assert.Equal(t, PreconditionFailed, out)
}

func TestEvaluate_IfMatchWildcard(t *testing.T) {
	out := Evaluate(false, `W/"abc"`, modified, []string{"*"}, nil, nil, nil)
	assert.Equal(t, Proceed, out)
}

func TestEvaluate_IfModifiedSince_NotModified(t *testing.T) {
	since := modified
	out := Evaluate(true, `W/"abc"`, modified, nil, nil, &since, nil)
	assert.Equal(t, NotModified, out)
}

func TestEvaluate_IfUnmodifiedSince_Failed(t *testing.T) {
	before := modified.Add(-time.Hour)
	out := Evaluate(false, `W/"abc"`, modified, nil, nil, nil, &before)
	assert.Equal(t, PreconditionFailed, out)
}

func TestEvaluate_NoConditionals_Proceed(t *testing.T) {
	out := Evaluate(true, `W/"abc"`, modified, nil, nil, nil, nil)
	assert.Equal(t, Proceed, out)
}
