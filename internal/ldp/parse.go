package ldp

import (
	"net/http"

	"github.com/trellisldp/trellis-http/internal/header"
)

// ParseRequest builds a Request from an inbound *http.Request already
// routed to a partition and path (spec.md §3 "LdpRequest"), parsing every
// header the core protocol surface reads. sessionCookie is the opaque
// session id an AgentService.AsAgent call later resolves, read from the
// cookie the teacher's auth.go wrote as "Session".
func ParseRequest(r *http.Request, baseURL, partition, path, sessionCookie string) (*Request, error) {
	req := &Request{
		Method:      r.Method,
		Partition:   partition,
		Path:        path,
		BaseURL:     baseURL,
		ContentType: r.Header.Get("Content-Type"),
		Slug:        r.Header.Get("Slug"),
		Session:     sessionCookie,
		Body:        r.Body,
	}

	var err error
	if req.Accept, err = header.ParseAccept(r.Header.Get("Accept")); err != nil {
		return nil, err
	}
	if req.Prefer, err = header.ParsePrefer(r.Header.Get("Prefer")); err != nil {
		return nil, err
	}
	if rng := r.Header.Get("Range"); rng != "" {
		if req.Range, err = header.ParseRange(rng); err != nil {
			return nil, err
		}
	}
	if wd := r.Header.Get("Want-Digest"); wd != "" {
		if req.WantDigest, err = header.ParseWantDigest(wd); err != nil {
			return nil, err
		}
	}
	if d := r.Header.Get("Digest"); d != "" {
		if req.Digest, err = header.ParseDigest(d); err != nil {
			return nil, err
		}
	}
	if im := r.Header.Get("If-Match"); im != "" {
		if req.IfMatch, err = header.ParseIfMatch("If-Match", im); err != nil {
			return nil, err
		}
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		if req.IfNoneMatch, err = header.ParseIfMatch("If-None-Match", inm); err != nil {
			return nil, err
		}
	}
	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		if req.IfModSince, err = header.ParseAcceptDatetime(ims); err != nil {
			return nil, err
		}
	}
	if ius := r.Header.Get("If-Unmodified-Since"); ius != "" {
		if req.IfUnmodSince, err = header.ParseAcceptDatetime(ius); err != nil {
			return nil, err
		}
	}
	if ad := r.Header.Get("Accept-Datetime"); ad != "" {
		if req.AcceptDate, err = header.ParseAcceptDatetime(ad); err != nil {
			return nil, err
		}
	}
	if lk := r.Header.Get("Link"); lk != "" {
		if req.Link, err = header.ParseLink(lk); err != nil {
			return nil, err
		}
	}
	if req.Slug != "" {
		if req.Slug, err = header.ParseSlug(req.Slug); err != nil {
			return nil, err
		}
	}

	query := r.URL.Query()
	switch query.Get("ext") {
	case "acl":
		req.Ext = ExtACL
	case "timemap":
		req.Ext = ExtTimemap
	case "upload":
		req.Ext = ExtUpload
	}
	if v := query.Get("version"); v != "" {
		t, err := ParseMementoVersion(v)
		if err != nil {
			return nil, err
		}
		req.Version = &t
	}
	req.Query = TriplePattern{
		Subject:   query.Get("subject"),
		Predicate: query.Get("predicate"),
		Object:    query.Get("object"),
	}

	return req.WithRaw(r), nil
}
