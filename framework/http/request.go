package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-library/framework/validation"
)

// Request wraps *http.Request with query and route helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// QueryList returns every value for key, accepting both repeated keys and
// comma-separated lists: ?names=a,b&names=c → [a b c]. Blank entries are
// dropped.
func (req *Request) QueryList(key string) []string {
	var out []string
	for _, v := range req.raw.URL.Query()[key] {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// All returns the query string as a flat map. Repeated keys are joined with
// commas, so ?names=a&names=b reads as "a,b".
func (req *Request) All() map[string]string {
	out := make(map[string]string)
	for k, v := range req.raw.URL.Query() {
		if len(v) > 0 {
			out[k] = strings.Join(v, ",")
		}
	}
	return out
}

// Validate checks the query string against rules.
//
//	if v := req.Validate(validation.Rules{"names": "required|identifier"}); v.Fails() {
//	    res.ValidationError(v.Errors())
//	}
func (req *Request) Validate(rules validation.Rules) *validation.Validator {
	return validation.Make(req.All(), rules)
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// WantsText reports whether the client asked for plain text, either with
// ?format=text or an Accept header preferring text/plain.
func (req *Request) WantsText() bool {
	if f := req.Query("format"); f != "" {
		return f == "text"
	}
	accept := req.raw.Header.Get("Accept")
	return strings.HasPrefix(accept, "text/plain")
}
