package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-library/framework/http"
	"github.com/km-arc/go-library/framework/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── Response ─────────────────────────────────────────────────────────────────

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success([]string{"bird", "nest"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, []any{"bird", "nest"}, decodeJSON(t, rr)["data"])
}

func TestResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gohttp.Response)
		status int
		msg    string
	}{
		{"not found default", func(r *gohttp.Response) { r.NotFound() }, http.StatusNotFound, "Not found."},
		{"not found custom", func(r *gohttp.Response) { r.NotFound(`module "x" is not defined`) }, http.StatusNotFound, `module "x" is not defined`},
		{"method", func(r *gohttp.Response) { r.MethodNotAllowed() }, http.StatusMethodNotAllowed, "Method not allowed."},
		{"server", func(r *gohttp.Response) { r.ServerError() }, http.StatusInternalServerError, "Server Error."},
		{"explicit", func(r *gohttp.Response) { r.Error(http.StatusConflict, "busy") }, http.StatusConflict, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.send(res)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, decodeJSON(t, rr)["message"])
		})
	}
}

func TestResponse_ValidationError(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"names": "required"})
	require.True(t, v.Fails())

	res, rr := newResponse(t)
	res.ValidationError(v.Errors())

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	errs, ok := decodeJSON(t, rr)["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "names")
}

func TestResponse_Text(t *testing.T) {
	res, rr := newResponse(t)
	res.Text(http.StatusOK, "library@root\n")

	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "library@root\n", rr.Body.String())
}

// ── Request ──────────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/closure?names=bird,%20nest&names=egg,&x=1", nil))

	assert.Equal(t, "1", req.Query("x"))
	assert.Equal(t, "fallback", req.Query("missing", "fallback"))
	assert.Equal(t, []string{"bird", "nest", "egg"}, req.QueryList("names"))
	assert.Nil(t, req.QueryList("missing"))
	assert.Equal(t, map[string]string{"names": "bird, nest,egg,", "x": "1"}, req.All())
}

func TestRequest_Validate(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/closure?names=big%20bird", nil))
	v := req.Validate(validation.Rules{"names": "required|identifier"})
	assert.True(t, v.Fails())

	// Every repeated value is checked, not just the first.
	req = gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/closure?names=bird&names=big%20bird", nil))
	v = req.Validate(validation.Rules{"names": "required|identifier"})
	assert.True(t, v.Fails())
	assert.Contains(t, v.Errors().First("names"), `"big bird"`)

	req = gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/closure?names=bird,&names=nest", nil))
	assert.True(t, req.Validate(validation.Rules{"names": "required|identifier"}).Passes())
}

func TestRequest_WantsText(t *testing.T) {
	tests := []struct {
		target string
		accept string
		want   bool
	}{
		{"/dump", "", false},
		{"/dump?format=text", "", true},
		{"/dump?format=json", "text/plain", false},
		{"/dump", "text/plain", true},
		{"/dump", "application/json", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.target, nil)
		if tt.accept != "" {
			r.Header.Set("Accept", tt.accept)
		}
		assert.Equal(t, tt.want, gohttp.NewRequest(r).WantsText(), "%s accept=%q", tt.target, tt.accept)
	}
}

func TestRequest_RouteParam(t *testing.T) {
	mux := chi.NewRouter()
	var got string
	mux.Get("/modules/{name}", func(w http.ResponseWriter, r *http.Request) {
		got = gohttp.NewRequest(r).RouteParam("name")
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/modules/bird", nil))
	assert.Equal(t, "bird", got)
}
