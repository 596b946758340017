package inspect_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-library/framework/inspect"
	"github.com/km-arc/go-library/framework/library"
	"github.com/km-arc/go-library/framework/loader"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newLibrary(t *testing.T) *library.Library {
	t.Helper()

	source := library.New()
	nest := source.MustDefine("nest", nil, library.Func(func() string { return "twigs" }))

	lib := library.New(
		library.WithID("library@root"),
		library.WithLoader(loader.NewMapLoader().ProvideModule("./lib/nest", nest)),
	)
	lib.MustDefine("bird", []library.Dependency{
		library.Name("./lib/nest"),
		library.Collective(map[string]any{"eggs": 0}),
	}, library.Func(func(nest string, state map[string]any) string { return "bird in " + nest }))
	lib.MustDefine("song", library.Names("bird"), library.Func(func(b string) string { return b + " sings" }))
	lib.MustDefine("clock", nil, library.Func(func() string { return "tick" }))

	_, err := lib.Using(library.Names("song"), library.Func(func(string) {}))
	require.NoError(t, err)
	return lib
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  map[string][]string
}

func get(t *testing.T, h http.Handler, target string) (int, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

// ── routes ───────────────────────────────────────────────────────────────────

func TestServer_Modules(t *testing.T) {
	h := inspect.NewServer(newLibrary(t), nil).Handler()

	code, env := get(t, h, "/modules")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["bird","clock","nest","song"]`, string(env.Data))
}

func TestServer_Module(t *testing.T) {
	h := inspect.NewServer(newLibrary(t), nil).Handler()

	code, env := get(t, h, "/modules/bird")
	require.Equal(t, http.StatusOK, code)
	var info inspect.ModuleInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "bird", info.Name)
	assert.Equal(t, []string{`"./lib/nest"`, "collective(map[eggs:0])"}, info.Dependencies)
	assert.True(t, info.Cached)

	code, env = get(t, h, "/modules/clock")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.False(t, info.Cached)

	code, env = get(t, h, "/modules/./lib/nest")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "nest", info.Name)
	assert.Equal(t, "./lib/nest", info.Alias)

	code, env = get(t, h, "/modules/fish")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, `module "fish" is not defined`, env.Message)
}

func TestServer_Closure(t *testing.T) {
	h := inspect.NewServer(newLibrary(t), nil).Handler()

	code, env := get(t, h, "/closure?names=nest")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["bird","nest","song"]`, string(env.Data))

	code, env = get(t, h, "/closure?names=clock,song")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["clock","song"]`, string(env.Data))

	code, env = get(t, h, "/closure")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "names")

	code, env = get(t, h, "/closure?names=big%20bird")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = get(t, h, "/closure?names=nest&names=big%20bird")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = get(t, h, "/closure?names=fish")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, env.Message, `"fish"`)
}

func TestServer_Dump(t *testing.T) {
	lib := newLibrary(t)
	_, err := lib.Using([]library.Dependency{library.Reset("bird")}, library.Func(func(string) {}))
	require.NoError(t, err)
	h := inspect.NewServer(lib, nil).Handler()

	code, env := get(t, h, "/dump")
	require.Equal(t, http.StatusOK, code)
	var report library.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "library@root", report.ID)
	assert.True(t, report.Root)
	require.Len(t, report.Children, 1)
	assert.Len(t, report.Children[0].Singletons, 1)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dump?format=text", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "library@root")
	assert.Contains(t, rr.Body.String(), "[reset]")
	assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
}

func TestRender(t *testing.T) {
	out := inspect.Render(library.Report{
		ID:         "library@aaaa",
		Root:       true,
		Singletons: []string{"bird@1111"},
		Children: []library.Report{
			{ID: "library@bbbb", Singletons: []string{"bird@2222 [reset]"}},
		},
	})

	assert.Contains(t, out, "library@aaaa")
	assert.Contains(t, out, "(root)")
	assert.Contains(t, out, "bird@1111")
	assert.Contains(t, out, "library@bbbb")
	assert.Contains(t, out, "bird@2222 [reset]")
}

func TestServer_ListenAndServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- inspect.NewServer(newLibrary(t), nil).ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/modules")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
