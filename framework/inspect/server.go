// Package inspect serves a read-only HTTP view of a library: the dump
// report, defined modules and reset closures.
//
//	GET /dump                  scope tree (JSON, or text with ?format=text)
//	GET /modules               defined module names
//	GET /modules/{name}        one module's dependencies and cache state
//	GET /closure?names=a,b     what Reset(a, b) would invalidate
package inspect

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	gohttp "github.com/km-arc/go-library/framework/http"
	"github.com/km-arc/go-library/framework/library"
	"github.com/km-arc/go-library/framework/routing"
	"github.com/km-arc/go-library/framework/validation"
)

// ModuleInfo describes one defined module.
type ModuleInfo struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
	Cached       bool     `json:"cached"`
	// Alias is set when the requested identifier was an alias of Name.
	Alias string `json:"alias,omitempty"`
}

// Server exposes a library over HTTP.
type Server struct {
	lib    *library.Library
	router *routing.Router
	logger *log.Logger
}

// NewServer wires the inspect routes for lib.
func NewServer(lib *library.Library, logger *log.Logger) *Server {
	s := &Server{lib: lib, router: routing.New(logger), logger: logger}
	// Every answer reflects the live cache.
	s.router.Middleware(middleware.NoCache)
	s.router.Get("/dump", s.dump)
	s.router.Prefix("/modules", func(r *routing.Router) {
		r.Get("/", s.modules)
		r.Get("/*", s.module)
	})
	s.router.Get("/closure", s.closure)
	return s
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("inspect server listening", "addr", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) dump(w http.ResponseWriter, r *http.Request) {
	report := s.lib.Dump()
	if gohttp.NewRequest(r).WantsText() {
		gohttp.NewResponse(w).Text(http.StatusOK, Render(report))
		return
	}
	gohttp.NewResponse(w).Success(report)
}

func (s *Server) modules(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(s.lib.Modules())
}

// module serves /modules/{identifier...}; identifiers may contain slashes.
func (s *Server) module(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id := routing.Param(r, "*")

	name, alias := id, ""
	if target, ok := s.lib.Alias(id); ok {
		name, alias = target, id
	}
	m, ok := s.lib.Module(name)
	if !ok {
		res.NotFound("module " + strconv.Quote(id) + " is not defined")
		return
	}

	deps := make([]string, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		deps = append(deps, d.String())
	}
	res.Success(ModuleInfo{
		Name:         m.Name,
		Dependencies: deps,
		Cached:       s.lib.Cached(m.Name),
		Alias:        alias,
	})
}

func (s *Server) closure(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	if v := req.Validate(validation.Rules{"names": "required|identifier"}); v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	closure, err := s.lib.ResetClosure(req.QueryList("names"))
	var unknown *library.UnknownModuleError
	switch {
	case errors.As(err, &unknown):
		res.NotFound(unknown.Error())
	case err != nil:
		res.ServerError(err.Error())
	default:
		res.Success(closure)
	}
}
