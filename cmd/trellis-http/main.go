// Command trellis-http runs the repository's HTTP protocol layer: LDP
// resource CRUD, Memento time travel, byte-range and instance-digest
// negotiation, Prefer-governed representations, WAC authorization, and
// multipart binary upload. It wires the in-memory memstore collaborators
// by default; a deployment swapping in durable storage need only supply
// its own services.* implementations to the same handler structs.
//
// Grounded on the teacher's server.go `main`/`NewServer` wiring and
// evalgo-org-eve's cli/root.go `runServer`, generalized from a single
// filesystem-backed Server into the collaborator-interface shape this
// core uses.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/trellisldp/trellis-http/internal/config"
	"github.com/trellisldp/trellis-http/internal/cors"
	"github.com/trellisldp/trellis-http/internal/handler"
	"github.com/trellisldp/trellis-http/internal/ldp"
	"github.com/trellisldp/trellis-http/internal/logging"
	"github.com/trellisldp/trellis-http/internal/memstore"
	"github.com/trellisldp/trellis-http/internal/metrics"
	"github.com/trellisldp/trellis-http/internal/services"
)

// rdfMediaTypes lists the representation media types advertised on
// Accept-Post, mirroring the set rdfVariants names in internal/handler.
var rdfMediaTypes = []string{
	"text/turtle", "application/n-triples", "application/ld+json",
}

func main() {
	cfg := config.MustLoad(os.Args[1:])

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "trellis-http: building logger: "+err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	metricsReg := metrics.New(cfg.MetricsNamespace)

	baseURL := cfg.BaseURL + "/"
	resources := memstore.NewResources(baseURL)
	binaries := memstore.NewBinaries()
	io := memstore.NewIO()
	constraints := memstore.NewConstraints()
	access := memstore.NewAccess(resources)
	agents := memstore.NewAgent()

	app := &application{
		baseURL:     baseURL,
		resources:   resources,
		binaries:    binaries,
		agents:      agents,
		authorizer:  &handler.Authorizer{Access: access},
		get: &handler.GetHandler{
			Resources:     resources,
			Binaries:      binaries,
			IO:            io,
			CacheMaxAge:   cfg.CacheMaxAge,
			RDFMediaTypes: rdfMediaTypes,
			SupportsUpload: func(partition string) bool {
				_, ok := binaries.ResolverForPartition(partition)
				return ok
			},
		},
		post: &handler.PostHandler{
			Resources:   resources,
			Binaries:    binaries,
			IO:          io,
			Constraints: constraints,
			IDSupplier:  resources.IdentifierSupplier(),
		},
		put: &handler.PutHandler{
			Resources:   resources,
			Binaries:    binaries,
			IO:          io,
			Constraints: constraints,
		},
		patch: &handler.PatchHandler{
			Resources:   resources,
			IO:          io,
			Constraints: constraints,
		},
		del: &handler.DeleteHandler{Resources: resources},
		multipart: &handler.MultipartController{
			Binaries:  binaries,
			Resources: resources,
			Resolver:  binaries.ResolverForPartition,
		},
		logger:  logger,
		metrics: metricsReg,
	}

	corsFilter := &cors.Filter{
		AllowOrigins:   cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS", "PUT", "POST", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Slug", "Link", "Prefer", "If-Match", "If-None-Match", "Digest", "Want-Digest"},
		MaxAge:         "1728000",
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			corsFilter.Apply(w, req)
			if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/*", app.serveHTTP)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// application bundles the handler pipeline and collaborators the root
// route dispatches against, the generalized counterpart of the teacher's
// `Server` struct in server.go.
type application struct {
	baseURL    string
	resources  *memstore.Resources
	binaries   *memstore.Binaries
	agents     *memstore.Agent
	authorizer *handler.Authorizer

	get       *handler.GetHandler
	post      *handler.PostHandler
	put       *handler.PutHandler
	patch     *handler.PatchHandler
	del       *handler.DeleteHandler
	multipart *handler.MultipartController

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// serveHTTP is the single root route every request passes through: parse,
// authorize, dispatch, write. Grounded on the teacher's `handle` method in
// server.go, which performed the identical parse/authorize/switch/respond
// sequence directly against req/resource/acl rather than against an
// ldp.Request and a services.AccessControlService.
func (a *application) serveHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	partition, path := splitPath(r.URL.Path)
	if partition == "upload" {
		// multipart session URLs are <base>upload/<partition>/<session>[/<n>]
		path = "upload/" + path
	}
	sessionCookie := ""
	if c, err := r.Cookie("Session"); err == nil {
		sessionCookie = c.Value
	}

	req, err := ldp.ParseRequest(r, a.baseURL, partition, path, sessionCookie)
	if err != nil {
		a.writeError(w, r, services.New(services.MalformedHeader, err))
		return
	}

	ctx := r.Context()
	agent, err := a.agents.AsAgent(ctx, req.Session)
	if err != nil {
		agent = "http://xmlns.com/foaf/0.1/Agent"
	}

	if partition == "" {
		a.writeError(w, r, services.New(services.ResourceMissing, nil))
		return
	}

	if !strings.HasPrefix(path, "upload/") {
		if authErr := a.authorizer.Check(ctx, req.InternalIRI(), req.Method, req.Ext, services.Session{Agent: agent}); authErr != nil {
			a.writeError(w, r, authErr)
			return
		}
	}

	resp, err := a.dispatch(ctx, req, agent)
	if err != nil {
		a.writeError(w, r, err)
		a.metrics.Observe(r.Method, services.StatusFor(err), time.Since(start))
		return
	}

	if r.Method == http.MethodHead || r.Method == http.MethodOptions {
		resp.Body = nil
	}
	if err := resp.WriteTo(w); err != nil {
		a.logger.Warn("writing response", zap.Error(err))
	}
	a.metrics.Observe(r.Method, resp.Status, time.Since(start))
}

func (a *application) dispatch(ctx context.Context, req *ldp.Request, agent string) (*ldp.Response, error) {
	if strings.HasPrefix(req.Path, "upload/") {
		return a.multipart.Serve(ctx, req, agent)
	}
	if req.Ext == ldp.ExtUpload && req.Method == http.MethodPost {
		return a.multipart.Initiate(ctx, req)
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return a.get.Serve(ctx, req)
	case http.MethodPost:
		return a.post.Serve(ctx, req, agent)
	case http.MethodPut:
		return a.put.Serve(ctx, req, agent)
	case http.MethodPatch:
		return a.patch.Serve(ctx, req, agent)
	case http.MethodDelete:
		return a.del.Serve(ctx, req, agent)
	default:
		return nil, services.New(services.MethodNotAllowed, nil)
	}
}

func (a *application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.StatusFor(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		fmt.Fprintln(w, handler.FailureBody(status, err.Error()))
	}
	a.logger.Info("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
}

// splitPath splits a request path into its partition (first segment) and
// the remainder, trimming leading/trailing slashes.
func splitPath(p string) (partition, rest string) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	partition = parts[0]
	if len(parts) == 2 {
		rest = parts[1]
	}
	return partition, rest
}
