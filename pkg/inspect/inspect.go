// Package inspect serves an HTTP inspector over a shadow document.
//
// Routes:
//
//	GET    /tree?format=html|text   serialized document or indented tree dump
//	GET    /query?sel=SELECTOR      matching elements as JSON
//	PUT    /root                    replace the document content
//	PUT    /nodes/{id}/inner        set innerHTML of the element with that id
//	PUT    /nodes/{id}/outer        set outerHTML of the element with that id
//	GET    /ops                     websocket stream of live host operations
//	GET    /snapshots               list snapshots
//	POST   /snapshots/{name}        save the document as a snapshot
//	POST   /snapshots/{name}/restore
//	DELETE /snapshots/{name}
//	GET    /metrics                 Prometheus exposition
//
// Request bodies are markup. With Sanitize set they pass through the
// bluemonday UGC policy first.
package inspect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/shadowdom/internal/treedump"
	"github.com/vango-dev/shadowdom/pkg/live/memdom"
	"github.com/vango-dev/shadowdom/pkg/shadow"
	"github.com/vango-dev/shadowdom/pkg/snapshot"
)

// maxBody bounds request bodies.
const maxBody = 4 << 20

// OpSource broadcasts live host operations. *memdom.Document implements it.
type OpSource interface {
	Observe(fn func(memdom.Record)) (cancel func())
}

// Options configures a Server.
type Options struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Store enables the snapshot routes.
	Store snapshot.Store

	// Ops enables the /ops websocket.
	Ops OpSource

	// Gatherer enables /metrics.
	Gatherer prometheus.Gatherer

	// Sanitize passes submitted markup through bluemonday.UGCPolicy.
	Sanitize bool

	// AllowOrigins lists origins accepted by /ops. Empty means same
	// origin only.
	AllowOrigins []string
}

// Server is the inspector HTTP handler.
type Server struct {
	doc    *shadow.Document
	opts   Options
	logger *slog.Logger
	policy *bluemonday.Policy
	hub    *hub
	router chi.Router
}

// New creates an inspector for doc.
func New(doc *shadow.Document, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		doc:    doc,
		opts:   opts,
		logger: logger.With("component", "inspect"),
	}
	if opts.Sanitize {
		s.policy = bluemonday.UGCPolicy()
	}
	if opts.Ops != nil {
		s.hub = newHub(opts.Ops, opts.AllowOrigins, s.logger)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/tree", s.handleTree)
	r.Get("/query", s.handleQuery)
	r.Put("/root", s.handleRoot)
	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Put("/inner", s.handleInner)
		r.Put("/outer", s.handleOuter)
	})
	if s.hub != nil {
		r.Get("/ops", s.hub.serve)
	}
	if s.opts.Store != nil {
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/{name}", s.handleSaveSnapshot)
			r.Post("/{name}/restore", s.handleRestoreSnapshot)
			r.Delete("/{name}", s.handleDeleteSnapshot)
		})
	}
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close disconnects all /ops clients.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.close()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// nodeView is the JSON form of a matched element.
type nodeView struct {
	Ref       string `json:"ref"`
	Tag       string `json:"tag"`
	ID        string `json:"id,omitempty"`
	OuterHTML string `json:"outerHTML"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var body string
	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		body = s.doc.HTML()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case "text":
		s.doc.View(func(root *shadow.Node) {
			body = treedump.Shadow(root)
		})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	default:
		http.Error(w, "unknown format "+format, http.StatusBadRequest)
		return
	}
	io.WriteString(w, body)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sel := r.URL.Query().Get("sel")
	if sel == "" {
		http.Error(w, "missing sel", http.StatusBadRequest)
		return
	}

	var (
		views []nodeView
		err   error
	)
	s.doc.View(func(root *shadow.Node) {
		var nodes []*shadow.Node
		nodes, err = root.QuerySelectorAll(sel)
		views = make([]nodeView, 0, len(nodes))
		for _, n := range nodes {
			views = append(views, nodeView{
				Ref:       refString(n.Ref()),
				Tag:       n.Tag(),
				ID:        n.ID(),
				OuterHTML: n.OuterHTML(),
			})
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	src, ok := s.readMarkup(w, r)
	if !ok {
		return
	}
	if err := s.doc.SetInnerHTML(r.Context(), s.doc.Root(), src); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInner(w http.ResponseWriter, r *http.Request) {
	s.setNode(w, r, s.doc.SetInnerHTML)
}

func (s *Server) handleOuter(w http.ResponseWriter, r *http.Request) {
	s.setNode(w, r, s.doc.SetOuterHTML)
}

func (s *Server) setNode(w http.ResponseWriter, r *http.Request,
	set func(ctx context.Context, n *shadow.Node, src string) error) {
	id := chi.URLParam(r, "id")
	n, ok := s.doc.ElementByID(id)
	if !ok {
		http.Error(w, "no element with id "+id, http.StatusNotFound)
		return
	}
	src, ok := s.readMarkup(w, r)
	if !ok {
		return
	}
	if err := set(r.Context(), n, src); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readMarkup reads and optionally sanitizes the request body.
func (s *Server) readMarkup(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return "", false
	}
	src := string(data)
	if s.policy != nil {
		src = s.policy.Sanitize(src)
	}
	return src, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func refString(ref shadow.Ref) string {
	return strconv.FormatUint(uint64(ref.Index), 10) + "." + strconv.FormatUint(uint64(ref.Gen), 10)
}
