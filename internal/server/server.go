package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mapgrove/mapgrove/internal/engine"
	"github.com/mapgrove/mapgrove/internal/store"
)

// Server is the mapgrove HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server backed by the given database and engine.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/maps", func(r chi.Router) {
			r.Post("/", s.handleCreateMap)

			r.Route("/{mapID}", func(r chi.Router) {
				r.Get("/", s.handleGetMap)
				r.Delete("/", s.handleDeleteMap)
				r.Patch("/options", s.handleUpdateOptions)

				r.Route("/nodes", func(r chi.Router) {
					r.Get("/", s.handleGetNodes)
					r.Put("/", s.handleReplaceNodes)
					r.Post("/", s.handleAddNode)
					r.Patch("/{nodeID}", s.handleUpdateNode)
					r.Delete("/{nodeID}", s.handleRemoveNode)
				})
			})
		})
	})

	// Everything outside /api falls through to the embedded UI.
	r.Get("/*", spaHandler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// A real query probes deeper than Ping, which the sqlite driver
	// answers without touching the database file.
	mapCount, err := s.db.CountMaps()
	dbOK := err == nil

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"maps":    mapCount,
	})
}
