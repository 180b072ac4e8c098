// ABOUTME: Admin HTTP server exposing run status plus preset/credential/project CRUD behind a chi router.
// ABOUTME: The phase store is read-only from here; steering stays in the TUI.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/drafter/phase"
	"github.com/2389-research/drafter/render"
	"github.com/2389-research/drafter/store"
)

// Config carries the server's collaborators. Phases may be nil when no run
// is live; the status endpoints then report no active run.
type Config struct {
	DB     *store.DB
	Phases *phase.Store
}

// Server is the admin HTTP surface.
type Server struct {
	db     *store.DB
	phases *phase.Store
	html   *render.Cache
	router chi.Router
}

// NewServer builds a Server and its router.
func NewServer(cfg Config) *Server {
	s := &Server{
		db:     cfg.DB,
		phases: cfg.Phases,
		html:   render.NewCache(render.New(), 30*time.Second),
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/phases/{name}", s.handlePhaseContent)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleRunList)
			r.Get("/{runID}", s.handleRunGet)
			r.Get("/{runID}/attempts", s.handleAttemptList)
		})

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", s.handlePresetList)
			r.Post("/", s.handlePresetCreate)
			r.Get("/{id}", s.handlePresetGet)
			r.Delete("/{id}", s.handlePresetDelete)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", s.handleCredentialList)
			r.Post("/", s.handleCredentialCreate)
			r.Delete("/{id}", s.handleCredentialDelete)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleProjectList)
			r.Post("/", s.handleProjectCreate)
			r.Get("/{id}", s.handleProjectGet)
			r.Delete("/{id}", s.handleProjectDelete)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// phaseStatus is the wire shape of one phase's live state.
type phaseStatus struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	ChunkCount  int    `json:"chunk_count"`
	ErrMessage  string `json:"err_message,omitempty"`
	Interrupted bool   `json:"interrupted"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.phases == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	var statuses []phaseStatus
	for _, name := range s.phases.Names() {
		snap, err := s.phases.Get(name)
		if err != nil {
			continue
		}
		statuses = append(statuses, phaseStatus{
			Name:        snap.Name,
			Status:      string(snap.Status),
			ChunkCount:  snap.ChunkCount,
			ErrMessage:  snap.ErrMessage,
			Interrupted: snap.Cancellation != nil,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "phases": statuses})
}

func (s *Server) handlePhaseContent(w http.ResponseWriter, r *http.Request) {
	if s.phases == nil {
		writeError(w, http.StatusNotFound, "no active run")
		return
	}
	name := chi.URLParam(r, "name")
	snap, err := s.phases.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.html.ToHTML(snap.Content)))
}

func (s *Server) handleRunList(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunGet(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleAttemptList(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.db.ListAttempts(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
