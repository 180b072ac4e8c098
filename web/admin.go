// ABOUTME: Admin CRUD handlers for presets, credentials, and projects.
// ABOUTME: Credentials are redacted on every read; full keys never leave the archive.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/drafter/store"
)

type presetRequest struct {
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

func (s *Server) handlePresetList(w http.ResponseWriter, r *http.Request) {
	presets, err := s.db.ListPresets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (s *Server) handlePresetCreate(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "name and model are required")
		return
	}

	preset, err := s.db.CreatePreset(req.Name, req.Model, req.Temperature, req.MaxTokens)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) handlePresetGet(w http.ResponseWriter, r *http.Request) {
	preset, err := s.db.GetPreset(chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (s *Server) handlePresetDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeletePreset(chi.URLParam(r, "id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type credentialRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
}

// credentialView is the redacted wire shape of a stored credential.
type credentialView struct {
	CredentialID string `json:"credential_id"`
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	APIKeyHint   string `json:"api_key_hint"`
	BaseURL      string `json:"base_url,omitempty"`
}

func redactCredential(c store.Credential) credentialView {
	return credentialView{
		CredentialID: c.CredentialID,
		Name:         c.Name,
		Provider:     c.Provider,
		APIKeyHint:   redactKey(c.APIKey),
		BaseURL:      c.BaseURL,
	}
}

// redactKey keeps the last four characters of a key for recognition.
func redactKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return "..." + key[len(key)-4:]
}

func (s *Server) handleCredentialList(w http.ResponseWriter, r *http.Request) {
	creds, err := s.db.ListCredentials()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]credentialView, 0, len(creds))
	for _, c := range creds {
		views = append(views, redactCredential(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCredentialCreate(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Provider == "" || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "name, provider, and api_key are required")
		return
	}

	cred, err := s.db.CreateCredential(req.Name, req.Provider, req.APIKey, req.BaseURL)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, redactCredential(*cred))
}

func (s *Server) handleCredentialDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteCredential(chi.URLParam(r, "id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type projectRequest struct {
	Name        string `json:"name"`
	Topic       string `json:"topic"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	projects, err := s.db.ListProjects()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Topic == "" {
		writeError(w, http.StatusBadRequest, "name and topic are required")
		return
	}

	project, err := s.db.CreateProject(req.Name, req.Topic, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	project, err := s.db.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteProject(chi.URLParam(r, "id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
