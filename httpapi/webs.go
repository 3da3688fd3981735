package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/types"
)

type createWebRequest struct {
	Task   string           `json:"task"`
	Config *types.WebConfig `json:"config,omitempty"`
}

func (s *Server) handleCreateWeb(w http.ResponseWriter, r *http.Request) {
	var req createWebRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Task == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task is required"})
		return
	}
	cfg := types.DefaultWebConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	web, err := s.engine.CreateWeb(r.Context(), req.Task, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	go s.runAndWatch(context.Background(), web.ID)
	writeJSON(w, http.StatusCreated, web)
}

func (s *Server) handleListWebs(w http.ResponseWriter, r *http.Request) {
	var statePtr *types.WebState
	if raw := r.URL.Query().Get("state"); raw != "" {
		state := types.WebState(raw)
		statePtr = &state
	}
	webs, err := s.store.ListWebs(r.Context(), statePtr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, webs)
}

func webIDFromPath(r *http.Request) (types.WebID, error) {
	raw := chi.URLParam(r, "webID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return types.WebID{}, errs.New(errs.NotFound, "parse_web_id", err)
	}
	return id, nil
}

func (s *Server) handleGetWeb(w http.ResponseWriter, r *http.Request) {
	webID, err := webIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	web, err := s.store.GetWeb(r.Context(), webID)
	if err != nil {
		writeError(w, errs.New(errs.NotFound, "get_web", err))
		return
	}
	writeJSON(w, http.StatusOK, web)
}

// handleTerminateWeb flips a web's state to Failed; the coordination
// loop observes this at its next iteration boundary and exits (spec §5).
func (s *Server) handleTerminateWeb(w http.ResponseWriter, r *http.Request) {
	webID, err := webIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	web, err := s.store.GetWeb(r.Context(), webID)
	if err != nil {
		writeError(w, errs.New(errs.NotFound, "terminate_web", err))
		return
	}
	web.State = types.WebFailed
	if err := s.store.UpdateWeb(r.Context(), web); err != nil {
		writeError(w, errs.New(errs.StorageError, "terminate_web", err))
		return
	}
	s.events.publish(webID, webEvent{Type: eventWebStateChanged, WebID: webID, State: string(web.State)})
	writeJSON(w, http.StatusOK, web)
}

func (s *Server) handleListWebAgents(w http.ResponseWriter, r *http.Request) {
	webID, err := webIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	agents, err := s.store.GetWebAgents(r.Context(), webID)
	if err != nil {
		writeError(w, errs.New(errs.StorageError, "list_web_agents", err))
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleListWebSignals(w http.ResponseWriter, r *http.Request) {
	webID, err := webIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	signals, err := s.store.GetPendingSignals(r.Context(), webID)
	if err != nil {
		writeError(w, errs.New(errs.StorageError, "list_web_signals", err))
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// handleWebResults returns the root agent's accumulated knowledge, which
// is always present (possibly empty) regardless of terminal state (spec
// §7 "the results endpoint always returns the root's accumulated
// knowledge list").
func (s *Server) handleWebResults(w http.ResponseWriter, r *http.Request) {
	webID, err := webIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	web, err := s.store.GetWeb(r.Context(), webID)
	if err != nil {
		writeError(w, errs.New(errs.NotFound, "web_results", err))
		return
	}
	root, err := s.store.GetAgent(r.Context(), web.RootAgentID)
	if err != nil {
		writeError(w, errs.New(errs.NotFound, "web_results", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"web_id": web.ID,
		"state":  web.State,
		"result": root.Context.AccumulatedKnowledge,
	})
}
