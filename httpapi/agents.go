package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/types"
)

func agentIDFromPath(r *http.Request) (types.AgentID, error) {
	raw := chi.URLParam(r, "agentID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return types.AgentID{}, errs.New(errs.NotFound, "parse_agent_id", err)
	}
	return id, nil
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agentID, err := agentIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	agent, err := s.store.GetAgent(r.Context(), agentID)
	if err != nil {
		writeError(w, errs.New(errs.NotFound, "get_agent", err))
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// handleAgentContext returns just the agent's accumulated knowledge and
// purpose, the slice of Agent most useful to a caller polling for
// intermediate progress (spec §6).
func (s *Server) handleAgentContext(w http.ResponseWriter, r *http.Request) {
	agentID, err := agentIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	agent, err := s.store.GetAgent(r.Context(), agentID)
	if err != nil {
		writeError(w, errs.New(errs.NotFound, "agent_context", err))
		return
	}
	writeJSON(w, http.StatusOK, agent.Context)
}
