package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/context-kit/contextkit/internal/config"
	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/manager"
	"github.com/context-kit/contextkit/pkg/types"
)

// CreateSessionRequest represents the request body for creating a session.
type CreateSessionRequest struct {
	UserID       string                  `json:"userId"`
	SystemPrompt string                  `json:"systemPrompt,omitempty"`
	ActiveTools  []string                `json:"activeTools,omitempty"`
	Provider     *types.AIProviderConfig `json:"provider,omitempty"`
}

// CreateSessionResponse pairs the new session with its capability profile.
type CreateSessionResponse struct {
	Session      types.SessionDTO        `json:"session"`
	Capabilities types.CapabilityProfile `json:"capabilities"`
}

// createSession handles POST /session
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "userId is required")
		return
	}

	var providerCfg *domain.ProviderConfig
	if req.Provider != nil {
		cfg, err := config.ProviderConfigFrom(*req.Provider)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}
		providerCfg = &cfg
	}

	session, capabilities, err := s.manager.CreateSession(r.Context(), req.UserID, providerCfg, req.SystemPrompt, req.ActiveTools)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CreateSessionResponse{
		Session:      sessionDTO(session),
		Capabilities: capabilities,
	})
}

// getSession handles GET /session/{sessionID}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := s.manager.GetSession(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionDTO(session))
}

// deleteSession handles DELETE /session/{sessionID}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := s.manager.DeleteSession(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}

	writeSuccess(w)
}

// sessionIDParam parses the sessionID URL parameter. On failure it writes a
// 400 and reports false.
func sessionIDParam(w http.ResponseWriter, r *http.Request) (domain.SessionID, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := domain.ParseSessionID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid session id")
		return domain.SessionID{}, false
	}
	return id, true
}

// writeSessionError maps manager errors to HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, manager.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
}
