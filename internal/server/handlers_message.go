package server

import (
	"encoding/json"
	"net/http"

	"github.com/context-kit/contextkit/internal/logging"
)

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	Content string `json:"content"`
	Mode    string `json:"mode,omitempty"`
}

// sendMessage handles POST /session/{sessionID}/message
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "content is required")
		return
	}

	task, err := s.manager.SendMessage(r.Context(), id, req.Content, req.Mode)
	if err != nil && task == nil {
		writeSessionError(w, err)
		return
	}

	// A failed task still serializes; the error detail lives in its outputs.
	writeJSON(w, http.StatusOK, taskDTO(task))
}

// streamMessage handles POST /session/{sessionID}/message/stream
//
// The response is a newline-delimited JSON stream of task lifecycle events:
// task.started, zero or more token records, then exactly one of
// task.completed or task.failed.
func (s *Server) streamMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "content is required")
		return
	}

	events, err := s.manager.StreamMessage(r.Context(), id, req.Content, req.Mode)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)

	for e := range events {
		if err := enc.Encode(e); err != nil {
			logging.Debug().Err(err).Msg("stream client gone")
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
