package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/logger"
)

const defaultProjectID = "default"

type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id,omitempty"`

	// Agent optionally bypasses the router: "manager_agent",
	// "editor_agent" or "coder_agent".
	Agent string `json:"agent,omitempty"`
}

type chatResponse struct {
	Agent    string         `json:"agent"`
	Messages []chat.Message `json:"messages"`
}

type sessionRequest struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	category := req.Agent
	if category == "" {
		category = s.service.Route(r.Context(), req.Message).Category
	} else if !validCategory(category) {
		writeJSONError(w, http.StatusBadRequest, "unknown agent: "+category)
		return
	}

	logger.InfoCF("gateway", "Chat request dispatched",
		map[string]any{
			"agent": category,
			"user":  req.UserID,
		})

	sessionKey := sessionKeyFor(category, req.UserID, req.ProjectID)
	messages := s.service.GenerateFor(r.Context(), category, req.Message, sessionKey)

	writeJSON(w, http.StatusOK, chatResponse{
		Agent:    category,
		Messages: messages,
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	// Project-scoped agents key by user_project, the editor by plain
	// user id; clear both forms.
	s.service.Clear(compositeKey(req.UserID, req.ProjectID))
	s.service.Clear(req.UserID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Cheap peek at the session identity without consuming the body.
		sessionKey := r.Header.Get("X-User-ID")
		if !s.limiter.AllowRequest(sessionKey) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// sessionKeyFor mirrors the per-agent key shapes: the planner and coder
// are project-scoped, the editor is user-scoped.
func sessionKeyFor(category, userID, projectID string) string {
	switch category {
	case chat.EditorAgentName:
		return userID
	default:
		return compositeKey(userID, projectID)
	}
}

func compositeKey(userID, projectID string) string {
	if projectID == "" {
		projectID = defaultProjectID
	}
	return userID + "_" + projectID
}

func validCategory(category string) bool {
	switch category {
	case chat.ManagerAgentName, chat.EditorAgentName, chat.CoderAgentName:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
