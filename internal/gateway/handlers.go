package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"shopmate/internal/chat"
)

const (
	roleHeader = "X-Shopmate-Role"
	userHeader = "X-Shopmate-User"
)

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}

	role, ok := s.callerRole(r)
	if !ok {
		http.Error(w, `{"error":"admin role requires a valid bearer token"}`, http.StatusUnauthorized)
		return
	}
	userID, _ := strconv.ParseInt(r.Header.Get(userHeader), 10, 64)

	sse := NewSSEWriter(w)
	var sentError bool

	err := s.orchestrator.Run(r.Context(), role, userID, req.Message, req.History, func(c chat.Chunk) {
		switch c.Type {
		case chat.ChunkText:
			sse.Send("text", map[string]string{"content": c.Data.(string)})
		case chat.ChunkToolCall:
			sse.Send("tool", c.Data)
		case chat.ChunkToolResult:
			sse.Send("tool_result", c.Data)
		case chat.ChunkChart:
			sse.Send("chart", c.Data)
		case chat.ChunkError:
			sentError = true
			sse.Send("error", map[string]string{"error": c.Data.(string)})
		case chat.ChunkDone:
			sse.Send("done", map[string]any{})
		}
	})

	if err != nil && !sentError {
		sse.Send("error", map[string]string{"error": err.Error()})
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
		return
	}
	topK, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var filter map[string]string
	if category := r.URL.Query().Get("category"); category != "" {
		filter = map[string]string{"category": category}
	}

	resp, err := s.engine.Search(r.Context(), query, topK, filter)
	if err != nil {
		http.Error(w, `{"error":"search failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// callerRole resolves the caller's role from headers. Anything other than an
// authenticated admin request is treated as a customer; the admin role
// additionally requires the configured bearer token.
func (s *Server) callerRole(r *http.Request) (chat.Caller, bool) {
	if r.Header.Get(roleHeader) != string(chat.CallerAdmin) {
		return chat.CallerCustomer, true
	}
	token, ok := bearerToken(r)
	if !ok || s.adminToken == "" {
		return chat.CallerCustomer, false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		return chat.CallerCustomer, false
	}
	return chat.CallerAdmin, true
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return "", false
	}
	return auth[len(prefix):], true
}
