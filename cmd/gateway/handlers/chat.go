package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/luminariq/agentgate/cmd/gateway/middleware"
	"github.com/luminariq/agentgate/internal/chat"
	"github.com/luminariq/agentgate/internal/validate"
	"github.com/luminariq/agentgate/pkg/events"
)

// ChatHandler serves conversations, messages and the event stream. Every
// endpoint requires verified access claims in the request context.
type ChatHandler struct {
	chat *chat.Service
	hub  *events.Hub
}

// NewChatHandler creates the chat endpoint handler.
func NewChatHandler(svc *chat.Service, hub *events.Hub) *ChatHandler {
	return &ChatHandler{chat: svc, hub: hub}
}

// HandleConversations lists or creates conversations for the caller.
func (h *ChatHandler) HandleConversations(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		conversations, err := h.chat.ListConversations(claims.Subject)
		if err != nil {
			fmt.Printf("List conversations error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Failed to list conversations")
			return
		}
		writeSuccess(w, http.StatusOK, "", map[string]interface{}{
			"conversations": conversations,
		})

	case http.MethodPost:
		var payload struct {
			Title       string `json:"title"`
			GroupID     string `json:"groupId"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}

		conversation, err := h.chat.CreateConversation(claims.Subject,
			validate.SanitizeInput(payload.Title), payload.GroupID,
			validate.SanitizeInput(payload.Description))
		if err != nil {
			fmt.Printf("Create conversation error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Failed to create conversation")
			return
		}
		writeSuccess(w, http.StatusCreated, "", map[string]interface{}{
			"conversation": conversation,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMessages routes /api/conversations/{id}/messages.
func (h *ChatHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// Expected format: /api/conversations/{id}/messages
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[3] != "messages" {
		http.Error(w, "Invalid path", http.StatusNotFound)
		return
	}
	conversationID := parts[2]

	switch r.Method {
	case http.MethodGet:
		messages, err := h.chat.ListMessages(claims.Subject, conversationID)
		if err != nil {
			if errors.Is(err, chat.ErrConversationNotFound) {
				writeError(w, http.StatusNotFound, "Conversation not found")
				return
			}
			fmt.Printf("List messages error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Failed to list messages")
			return
		}
		writeSuccess(w, http.StatusOK, "", map[string]interface{}{
			"messages": messages,
		})

	case http.MethodPost:
		var payload struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		if strings.TrimSpace(payload.Content) == "" {
			writeError(w, http.StatusBadRequest, "Message content is required")
			return
		}

		message, err := h.chat.PostQuestion(claims.Subject, conversationID, payload.Content)
		if err != nil {
			if errors.Is(err, chat.ErrConversationNotFound) {
				writeError(w, http.StatusNotFound, "Conversation not found")
				return
			}
			fmt.Printf("Post message error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Failed to post message")
			return
		}
		writeSuccess(w, http.StatusAccepted, "", map[string]interface{}{
			"message": message,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleEvents streams per-user events over SSE. The middleware accepts the
// token from the query string here since EventSource cannot set headers.
func (h *ChatHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	h.hub.ServeSSE(w, r, claims.Subject)
}

// HandleHealth reports process liveness and backing-store reachability.
func HandleHealth(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{"status": status})
	}
}
