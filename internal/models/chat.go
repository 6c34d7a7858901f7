package models

import "time"

// Message roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// Conversation groups messages owned by a single user.
type Conversation struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	GroupID        string    `json:"groupId,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	AgentSessionID string    `json:"agentSessionId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Message is a single entry in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AgentJob is the payload published to the agent relay queue when a user
// message needs an assistant answer.
type AgentJob struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	UserID         string `json:"user_id"`
	Question       string `json:"question"`
	SessionID      string `json:"session_id,omitempty"`
}

// AgentResult is published by the relay worker once an answer is stored, so
// the gateway can notify connected clients.
type AgentResult struct {
	ConversationID string  `json:"conversation_id"`
	MessageID      string  `json:"message_id"`
	UserID         string  `json:"user_id"`
	Answer         string  `json:"answer"`
	Confidence     float64 `json:"confidence"`
}

// AgentSource is one retrieval source cited by the agent.
type AgentSource struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AgentAnswer is the agent API response payload.
type AgentAnswer struct {
	Answer     string        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Sources    []AgentSource `json:"sources"`
}
