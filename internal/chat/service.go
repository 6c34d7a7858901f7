// Package chat implements conversation and message CRUD plus the async
// hand-off of user questions to the agent relay queue.
package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
)

// ErrConversationNotFound is returned when a conversation id does not exist
// or belongs to another user.
var ErrConversationNotFound = errors.New("conversation not found")

// JobPublisher hands agent jobs to the relay queue. Failures are surfaced to
// the caller, never dropped silently.
type JobPublisher interface {
	PublishAgentJob(job models.AgentJob) error
}

// Service is the chat CRUD layer on top of the store.
type Service struct {
	conversations storage.ConversationStore
	messages      storage.MessageStore
	publisher     JobPublisher
}

// NewService wires the chat service. publisher may be nil when the relay
// worker is not deployed; questions are then stored without an async answer.
func NewService(conversations storage.ConversationStore, messages storage.MessageStore, publisher JobPublisher) *Service {
	return &Service{conversations: conversations, messages: messages, publisher: publisher}
}

// CreateConversation creates a conversation owned by userID.
func (s *Service) CreateConversation(userID, title, groupID, description string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:          uuid.New().String(),
		UserID:      userID,
		GroupID:     groupID,
		Title:       title,
		Description: description,
	}
	if err := s.conversations.CreateConversation(conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns userID's conversations, newest first.
func (s *Service) ListConversations(userID string) ([]models.Conversation, error) {
	return s.conversations.ListConversations(userID)
}

// AddMessage appends a message to a conversation.
func (s *Service) AddMessage(conversationID, role, content string) (*models.Message, error) {
	if _, err := s.conversations.GetConversation(conversationID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("looking up conversation: %w", err)
	}
	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := s.messages.CreateMessage(msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages, oldest first. The
// conversation must belong to userID.
func (s *Service) ListMessages(userID, conversationID string) ([]models.Message, error) {
	conv, err := s.conversations.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("looking up conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return s.messages.ListMessages(conversationID)
}

// PostQuestion stores the user's message and enqueues an agent job. The
// assistant reply arrives asynchronously through the relay worker.
func (s *Service) PostQuestion(userID, conversationID, question string) (*models.Message, error) {
	conv, err := s.conversations.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("looking up conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrConversationNotFound
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           models.MessageRoleUser,
		Content:        question,
	}
	if err := s.messages.CreateMessage(msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if s.publisher != nil {
		job := models.AgentJob{
			ConversationID: conversationID,
			MessageID:      msg.ID,
			UserID:         userID,
			Question:       question,
			SessionID:      conv.AgentSessionID,
		}
		if err := s.publisher.PublishAgentJob(job); err != nil {
			return nil, fmt.Errorf("enqueueing agent job: %w", err)
		}
	}
	return msg, nil
}
