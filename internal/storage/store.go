package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/luminariq/agentgate/internal/models"
)

// ErrNotFound is returned when a record does not exist. Postgres and file
// stores both normalize their miss conditions to this.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert collides with an existing record
// on a unique column (email or username).
var ErrDuplicate = errors.New("duplicate record")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	UpdateLastLogin(id string, at time.Time) error
	UpdateUserStatus(id, status string) error
}

// RefreshTokenStore persists refresh tokens so they can be revoked before
// natural expiry.
type RefreshTokenStore interface {
	SaveRefreshToken(token *models.RefreshToken) error
	GetRefreshToken(token string) (*models.RefreshToken, error)
	DeleteRefreshToken(token string) error
	RevokeRefreshToken(token string, at time.Time) error
}

// AuthCodeStore persists authorization codes. MarkCodeUsed is conditional:
// it reports false when the code was already consumed, which closes the
// concurrent double-exchange race.
type AuthCodeStore interface {
	SaveAuthCode(code *models.AuthorizationCode) error
	GetAuthCode(code, clientID string) (*models.AuthorizationCode, error)
	MarkCodeUsed(code string) (bool, error)
}

// ClientStore persists OAuth client registrations.
type ClientStore interface {
	SaveClient(client *models.OAuthClient) error
	GetClient(clientID string) (*models.OAuthClient, error)
}

// AuthorizeRequestStore holds pending /oauth/authorize requests between the
// authorize and login steps. Backed by Redis when configured, Postgres
// otherwise.
type AuthorizeRequestStore interface {
	SaveAuthorizeRequest(req *models.AuthorizeRequest) error
	GetAuthorizeRequest(requestID string) (*models.AuthorizeRequest, error)
	DeleteAuthorizeRequest(requestID string) error
}

// ConversationStore persists conversations.
type ConversationStore interface {
	CreateConversation(conv *models.Conversation) error
	GetConversation(id string) (*models.Conversation, error)
	ListConversations(userID string) ([]models.Conversation, error)
	SetAgentSession(conversationID, sessionID string) error
}

// MessageStore persists messages within conversations.
type MessageStore interface {
	CreateMessage(msg *models.Message) error
	ListMessages(conversationID string) ([]models.Message, error)
}

// Store is the full persistence surface of the gateway.
type Store interface {
	UserStore
	RefreshTokenStore
	AuthCodeStore
	ClientStore
	AuthorizeRequestStore
	ConversationStore
	MessageStore
	Ping() error
	Close() error
}

// NewStoreFromEnv selects the backend from the environment: Postgres when
// DATABASE_URL is set, otherwise a JSON file store for local development.
func NewStoreFromEnv() (Store, error) {
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		return NewPostgresStore(connString)
	}

	filePath := os.Getenv("STORE_FILE_PATH")
	if filePath == "" {
		filePath = "gateway-store.json"
	}
	fmt.Printf("Note: DATABASE_URL not set, using file store at %s\n", filePath)
	return NewFileStore(filePath)
}
