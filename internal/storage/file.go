package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/luminariq/agentgate/internal/models"
)

// fileData is the on-disk layout of the file store.
type fileData struct {
	Users             map[string]*models.User              `json:"users"`
	RefreshTokens     map[string]*models.RefreshToken      `json:"refreshTokens"`
	AuthCodes         map[string]*models.AuthorizationCode `json:"authCodes"`
	Clients           map[string]*models.OAuthClient       `json:"clients"`
	AuthorizeRequests map[string]*models.AuthorizeRequest  `json:"authorizeRequests"`
	Conversations     map[string]*models.Conversation      `json:"conversations"`
	Messages          map[string]*models.Message           `json:"messages"`
}

// FileStore keeps everything in a JSON file guarded by a RWMutex. Meant for
// local development and tests, not production traffic.
type FileStore struct {
	filePath string
	mu       sync.RWMutex
	data     fileData
}

// NewFileStore loads (or creates) the backing file.
func NewFileStore(filePath string) (*FileStore, error) {
	store := &FileStore{filePath: filePath}
	store.data = fileData{
		Users:             make(map[string]*models.User),
		RefreshTokens:     make(map[string]*models.RefreshToken),
		AuthCodes:         make(map[string]*models.AuthorizationCode),
		Clients:           make(map[string]*models.OAuthClient),
		AuthorizeRequests: make(map[string]*models.AuthorizeRequest),
		Conversations:     make(map[string]*models.Conversation),
		Messages:          make(map[string]*models.Message),
	}
	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load store file: %w", err)
	}
	return store, nil
}

func (s *FileStore) load() error {
	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &s.data)
}

// persist writes the store back to disk. Callers hold the write lock.
func (s *FileStore) persist() error {
	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, raw, 0600)
}

// Ping always succeeds for the file store.
func (s *FileStore) Ping() error { return nil }

// Close flushes the file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// CreateUser inserts a user, enforcing email and username uniqueness.
func (s *FileStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.Users {
		if existing.Email == user.Email {
			return fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
		}
		if existing.Username == user.Username {
			return fmt.Errorf("%w: username %s", ErrDuplicate, user.Username)
		}
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	cp := *user
	s.data.Users[user.ID] = &cp
	return s.persist()
}

// GetUserByID fetches a user by id.
func (s *FileStore) GetUserByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByEmail fetches a user by email.
func (s *FileStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data.Users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByUsername fetches a user by username.
func (s *FileStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data.Users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateLastLogin records a successful login.
func (s *FileStore) UpdateLastLogin(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.data.Users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLogin = &at
	user.UpdatedAt = at
	return s.persist()
}

// UpdateUserStatus changes the account status.
func (s *FileStore) UpdateUserStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.data.Users[id]
	if !ok {
		return ErrNotFound
	}
	user.Status = status
	user.UpdatedAt = time.Now()
	return s.persist()
}

// SaveRefreshToken persists a refresh token record.
func (s *FileStore) SaveRefreshToken(token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	cp := *token
	s.data.RefreshTokens[token.Token] = &cp
	return s.persist()
}

// GetRefreshToken fetches a refresh token record. Records past expiry behave
// as deleted, mirroring storage-level TTL.
func (s *FileStore) GetRefreshToken(tokenStr string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.data.RefreshTokens[tokenStr]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *token
	return &cp, nil
}

// DeleteRefreshToken removes a refresh token record; missing rows are fine.
func (s *FileStore) DeleteRefreshToken(tokenStr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.RefreshTokens, tokenStr)
	return s.persist()
}

// RevokeRefreshToken marks a refresh token revoked.
func (s *FileStore) RevokeRefreshToken(tokenStr string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.data.RefreshTokens[tokenStr]
	if !ok {
		return ErrNotFound
	}
	token.RevokedAt = &at
	return s.persist()
}

// SaveAuthCode persists an authorization code.
func (s *FileStore) SaveAuthCode(code *models.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	cp := *code
	s.data.AuthCodes[code.Code] = &cp
	return s.persist()
}

// GetAuthCode fetches an unused, unexpired code issued to the given client.
func (s *FileStore) GetAuthCode(codeStr, clientID string) (*models.AuthorizationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.data.AuthCodes[codeStr]
	if !ok || code.ClientID != clientID || code.Used || time.Now().After(code.ExpiresAt) {
		return nil, ErrNotFound
	}
	cp := *code
	return &cp, nil
}

// MarkCodeUsed flips the one-time-use flag under the write lock, so of two
// concurrent exchanges only one gets true.
func (s *FileStore) MarkCodeUsed(codeStr string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.data.AuthCodes[codeStr]
	if !ok || code.Used {
		return false, nil
	}
	code.Used = true
	return true, s.persist()
}

// SaveClient upserts an OAuth client registration.
func (s *FileStore) SaveClient(client *models.OAuthClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	cp := *client
	s.data.Clients[client.ClientID] = &cp
	return s.persist()
}

// GetClient fetches an OAuth client by id.
func (s *FileStore) GetClient(clientID string) (*models.OAuthClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.data.Clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *client
	return &cp, nil
}

// SaveAuthorizeRequest stores a pending authorize request.
func (s *FileStore) SaveAuthorizeRequest(req *models.AuthorizeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.data.AuthorizeRequests[req.RequestID] = &cp
	return s.persist()
}

// GetAuthorizeRequest retrieves a pending authorize request.
func (s *FileStore) GetAuthorizeRequest(requestID string) (*models.AuthorizeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.data.AuthorizeRequests[requestID]
	if !ok || time.Now().After(req.ExpiresAt) {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

// DeleteAuthorizeRequest removes a pending authorize request.
func (s *FileStore) DeleteAuthorizeRequest(requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.AuthorizeRequests, requestID)
	return s.persist()
}

// CreateConversation inserts a conversation.
func (s *FileStore) CreateConversation(conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	cp := *conv
	s.data.Conversations[conv.ID] = &cp
	return s.persist()
}

// GetConversation fetches a conversation by id.
func (s *FileStore) GetConversation(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.data.Conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

// ListConversations returns a user's conversations, newest first.
func (s *FileStore) ListConversations(userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var convs []models.Conversation
	for _, conv := range s.data.Conversations {
		if conv.UserID == userID {
			convs = append(convs, *conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs, nil
}

// SetAgentSession attaches an agent session id to a conversation.
func (s *FileStore) SetAgentSession(conversationID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.data.Conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.AgentSessionID = sessionID
	conv.UpdatedAt = time.Now()
	return s.persist()
}

// CreateMessage inserts a message.
func (s *FileStore) CreateMessage(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	s.data.Messages[msg.ID] = &cp
	return s.persist()
}

// ListMessages returns a conversation's messages, oldest first.
func (s *FileStore) ListMessages(conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var msgs []models.Message
	for _, msg := range s.data.Messages {
		if msg.ConversationID == conversationID {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}
