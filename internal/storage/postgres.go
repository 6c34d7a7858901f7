package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/luminariq/agentgate/internal/models"
)

// PostgresStore persists all gateway records in Postgres. When REDIS_URL is
// set, pending authorize requests are kept in Redis with native TTL instead.
type PostgresStore struct {
	db      *sql.DB
	redis   *redis.Client
	stopCh  chan struct{}
	stopped chan struct{}
}

// NewPostgresStore opens the database, initializes the schema and starts the
// expiry sweeper.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(parseEnvInt("DB_MAX_OPEN_CONNS", 25))
	db.SetMaxIdleConns(parseEnvInt("DB_MAX_IDLE_CONNS", 5))
	db.SetConnMaxLifetime(parseEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute))

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{
		db:      db,
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		store.redis = redis.NewClient(opts)
		if err := store.redis.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}

	go store.sweepExpired(parseEnvDuration("STORE_SWEEP_INTERVAL", time.Minute))
	return store, nil
}

// Close stops the sweeper and closes connections.
func (s *PostgresStore) Close() error {
	close(s.stopCh)
	<-s.stopped
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return s.db.Close()
}

// Ping verifies database and Redis connectivity.
func (s *PostgresStore) Ping() error {
	if err := s.db.Ping(); err != nil {
		return err
	}
	if s.redis != nil {
		return s.redis.Ping(context.Background()).Err()
	}
	return nil
}

// sweepExpired periodically deletes rows past their expiry, standing in for
// storage-level TTL. Authorization codes survive until expiry even when used.
func (s *PostgresStore) sweepExpired(interval time.Duration) {
	defer close(s.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			if _, err := s.db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < $1`, now); err != nil {
				fmt.Printf("store sweep: refresh_tokens: %v\n", err)
			}
			if _, err := s.db.Exec(`DELETE FROM authorization_codes WHERE expires_at < $1`, now); err != nil {
				fmt.Printf("store sweep: authorization_codes: %v\n", err)
			}
			if _, err := s.db.Exec(`DELETE FROM authorize_requests WHERE expires_at < $1`, now); err != nil {
				fmt.Printf("store sweep: authorize_requests: %v\n", err)
			}
		}
	}
}

// CreateUser inserts a user. A unique violation on email or username is
// normalized to ErrDuplicate so a concurrent duplicate registration does
// not surface as an internal error.
func (s *PostgresStore) CreateUser(user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO users
			(id, username, email, full_name, password_hash, role, scopes, status, preferred_language, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err := s.db.Exec(
		query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.Role,
		pq.Array(user.Scopes),
		user.Status,
		user.PreferredLanguage,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, user.Email)
	}
	return err
}

const userColumns = `id, username, email, full_name, password_hash, role, scopes, status, preferred_language, last_login, created_at, updated_at`

func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var scopes []string
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Role,
		pq.Array(&scopes),
		&user.Status,
		&user.PreferredLanguage,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Scopes = scopes
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// GetUserByID fetches a user by id.
func (s *PostgresStore) GetUserByID(id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail fetches a user by email.
func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByUsername fetches a user by username.
func (s *PostgresStore) GetUserByUsername(username string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// UpdateLastLogin records a successful login.
func (s *PostgresStore) UpdateLastLogin(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET last_login = $1, updated_at = $1 WHERE id = $2`, at, id)
	return err
}

// UpdateUserStatus changes the account status.
func (s *PostgresStore) UpdateUserStatus(id, status string) error {
	res, err := s.db.Exec(`UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRefreshToken persists a refresh token record.
func (s *PostgresStore) SaveRefreshToken(token *models.RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO refresh_tokens (token, user_id, client_id, scope, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	_, err := s.db.Exec(query, token.Token, token.UserID, token.ClientID, pq.Array(token.Scope), token.ExpiresAt, token.CreatedAt)
	return err
}

// GetRefreshToken fetches a refresh token record by its opaque string.
func (s *PostgresStore) GetRefreshToken(tokenStr string) (*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, client_id, scope, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	var token models.RefreshToken
	var scope []string
	var revokedAt sql.NullTime
	err := s.db.QueryRow(query, tokenStr).Scan(
		&token.Token,
		&token.UserID,
		&token.ClientID,
		pq.Array(&scope),
		&token.ExpiresAt,
		&revokedAt,
		&token.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	token.Scope = scope
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	return &token, nil
}

// DeleteRefreshToken removes a refresh token record. Missing rows are not an
// error; logout is idempotent.
func (s *PostgresStore) DeleteRefreshToken(tokenStr string) error {
	_, err := s.db.Exec(`DELETE FROM refresh_tokens WHERE token = $1`, tokenStr)
	return err
}

// RevokeRefreshToken marks a refresh token revoked.
func (s *PostgresStore) RevokeRefreshToken(tokenStr string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE refresh_tokens SET revoked_at = $1 WHERE token = $2`, at, tokenStr)
	return err
}

// SaveAuthCode persists an authorization code.
func (s *PostgresStore) SaveAuthCode(code *models.AuthorizationCode) error {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO authorization_codes
			(code, user_id, client_id, redirect_uri, scope, code_challenge, code_challenge_method, state, used, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err := s.db.Exec(
		query,
		code.Code,
		code.UserID,
		code.ClientID,
		code.RedirectURI,
		pq.Array(code.Scope),
		code.CodeChallenge,
		code.CodeChallengeMethod,
		code.State,
		code.Used,
		code.ExpiresAt,
		code.CreatedAt,
	)
	return err
}

// GetAuthCode fetches an unused, unexpired code issued to the given client.
func (s *PostgresStore) GetAuthCode(codeStr, clientID string) (*models.AuthorizationCode, error) {
	query := `
		SELECT code, user_id, client_id, redirect_uri, scope, code_challenge, code_challenge_method, state, used, expires_at, created_at
		FROM authorization_codes
		WHERE code = $1 AND client_id = $2 AND used = FALSE AND expires_at > $3
	`
	var code models.AuthorizationCode
	var scope []string
	err := s.db.QueryRow(query, codeStr, clientID, time.Now()).Scan(
		&code.Code,
		&code.UserID,
		&code.ClientID,
		&code.RedirectURI,
		pq.Array(&scope),
		&code.CodeChallenge,
		&code.CodeChallengeMethod,
		&code.State,
		&code.Used,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	code.Scope = scope
	return &code, nil
}

// MarkCodeUsed flips the one-time-use flag. The WHERE used = FALSE guard
// makes consumption atomic: of two concurrent exchanges only one sees
// RowsAffected == 1.
func (s *PostgresStore) MarkCodeUsed(codeStr string) (bool, error) {
	res, err := s.db.Exec(`UPDATE authorization_codes SET used = TRUE WHERE code = $1 AND used = FALSE`, codeStr)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SaveClient upserts an OAuth client registration.
func (s *PostgresStore) SaveClient(client *models.OAuthClient) error {
	now := time.Now()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now

	query := `
		INSERT INTO oauth_clients
			(client_id, client_secret_hash, client_name, redirect_uris, allowed_scopes, grant_types, public, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (client_id)
		DO UPDATE SET
			client_secret_hash = EXCLUDED.client_secret_hash,
			client_name = EXCLUDED.client_name,
			redirect_uris = EXCLUDED.redirect_uris,
			allowed_scopes = EXCLUDED.allowed_scopes,
			grant_types = EXCLUDED.grant_types,
			public = EXCLUDED.public,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.Exec(
		query,
		client.ClientID,
		client.ClientSecretHash,
		client.ClientName,
		pq.Array(client.RedirectURIs),
		pq.Array(client.AllowedScopes),
		pq.Array(client.GrantTypes),
		client.Public,
		client.CreatedAt,
		client.UpdatedAt,
	)
	return err
}

// GetClient fetches an OAuth client by id.
func (s *PostgresStore) GetClient(clientID string) (*models.OAuthClient, error) {
	query := `
		SELECT client_id, client_secret_hash, client_name, redirect_uris, allowed_scopes, grant_types, public, created_at, updated_at
		FROM oauth_clients
		WHERE client_id = $1
	`
	var client models.OAuthClient
	var redirectURIs, allowedScopes, grantTypes []string
	err := s.db.QueryRow(query, clientID).Scan(
		&client.ClientID,
		&client.ClientSecretHash,
		&client.ClientName,
		pq.Array(&redirectURIs),
		pq.Array(&allowedScopes),
		pq.Array(&grantTypes),
		&client.Public,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	client.RedirectURIs = redirectURIs
	client.AllowedScopes = allowedScopes
	client.GrantTypes = grantTypes
	return &client, nil
}

// SaveAuthorizeRequest stores a pending authorize request in Redis or Postgres.
func (s *PostgresStore) SaveAuthorizeRequest(req *models.AuthorizeRequest) error {
	if s.redis != nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("oauth:req:%s", req.RequestID)
		return s.redis.Set(context.Background(), key, payload, time.Until(req.ExpiresAt)).Err()
	}

	query := `
		INSERT INTO authorize_requests
			(request_id, client_id, redirect_uri, scope, state, code_challenge, code_challenge_method, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err := s.db.Exec(
		query,
		req.RequestID,
		req.ClientID,
		req.RedirectURI,
		req.Scope,
		req.State,
		req.CodeChallenge,
		req.CodeChallengeMethod,
		req.CreatedAt,
		req.ExpiresAt,
	)
	return err
}

// GetAuthorizeRequest retrieves a pending authorize request.
func (s *PostgresStore) GetAuthorizeRequest(requestID string) (*models.AuthorizeRequest, error) {
	if s.redis != nil {
		key := fmt.Sprintf("oauth:req:%s", requestID)
		val, err := s.redis.Get(context.Background(), key).Result()
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		var req models.AuthorizeRequest
		if err := json.Unmarshal([]byte(val), &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	query := `
		SELECT request_id, client_id, redirect_uri, scope, state, code_challenge, code_challenge_method, created_at, expires_at
		FROM authorize_requests
		WHERE request_id = $1 AND expires_at > $2
	`
	var req models.AuthorizeRequest
	err := s.db.QueryRow(query, requestID, time.Now()).Scan(
		&req.RequestID,
		&req.ClientID,
		&req.RedirectURI,
		&req.Scope,
		&req.State,
		&req.CodeChallenge,
		&req.CodeChallengeMethod,
		&req.CreatedAt,
		&req.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteAuthorizeRequest removes a pending authorize request.
func (s *PostgresStore) DeleteAuthorizeRequest(requestID string) error {
	if s.redis != nil {
		key := fmt.Sprintf("oauth:req:%s", requestID)
		return s.redis.Del(context.Background(), key).Err()
	}
	_, err := s.db.Exec(`DELETE FROM authorize_requests WHERE request_id = $1`, requestID)
	return err
}

// CreateConversation inserts a conversation.
func (s *PostgresStore) CreateConversation(conv *models.Conversation) error {
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	query := `
		INSERT INTO conversations (id, user_id, group_id, title, description, agent_session_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := s.db.Exec(query, conv.ID, conv.UserID, conv.GroupID, conv.Title, conv.Description, conv.AgentSessionID, conv.CreatedAt, conv.UpdatedAt)
	return err
}

// GetConversation fetches a conversation by id.
func (s *PostgresStore) GetConversation(id string) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, group_id, title, description, agent_session_id, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	var conv models.Conversation
	err := s.db.QueryRow(query, id).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.GroupID,
		&conv.Title,
		&conv.Description,
		&conv.AgentSessionID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns a user's conversations, newest first.
func (s *PostgresStore) ListConversations(userID string) ([]models.Conversation, error) {
	query := `
		SELECT id, user_id, group_id, title, description, agent_session_id, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.GroupID,
			&conv.Title,
			&conv.Description,
			&conv.AgentSessionID,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// SetAgentSession attaches an agent session id to a conversation.
func (s *PostgresStore) SetAgentSession(conversationID, sessionID string) error {
	_, err := s.db.Exec(`UPDATE conversations SET agent_session_id = $1, updated_at = $2 WHERE id = $3`, sessionID, time.Now(), conversationID)
	return err
}

// CreateMessage inserts a message.
func (s *PostgresStore) CreateMessage(msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`
	_, err := s.db.Exec(query, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// ListMessages returns a conversation's messages, oldest first.
func (s *PostgresStore) ListMessages(conversationID string) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (s *PostgresStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		scopes TEXT[] NOT NULL DEFAULT '{}',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		preferred_language VARCHAR(10) NOT NULL DEFAULT 'en',
		last_login TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token TEXT PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		client_id VARCHAR(255) NOT NULL,
		scope TEXT[] NOT NULL DEFAULT '{}',
		expires_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS authorization_codes (
		code TEXT PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		client_id VARCHAR(255) NOT NULL,
		redirect_uri TEXT NOT NULL,
		scope TEXT[] NOT NULL DEFAULT '{}',
		code_challenge TEXT NOT NULL DEFAULT '',
		code_challenge_method VARCHAR(10) NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		used BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS oauth_clients (
		client_id VARCHAR(255) PRIMARY KEY,
		client_secret_hash TEXT NOT NULL DEFAULT '',
		client_name VARCHAR(255) NOT NULL,
		redirect_uris TEXT[] NOT NULL,
		allowed_scopes TEXT[] NOT NULL DEFAULT '{}',
		grant_types TEXT[] NOT NULL DEFAULT '{}',
		public BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS authorize_requests (
		request_id VARCHAR(64) PRIMARY KEY,
		client_id VARCHAR(255) NOT NULL,
		redirect_uri TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		code_challenge TEXT NOT NULL DEFAULT '',
		code_challenge_method VARCHAR(10) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		group_id VARCHAR(64) NOT NULL DEFAULT '',
		title VARCHAR(500) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		agent_session_id VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(64) PRIMARY KEY,
		conversation_id VARCHAR(64) NOT NULL,
		role VARCHAR(20) NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);
	CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON refresh_tokens(expires_at);
	CREATE INDEX IF NOT EXISTS idx_authorization_codes_expires ON authorization_codes(expires_at);
	CREATE INDEX IF NOT EXISTS idx_authorize_requests_expires ON authorize_requests(expires_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	`
	_, err := s.db.Exec(query)
	return err
}

func parseEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
