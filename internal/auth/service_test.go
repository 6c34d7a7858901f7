package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
)

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	return store
}

func newTestSessionService(t *testing.T) (*SessionService, *storage.FileStore) {
	store := newTestStore(t)
	codec := newTestCodec()
	return NewSessionService(store, store, codec, 4), store
}

func registerTestUser(t *testing.T, svc *SessionService) *models.User {
	t.Helper()
	user, err := svc.Register(RegisterInput{
		Email:    "alice@example.com",
		Password: "Passw0rdOk",
		FullName: "Alice Example",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	svc, _ := newTestSessionService(t)

	user := registerTestUser(t, svc)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.NotEqual(t, "Passw0rdOk", user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestSessionService(t)
	registerTestUser(t, svc)

	_, err := svc.Register(RegisterInput{
		Email:    "alice@example.com",
		Password: "OtherPass1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// blindUserStore never sees existing users on lookup, so the duplicate is
// only caught by the insert itself, as happens when two registrations race.
type blindUserStore struct {
	*storage.FileStore
}

func (s blindUserStore) GetUserByEmail(string) (*models.User, error) {
	return nil, storage.ErrNotFound
}

func TestRegisterDuplicateEmailRace(t *testing.T) {
	store := newTestStore(t)
	svc := NewSessionService(blindUserStore{store}, store, newTestCodec(), 4)

	registerTestUser(t, svc)
	_, err := svc.Register(RegisterInput{
		Email:    "alice@example.com",
		Password: "OtherPass1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, store := newTestSessionService(t)
	registerTestUser(t, svc)

	result, err := svc.Login("alice@example.com", "Passw0rdOk")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotNil(t, result.User.LastLogin)

	// The refresh token is persisted so it can be revoked
	record, err := store.GetRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, record.UserID)
	assert.Equal(t, WebClientID, record.ClientID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestSessionService(t)
	registerTestUser(t, svc)

	_, err := svc.Login("alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestSessionService(t)

	// Same error as a wrong password, no account probing
	_, err := svc.Login("nobody@example.com", "Passw0rdOk")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSuspendedAccount(t *testing.T) {
	svc, store := newTestSessionService(t)
	user := registerTestUser(t, svc)

	require.NoError(t, store.UpdateUserStatus(user.ID, models.StatusSuspended))

	_, err := svc.Login("alice@example.com", "Passw0rdOk")
	assert.ErrorIs(t, err, ErrAccountNotActive)
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestSessionService(t)
	registerTestUser(t, svc)

	result, err := svc.Login("alice@example.com", "Passw0rdOk")
	require.NoError(t, err)

	access, err := svc.Refresh(result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	// Refresh tokens are not rotated; the same token keeps working
	again, err := svc.Refresh(result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, again)
}

func TestRefreshEmptyToken(t *testing.T) {
	svc, _ := newTestSessionService(t)

	_, err := svc.Refresh("")
	assert.ErrorIs(t, err, ErrTokenRequired)
}

func TestRefreshGarbageToken(t *testing.T) {
	svc, _ := newTestSessionService(t)

	_, err := svc.Refresh("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshUnknownButValidSignature(t *testing.T) {
	svc, _ := newTestSessionService(t)

	// Signed with the right secret but never persisted: the store decides.
	token, _, err := newTestCodec().MintRefreshToken("ghost-user")
	require.NoError(t, err)

	_, err = svc.Refresh(token)
	assert.ErrorIs(t, err, ErrTokenExpiredOrRevoked)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, _ := newTestSessionService(t)
	registerTestUser(t, svc)

	result, err := svc.Login("alice@example.com", "Passw0rdOk")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(result.RefreshToken))

	_, err = svc.Refresh(result.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpiredOrRevoked)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _ := newTestSessionService(t)

	assert.NoError(t, svc.Logout(""))
	assert.NoError(t, svc.Logout("never-seen-token"))
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestSessionService(t)
	user := registerTestUser(t, svc)

	got, err := svc.Authenticate("alice@example.com", "Passw0rdOk")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate("alice@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
