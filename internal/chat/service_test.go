package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
)

type capturingPublisher struct {
	jobs []models.AgentJob
}

func (p *capturingPublisher) PublishAgentJob(job models.AgentJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

func newTestService(t *testing.T) (*Service, *capturingPublisher, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	publisher := &capturingPublisher{}
	return NewService(store, store, publisher), publisher, store
}

func TestCreateAndListConversations(t *testing.T) {
	svc, _, _ := newTestService(t)

	conv, err := svc.CreateConversation("user-1", "Billing question", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "user-1", conv.UserID)

	_, err = svc.CreateConversation("user-2", "Other user", "", "")
	require.NoError(t, err)

	list, err := svc.ListConversations("user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)
}

func TestPostQuestionPublishesJob(t *testing.T) {
	svc, publisher, _ := newTestService(t)

	conv, err := svc.CreateConversation("user-1", "Help", "", "")
	require.NoError(t, err)

	msg, err := svc.PostQuestion("user-1", conv.ID, "How do I reset my password?")
	require.NoError(t, err)
	assert.Equal(t, models.MessageRoleUser, msg.Role)

	require.Len(t, publisher.jobs, 1)
	job := publisher.jobs[0]
	assert.Equal(t, conv.ID, job.ConversationID)
	assert.Equal(t, msg.ID, job.MessageID)
	assert.Equal(t, "user-1", job.UserID)
	assert.Equal(t, "How do I reset my password?", job.Question)

	messages, err := svc.ListMessages("user-1", conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
}

func TestPostQuestionOwnershipCheck(t *testing.T) {
	svc, publisher, _ := newTestService(t)

	conv, err := svc.CreateConversation("user-1", "Private", "", "")
	require.NoError(t, err)

	_, err = svc.PostQuestion("user-2", conv.ID, "sneaky")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Empty(t, publisher.jobs)
}

func TestListMessagesOwnershipCheck(t *testing.T) {
	svc, _, _ := newTestService(t)

	conv, err := svc.CreateConversation("user-1", "Private", "", "")
	require.NoError(t, err)
	_, err = svc.PostQuestion("user-1", conv.ID, "for my eyes only")
	require.NoError(t, err)

	_, err = svc.ListMessages("user-2", conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.ListMessages("user-1", "ghost-conv")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestPostQuestionUnknownConversation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PostQuestion("user-1", "ghost-conv", "hello?")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestPostQuestionWithoutPublisher(t *testing.T) {
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	svc := NewService(store, store, nil)

	conv, err := svc.CreateConversation("user-1", "Offline", "", "")
	require.NoError(t, err)

	// Without a relay the message is still stored
	msg, err := svc.PostQuestion("user-1", conv.ID, "anyone there?")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
}

func TestAddMessage(t *testing.T) {
	svc, _, _ := newTestService(t)

	conv, err := svc.CreateConversation("user-1", "Thread", "", "")
	require.NoError(t, err)

	_, err = svc.AddMessage(conv.ID, models.MessageRoleAssistant, "Here is your answer.")
	require.NoError(t, err)

	_, err = svc.AddMessage("ghost-conv", models.MessageRoleAssistant, "lost")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestPostQuestionCarriesAgentSession(t *testing.T) {
	svc, publisher, store := newTestService(t)

	conv, err := svc.CreateConversation("user-1", "Session", "", "")
	require.NoError(t, err)
	require.NoError(t, store.SetAgentSession(conv.ID, "sess-42"))

	_, err = svc.PostQuestion("user-1", conv.ID, "follow-up")
	require.NoError(t, err)

	require.Len(t, publisher.jobs, 1)
	assert.Equal(t, "sess-42", publisher.jobs[0].SessionID)
}
