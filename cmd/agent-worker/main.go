package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/yaml.v3"

	"github.com/luminariq/agentgate/internal/agent"
	"github.com/luminariq/agentgate/internal/chat"
	"github.com/luminariq/agentgate/internal/config"
	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
)

const ServiceVersion = "v1.0.0"

type AppConfig struct {
	Agent struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"agent"`
}

func init() {
	// Load environment variables FIRST from project root
	config.LoadEnv("../../.env")
}

func main() {
	// Load custom config for timeout
	var appConfig AppConfig
	if configData, err := os.ReadFile("config.yaml"); err == nil {
		yaml.Unmarshal(configData, &appConfig)
	}
	timeout := 30 * time.Second
	if appConfig.Agent.Timeout != "" {
		if d, err := time.ParseDuration(appConfig.Agent.Timeout); err == nil {
			timeout = d
		}
	}

	store, err := storage.NewStoreFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize store: %v", err))
	}
	defer store.Close()

	client := agent.NewClientFromEnv(timeout)

	queue, err := chat.NewAgentQueue("")
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}
	defer queue.Close()

	worker := &Worker{
		store:  store,
		chat:   chat.NewService(store, store, nil),
		client: client,
		queue:  queue,
	}

	deliveries, err := queue.ConsumeJobs()
	if err != nil {
		panic(fmt.Sprintf("Failed to consume jobs: %v", err))
	}

	fmt.Printf("Starting agent worker %s...\n", ServiceVersion)
	for d := range deliveries {
		worker.Handle(d)
	}
}

// Worker relays queued questions to the agent API and stores the answers.
type Worker struct {
	store  storage.Store
	chat   *chat.Service
	client *agent.Client
	queue  *chat.AgentQueue
}

// Handle processes one job delivery. Decode failures are dropped; transient
// failures are requeued once via the redelivered flag.
func (w *Worker) Handle(d amqp.Delivery) {
	var job models.AgentJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		fmt.Printf("Job decode error: %v\n", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.process(job); err != nil {
		fmt.Printf("Job %s failed: %v\n", job.MessageID, err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}

func (w *Worker) process(job models.AgentJob) error {
	sessionID := job.SessionID
	if sessionID == "" {
		created, err := w.client.CreateSession()
		if err != nil {
			return fmt.Errorf("creating agent session: %w", err)
		}
		sessionID = created
		if err := w.store.SetAgentSession(job.ConversationID, sessionID); err != nil {
			return fmt.Errorf("saving agent session: %w", err)
		}
	}

	answer, err := w.client.Query(job.Question, sessionID)
	if err != nil {
		return fmt.Errorf("querying agent: %w", err)
	}

	message, err := w.chat.AddMessage(job.ConversationID, models.MessageRoleAssistant, answer.Answer)
	if err != nil {
		return fmt.Errorf("storing answer: %w", err)
	}

	return w.queue.PublishAgentResult(models.AgentResult{
		ConversationID: job.ConversationID,
		MessageID:      message.ID,
		UserID:         job.UserID,
		Answer:         answer.Answer,
		Confidence:     answer.Confidence,
	})
}
