// Package agent wraps the external conversational agent HTTP API.
package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/luminariq/agentgate/internal/models"
)

// Shared HTTP client with connection pooling
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client calls the external agent API.
type Client struct {
	queryURL   string
	httpClient *http.Client
}

// NewClient creates an agent client for the given query endpoint. A zero
// timeout uses the shared pooled client.
func NewClient(queryURL string, timeout time.Duration) *Client {
	client := sharedHTTPClient
	if timeout > 0 && timeout != sharedHTTPClient.Timeout {
		client = &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPClient.Transport,
		}
	}
	return &Client{queryURL: queryURL, httpClient: client}
}

// NewClientFromEnv reads AGENT_API_URL, defaulting to the local agent.
func NewClientFromEnv(timeout time.Duration) *Client {
	queryURL := os.Getenv("AGENT_API_URL")
	if queryURL == "" {
		queryURL = "http://localhost:8001/api/v1/agent/query"
	}
	return NewClient(queryURL, timeout)
}

// Query sends a question to the agent inside an existing session.
func (c *Client) Query(question, sessionID string) (*models.AgentAnswer, error) {
	payload := map[string]string{
		"question":   question,
		"session_id": sessionID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.queryURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("agent API responded with status %d: %s", resp.StatusCode, string(raw))
	}

	var answer models.AgentAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}
	return &answer, nil
}

// CreateSession asks the agent API for a fresh session id.
func (c *Client) CreateSession() (string, error) {
	sessionURL := strings.Replace(c.queryURL, "/query", "/session/create", 1)

	resp, err := c.httpClient.Post(sessionURL, "application/json", strings.NewReader("{}"))
	if err != nil {
		return "", fmt.Errorf("failed to reach agent API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("agent session create failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	return payload.SessionID, nil
}
