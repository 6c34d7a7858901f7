package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/luminariq/agentgate/cmd/gateway/handlers"
	"github.com/luminariq/agentgate/cmd/gateway/middleware"
	"github.com/luminariq/agentgate/internal/auth"
	"github.com/luminariq/agentgate/internal/chat"
	"github.com/luminariq/agentgate/internal/config"
	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
	"github.com/luminariq/agentgate/pkg/events"
)

const ServiceVersion = "v1.0.0"

func init() {
	// Load environment variables FIRST from project root or current dir
	config.LoadEnv("../../.env")
}

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		panic(fmt.Sprintf("Failed to load settings: %v", err))
	}

	store, err := storage.NewStoreFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize store: %v", err))
	}
	defer store.Close()

	codec := auth.NewTokenCodec(settings.JWTSecret, settings.JWTRefresh, settings.AccessTokenTTL, settings.RefreshTokenTTL)
	sessions := auth.NewSessionService(store, store, codec, settings.BcryptCost)
	authz := auth.NewAuthorizationService(store, store, store, store, codec)

	// The relay queue is optional: without RabbitMQ the gateway still serves
	// auth and conversation history, questions just get no agent answer.
	queue, err := chat.NewAgentQueue("")
	if err != nil {
		fmt.Printf("Warning: RabbitMQ not available, agent relay disabled: %v\n", err)
		queue = nil
	} else {
		defer queue.Close()
	}

	var publisher chat.JobPublisher
	if queue != nil {
		publisher = queue
	}
	chatSvc := chat.NewService(store, store, publisher)

	hub := events.NewHub()
	if queue != nil {
		go consumeAgentResults(queue, hub)
	}

	authHandler := handlers.NewAuthHandler(sessions, &settings)
	oauthHandler := handlers.NewOAuthHandler(authz, sessions, store, store, settings.Issuer)
	chatHandler := handlers.NewChatHandler(chatSvc, hub)
	requireAuth := middleware.RequireAuth(codec)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.HandleHealth(store.Ping))

	mux.HandleFunc("/api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("/api/auth/refresh", authHandler.HandleRefresh)
	mux.HandleFunc("/api/auth/logout", authHandler.HandleLogout)

	mux.HandleFunc("/oauth/authorize", oauthHandler.HandleAuthorize)
	mux.HandleFunc("/oauth/login-action", oauthHandler.HandleLoginAction)
	mux.HandleFunc("/oauth/token", oauthHandler.HandleToken)
	mux.HandleFunc("/oauth/register", oauthHandler.HandleRegister)
	mux.HandleFunc("/.well-known/oauth-authorization-server", oauthHandler.HandleWellKnown)

	mux.Handle("/api/conversations", requireAuth.HandlerFunc(chatHandler.HandleConversations))
	mux.Handle("/api/conversations/", requireAuth.HandlerFunc(chatHandler.HandleMessages))
	mux.Handle("/api/events", requireAuth.HandlerFunc(chatHandler.HandleEvents))

	handlerWithCors := corsMiddleware(mux, settings.CORSOrigin)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("Shutting down gateway...")
		store.Close()
		if queue != nil {
			queue.Close()
		}
		os.Exit(0)
	}()

	fmt.Printf("Starting AgentGate %s on port %d...\n", ServiceVersion, settings.Port)
	fmt.Printf("   - Auth API:   http://localhost:%d/api/auth/login\n", settings.Port)
	fmt.Printf("   - OAuth:      http://localhost:%d/oauth/authorize\n", settings.Port)
	fmt.Printf("   - Chat API:   http://localhost:%d/api/conversations\n", settings.Port)
	fmt.Printf("   - Events:     http://localhost:%d/api/events\n", settings.Port)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", settings.Port), handlerWithCors); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v", err))
	}
}

// consumeAgentResults forwards worker answers to connected SSE clients.
func consumeAgentResults(queue *chat.AgentQueue, hub *events.Hub) {
	deliveries, err := queue.ConsumeResults()
	if err != nil {
		fmt.Printf("Warning: failed to consume agent results: %v\n", err)
		return
	}
	for d := range deliveries {
		var result models.AgentResult
		if err := json.Unmarshal(d.Body, &result); err != nil {
			fmt.Printf("Agent result decode error: %v\n", err)
			_ = d.Nack(false, false)
			continue
		}
		hub.Publish(events.Event{
			Type:   "new_message",
			UserID: result.UserID,
			Payload: map[string]interface{}{
				"conversationId": result.ConversationID,
				"messageId":      result.MessageID,
				"answer":         result.Answer,
				"confidence":     result.Confidence,
			},
		})
		_ = d.Ack(false)
	}
}

func corsMiddleware(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if origin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
