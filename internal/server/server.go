// Package server provides HTTP server initialization and lifecycle management
// for the Almanac API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/scrypster/almanac/internal/classifier"
	"github.com/scrypster/almanac/internal/config"
	"github.com/scrypster/almanac/internal/dispatch"
	"github.com/scrypster/almanac/internal/llm"
	"github.com/scrypster/almanac/internal/services"
	"github.com/scrypster/almanac/internal/storage"
	"github.com/scrypster/almanac/internal/storage/postgres"
	"github.com/scrypster/almanac/internal/storage/sqlite"
	"github.com/scrypster/almanac/web/handlers"
)

// NewStore opens the event store named by the configuration.
func NewStore(cfg *config.Config) (storage.EventStore, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		return postgres.NewEventStore(cfg.Storage.PostgresDSN)
	case "sqlite", "":
		return sqlite.NewEventStore(filepath.Join(cfg.Storage.DataPath, "almanac.db"))
	default:
		return nil, fmt.Errorf("unsupported storage engine: %q", cfg.Storage.Engine)
	}
}

// NewClassifier builds the command classifier from the configured LLM
// provider. Provider construction failures degrade to keyword-only
// classification rather than preventing startup.
func NewClassifier(cfg *config.Config) *classifier.Classifier {
	generator, err := llm.NewTextGenerator(llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   providerAPIKey(cfg),
		Model:    providerModel(cfg),
		BaseURL:  providerBaseURL(cfg),
		Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Printf("server: LLM provider unavailable, using keyword classification: %v", err)
		return classifier.New(nil)
	}
	log.Printf("server: classifying with %s model %s", cfg.LLM.Provider, generator.GetModel())
	return classifier.New(generator)
}

func providerAPIKey(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAIAPIKey
	case "anthropic":
		return cfg.LLM.AnthropicAPIKey
	}
	return ""
}

func providerModel(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAIModel
	case "anthropic":
		return cfg.LLM.AnthropicModel
	}
	return cfg.LLM.OllamaModel
}

func providerBaseURL(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAIBaseURL
	}
	return cfg.LLM.OllamaURL
}

// Start initializes and starts the HTTP server. Returns the actual address
// being listened on (useful for testing with port 0) and the WebSocketHub
// for wiring mutation broadcasts. Shutdown is driven by ctx cancellation.
func Start(ctx context.Context, cfg *config.Config, store storage.EventStore, c *classifier.Classifier) (string, *handlers.WebSocketHub, error) {
	mux := http.NewServeMux()

	var wsHub *handlers.WebSocketHub
	if cfg.Features.EnableWebSocket {
		wsHub = handlers.NewWebSocketHub(allowedOrigins(cfg))
		go wsHub.Run()
	}

	rateLimiter := handlers.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	executor := dispatch.NewExecutor(store)
	router := dispatch.NewRouter(executor)
	calendarService := services.NewCalendarService(store)

	eventHandlers := handlers.NewEventHandlers(calendarService, wsHub)
	nlHandlers := handlers.NewNaturalLanguageHandlers(c, router, wsHub)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	if cfg.Features.EnableREST {
		apiMux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				eventHandlers.List(w, r)
			case http.MethodPost:
				eventHandlers.Create(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		apiMux.HandleFunc("/api/events/{id}", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				eventHandlers.Get(w, r)
			case http.MethodPatch, http.MethodPut:
				eventHandlers.Update(w, r)
			case http.MethodDelete:
				eventHandlers.Delete(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
	}
	apiMux.HandleFunc("/api/naturallanguage/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			nlHandlers.Process(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Health endpoint, no auth required
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"1.0.0","classifier":%q}`, c.Model())
	})

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint, origin validation handles access control
	if wsHub != nil {
		mux.Handle("/ws", wsHub)
	}

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = handlers.SecurityHeaders(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		if wsHub != nil {
			wsHub.Stop()
		}
	}()

	return actualAddr, wsHub, nil
}

// allowedOrigins lists the origins accepted for WebSocket upgrades, derived
// from the configured listen address.
func allowedOrigins(cfg *config.Config) []string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		return nil
	}
	return []string{
		fmt.Sprintf("http://%s:%d", host, cfg.Server.Port),
		fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	}
}
