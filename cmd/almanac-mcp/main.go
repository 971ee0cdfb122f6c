// cmd/almanac-mcp is the entry point for the Almanac MCP (Model Context
// Protocol) server. It exposes the calendar tools over JSON-RPC 2.0 on
// stdin/stdout so MCP clients can save, update, cancel and list events.
//
// CRITICAL: ALL logging MUST go to stderr. Any bytes written to stdout that
// are not valid JSON-RPC 2.0 response frames will corrupt the protocol.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scrypster/almanac/internal/api/tools"
	"github.com/scrypster/almanac/internal/config"
	"github.com/scrypster/almanac/internal/dispatch"
	"github.com/scrypster/almanac/internal/server"
)

func main() {
	// Redirect the default logger to stderr so that any incidental log calls
	// from imported packages never pollute the stdout JSON-RPC stream.
	log.SetOutput(os.Stderr)
	log.SetPrefix("almanac-mcp: ")
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Features.EnableMCP {
		log.Fatal("MCP server is disabled (set ALMANAC_ENABLE_MCP=true to enable)")
	}

	if cfg.Storage.Engine == "sqlite" || cfg.Storage.Engine == "" {
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
			log.Fatalf("failed to create data directory %q: %v", cfg.Storage.DataPath, err)
		}
	}

	store, err := server.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	srv := tools.NewServer(dispatch.NewExecutor(store))
	transport := tools.NewStdioTransport(srv, os.Stdin, os.Stdout)

	log.Println("ready, serving JSON-RPC 2.0 on stdin/stdout")

	if err := transport.Serve(ctx); err != nil {
		// Normal on context cancellation; otherwise a fatal stdio problem.
		log.Printf("transport stopped: %v", err)
	}
}
