package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jwebster45206/text-rpg/internal/config"
	"github.com/jwebster45206/text-rpg/internal/logger"
	"github.com/jwebster45206/text-rpg/internal/mcpserver"
	"github.com/jwebster45206/text-rpg/internal/sessions"
)

var version = "dev"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Stdout carries the protocol, so logs go to stderr.
	log := logger.SetupWriter(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager, cleanup, err := sessions.Setup(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize game services", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	log.Info("Starting MCP server over stdio", "llm_provider", manager.Provider())
	server := mcpserver.NewServer(manager, version, log)
	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error("MCP server stopped", "error", err)
		cleanup()
		os.Exit(1)
	}
}
