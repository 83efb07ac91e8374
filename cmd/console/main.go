package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/text-rpg/internal/config"
	"github.com/jwebster45206/text-rpg/internal/logger"
)

const logFile = "console.log"

func main() {
	cfg := config.Load()

	// The TUI owns stdout, so logs go to a file.
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()
	log := logger.SetupWriter(cfg, f)

	client := newAPIClient(cfg.APIBaseURL, &http.Client{Timeout: 60 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ok := client.testConnection(ctx)
	cancel()
	if !ok {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s. Please ensure the API is running.\nTry: docker-compose up -d\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	ui := NewConsoleUI(client, log)
	p := tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if m, ok := final.(ConsoleUI); ok && m.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.endSession(ctx, m.status.SessionID); err != nil {
			log.Warn("Failed to end session", "error", err)
		}
	}
}
