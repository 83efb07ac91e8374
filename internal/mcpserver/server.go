// Package mcpserver exposes game sessions as Model Context Protocol tools so
// an agent can play through the same engine as the HTTP API.
package mcpserver

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jwebster45206/text-rpg/internal/sessions"
)

type Server struct {
	manager *sessions.Manager
	logger  *slog.Logger
	mcp     *sdk.Server
}

func NewServer(manager *sessions.Manager, version string, logger *slog.Logger) *Server {
	s := &Server{
		manager: manager,
		logger:  logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "text-rpg",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves tools over transport until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
