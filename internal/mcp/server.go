// ABOUTME: MCP server exposing the diary to AI agents over stdio.
// ABOUTME: Provides tools, resources, and prompts for entry management.

package mcp

import (
	"context"

	"github.com/harper/diary/internal/diary"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type Server struct {
	server *mcp.Server
	app    *diary.App
	logger *zap.Logger
}

func NewServer(app *diary.App, version string) *Server {
	s := &Server{app: app, logger: app.Logger.Named("mcp")}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "diary",
			Version: version,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
			HasPrompts:   true,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving over stdio", zap.String("engine", s.app.Backend.Engine()))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
