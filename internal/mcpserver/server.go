package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/logger"
)

// SubmitFactory returns the submit function for one wizard session.
type SubmitFactory func(flow flows.Flow, session string) form.SubmitFunc

// Server exposes a single wizard session as MCP tools so an agent can fill
// in a form the same way a person does in the TUI.
type Server struct {
	flow    flows.Flow
	factory SubmitFactory

	mu         sync.Mutex
	wizard     *form.Wizard
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	stdServer  *http.Server
	port       int
}

// New creates a server with a fresh wizard session for flow.
// The server is not started until Start() is called.
func New(flow flows.Flow, factory SubmitFactory) (*Server, error) {
	w, err := flow.New()
	if err != nil {
		return nil, err
	}
	return &Server{flow: flow, factory: factory, wizard: w}, nil
}

// Wizard returns the current wizard session.
func (s *Server) Wizard() *form.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard
}

// reset replaces the wizard with a fresh session.
func (s *Server) reset() (*form.Wizard, error) {
	w, err := s.flow.New()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.wizard = w
	s.mu.Unlock()
	return w, nil
}

// Start starts the MCP HTTP server on 127.0.0.1. A zero port picks a random
// available one. Returns the bound port.
func (s *Server) Start(ctx context.Context, port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"caibook-"+s.flow.Name,
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to listen: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	// Pass the listener directly to avoid a TOCTOU race on the port.
	mux := http.NewServeMux()
	mcpHandler := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)
	mux.Handle("/mcp", mcpHandler)

	s.stdServer = &http.Server{Handler: mux}
	s.httpServer = mcpHandler

	logger.Debug("Starting MCP server for %s on port %d", s.flow.Name, s.port)

	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	return s.port, nil
}

// Stop stops the MCP HTTP server and cleans up resources.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}

	if err := s.stdServer.Shutdown(context.Background()); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.stdServer = nil
	s.mcpServer = nil
	logger.Debug("MCP server stopped")
	return nil
}

// URL returns the HTTP URL for the MCP server endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
