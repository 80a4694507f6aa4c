// ABOUTME: MCP server implementation
// ABOUTME: Exposes the deadline dashboard as MCP tools, resources and prompts

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/auth"
	gcal "github.com/harper/deadline-mcp/pkg/calendar"
	"github.com/harper/deadline-mcp/pkg/config"
	"github.com/harper/deadline-mcp/pkg/dashboard"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	serverName    = "deadline-mcp"
	serverVersion = "1.0.0"
)

// Server is the MCP server over one user's dashboard
type Server struct {
	cfg      *config.Config
	dash     *dashboard.Dashboard
	mcp      *server.MCPServer
	auth     *auth.Authenticator // nil in ish mode
	logger   *zap.Logger
	endpoint string // Calendar API base URL, empty for Google
}

// Options configures NewServer
type Options struct {
	Config    *config.Config
	Dashboard *dashboard.Dashboard
	Logger    *zap.Logger
	// Endpoint overrides the Calendar API base URL. In ish mode it defaults
	// to the configured ish_base_url.
	Endpoint string
}

// NewServer creates a new MCP server. A cached token or ish mode signs the
// dashboard in immediately; otherwise tools report auth_missing until
// auth_complete succeeds.
func NewServer(ctx context.Context, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      opts.Config,
		dash:     opts.Dashboard,
		logger:   logger,
		endpoint: opts.Endpoint,
	}
	if s.endpoint == "" && s.cfg.ISHMode {
		s.endpoint = s.cfg.ISHBaseURL
	}

	var client *http.Client
	if s.cfg.ISHMode {
		client = auth.NewFakeClient(s.cfg.ISHUser)
	} else {
		authenticator, err := auth.NewAuthenticator(s.cfg.CredentialsPath, s.cfg.TokenPath)
		if err != nil {
			return nil, err
		}
		s.auth = authenticator

		// Non-interactive: a missing token leaves the dashboard signed out.
		client, err = authenticator.GetClientIfAuthenticated(ctx)
		if err != nil {
			return nil, err
		}
	}

	if client != nil {
		if err := s.connect(ctx, client); err != nil {
			// The server still starts; calendar tools surface the error.
			logger.Warn("initial calendar sign-in failed", zap.Error(err))
		}
	}

	s.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
	)
	s.registerTools()
	s.registerPrompts()
	s.registerResources()

	return s, nil
}

// connect builds a Calendar client over httpClient and signs the dashboard in.
func (s *Server) connect(ctx context.Context, httpClient *http.Client) error {
	remote, err := gcal.NewService(ctx, httpClient, s.endpoint)
	if err != nil {
		return fmt.Errorf("failed to create Calendar service: %w", err)
	}

	if _, err := s.dash.Connect(ctx, remote); err != nil {
		return err
	}
	s.logger.Info("signed in to calendar")
	return nil
}

// toolError renders err for a tool caller, prefixed with its kind when known.
func toolError(err error) *mcp.CallToolResult {
	if kind := apperr.KindOf(err); kind != "" {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
	}
	return mcp.NewToolResultError(err.Error())
}

// ListTools returns all registered tools
func (s *Server) ListTools() []mcp.Tool {
	serverTools := s.mcp.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, st := range serverTools {
		tools = append(tools, st.Tool)
	}
	return tools
}

// MCP exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve starts the MCP server with stdio transport
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}
