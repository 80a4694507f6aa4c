// ABOUTME: Auth management tool handlers
// ABOUTME: OAuth init/complete/revoke; completing sign-in loads calendars and refreshes

package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// extractAuthCode extracts the authorization code from a URL or returns the input as-is.
// Handles Google's redirect URL format: http://localhost/?code=4/0AfJohX...&scope=...
func extractAuthCode(codeOrURL string) string {
	if strings.HasPrefix(codeOrURL, "http://") || strings.HasPrefix(codeOrURL, "https://") {
		if u, err := url.Parse(codeOrURL); err == nil {
			if code := u.Query().Get("code"); code != "" {
				return code
			}
		}
	}
	return codeOrURL
}

// AuthStatusResponse is the response for auth_status tool
type AuthStatusResponse struct {
	Valid     bool   `json:"valid"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

func (s *Server) handleAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.dash.Connected() {
		return mcp.NewToolResultJSON(AuthStatusResponse{
			Valid:   false,
			Message: "not signed in - use auth_init to start authentication",
		})
	}

	// Listing calendars is the cheapest call that proves the token works
	if _, err := s.dash.ReloadCalendars(ctx); err != nil {
		return mcp.NewToolResultJSON(AuthStatusResponse{
			Valid:     false,
			Connected: true,
			Message:   fmt.Sprintf("auth check failed: %v", err),
		})
	}

	msg := "authentication is valid"
	if s.cfg.ISHMode {
		msg = "ISH mode - auth is simulated"
	}
	return mcp.NewToolResultJSON(AuthStatusResponse{
		Valid:     true,
		Connected: true,
		Message:   msg,
	})
}

// AuthInfoResponse is the response for auth_info tool
type AuthInfoResponse struct {
	Valid       bool   `json:"valid"`
	AccessToken string `json:"access_token,omitempty"`
	Expiry      string `json:"expiry,omitempty"`
	ExpiresIn   string `json:"expires_in,omitempty"`
	HasRefresh  bool   `json:"has_refresh"`
	Message     string `json:"message,omitempty"`
}

func (s *Server) handleAuthInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg.ISHMode {
		return mcp.NewToolResultJSON(AuthInfoResponse{
			Valid:      true,
			HasRefresh: true,
			Message:    "ISH mode - token info is simulated",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthInfoResponse{
			Valid:   false,
			Message: "authenticator not initialized",
		})
	}

	info, err := s.auth.TokenInfo()
	if err != nil {
		return mcp.NewToolResultJSON(AuthInfoResponse{
			Valid:   false,
			Message: fmt.Sprintf("failed to get token info: %v", err),
		})
	}

	resp := AuthInfoResponse{
		Valid:       info.Valid,
		AccessToken: info.AccessToken,
		HasRefresh:  info.HasRefresh,
	}
	if !info.Expiry.IsZero() {
		resp.Expiry = info.Expiry.Format(time.RFC3339)
		resp.ExpiresIn = info.ExpiresIn.Round(time.Second).String()
	}

	return mcp.NewToolResultJSON(resp)
}

// AuthInitResponse is the response for auth_init tool
type AuthInitResponse struct {
	Status  string `json:"status"`
	AuthURL string `json:"auth_url,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleAuthInit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg.ISHMode {
		return mcp.NewToolResultJSON(AuthInitResponse{
			Status:  "valid",
			Message: "ISH mode - auth is simulated, no action needed",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthInitResponse{
			Status:  "error",
			Message: "authenticator not initialized",
		})
	}

	if !request.GetBool("force", false) {
		info, err := s.auth.TokenInfo()
		if err == nil && info.Valid {
			return mcp.NewToolResultJSON(AuthInitResponse{
				Status:  "valid",
				Message: "current authentication is valid - use force=true to re-authenticate",
			})
		}
	}

	return mcp.NewToolResultJSON(AuthInitResponse{
		Status:  "auth_required",
		AuthURL: s.auth.AuthURL(),
		Message: "visit the auth_url in a browser and authorize the app. After authorizing, copy the FULL URL from your browser (it will look like http://localhost/?code=...) and provide it to auth_complete",
	})
}

// AuthCompleteResponse is the response for auth_complete tool
type AuthCompleteResponse struct {
	Success   bool   `json:"success"`
	Calendars int    `json:"calendars"`
	Message   string `json:"message"`
}

func (s *Server) handleAuthComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg.ISHMode {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: true,
			Message: "ISH mode - auth completion simulated",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: false,
			Message: "authenticator not initialized",
		})
	}

	codeOrURL, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.auth.ExchangeCode(ctx, extractAuthCode(codeOrURL)); err != nil {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	client, err := s.auth.GetClientIfAuthenticated(ctx)
	if err != nil || client == nil {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: false,
			Message: fmt.Sprintf("token saved but could not be loaded: %v", err),
		})
	}

	// New token: load calendars and refresh with the current selection
	if err := s.connect(ctx, client); err != nil {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: false,
			Message: fmt.Sprintf("token saved but loading calendars failed: %v", err),
		})
	}

	cals, _ := s.dash.Calendars()
	return mcp.NewToolResultJSON(AuthCompleteResponse{
		Success:   true,
		Calendars: len(cals),
		Message:   "authentication completed successfully - token saved and calendars loaded",
	})
}

// AuthRevokeResponse is the response for auth_revoke tool
type AuthRevokeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleAuthRevoke(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg.ISHMode {
		return mcp.NewToolResultJSON(AuthRevokeResponse{
			Success: true,
			Message: "ISH mode - auth revocation simulated",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthRevokeResponse{
			Success: false,
			Message: "authenticator not initialized",
		})
	}

	if err := s.auth.RevokeToken(); err != nil {
		return mcp.NewToolResultJSON(AuthRevokeResponse{
			Success: false,
			Message: fmt.Sprintf("failed to revoke token: %v", err),
		})
	}
	s.dash.Disconnect()

	return mcp.NewToolResultJSON(AuthRevokeResponse{
		Success: true,
		Message: "token revoked - use auth_init to start new authentication flow",
	})
}
