// ABOUTME: XDG-compliant default locations for credentials and tokens
// ABOUTME: Used as configuration defaults when no explicit path is set

package auth

import (
	"os"
	"path/filepath"
)

const (
	appName            = "deadline-mcp"
	defaultCredentials = "credentials.json"
	defaultToken       = "token.json"
	configSubdir       = ".config"
	dataSubdir         = ".local/share"
)

// DefaultCredentialsPath returns $XDG_CONFIG_HOME/deadline-mcp/credentials.json,
// falling back to ~/.config. A relative XDG_CONFIG_HOME is ignored.
func DefaultCredentialsPath() string {
	return xdgPath("XDG_CONFIG_HOME", configSubdir, defaultCredentials)
}

// DefaultTokenPath returns $XDG_DATA_HOME/deadline-mcp/token.json,
// falling back to ~/.local/share. A relative XDG_DATA_HOME is ignored.
func DefaultTokenPath() string {
	return xdgPath("XDG_DATA_HOME", dataSubdir, defaultToken)
}

func xdgPath(envVar, homeSubdir, file string) string {
	base := os.Getenv(envVar)
	if base == "" || !filepath.IsAbs(base) {
		home, err := os.UserHomeDir()
		if err != nil {
			return file // cwd
		}
		base = filepath.Join(home, homeSubdir)
	}
	return filepath.Clean(filepath.Join(base, appName, file))
}

// EnsureDir creates the parent directory of filePath with 0700 permissions.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0700)
}
