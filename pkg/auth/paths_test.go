// ABOUTME: Tests for XDG-compliant path resolution
// ABOUTME: Covers XDG vars, relative-path rejection and home fallbacks

package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	tests := []struct {
		name       string
		envVar     string
		value      string
		get        func() string
		wantExact  string
		wantSuffix string
	}{
		{
			name:      "credentials under XDG_CONFIG_HOME",
			envVar:    "XDG_CONFIG_HOME",
			value:     "/tmp/xdg-config",
			get:       DefaultCredentialsPath,
			wantExact: "/tmp/xdg-config/deadline-mcp/credentials.json",
		},
		{
			name:       "credentials fall back to ~/.config",
			envVar:     "XDG_CONFIG_HOME",
			value:      "",
			get:        DefaultCredentialsPath,
			wantSuffix: filepath.Join(".config", "deadline-mcp", "credentials.json"),
		},
		{
			name:       "relative XDG_CONFIG_HOME is ignored",
			envVar:     "XDG_CONFIG_HOME",
			value:      "relative/dir",
			get:        DefaultCredentialsPath,
			wantSuffix: filepath.Join(".config", "deadline-mcp", "credentials.json"),
		},
		{
			name:      "token under XDG_DATA_HOME",
			envVar:    "XDG_DATA_HOME",
			value:     "/tmp/xdg-data",
			get:       DefaultTokenPath,
			wantExact: "/tmp/xdg-data/deadline-mcp/token.json",
		},
		{
			name:       "token falls back to ~/.local/share",
			envVar:     "XDG_DATA_HOME",
			value:      "",
			get:        DefaultTokenPath,
			wantSuffix: filepath.Join(".local", "share", "deadline-mcp", "token.json"),
		},
		{
			name:      "trailing separators are cleaned",
			envVar:    "XDG_DATA_HOME",
			value:     "/tmp/xdg-data//",
			get:       DefaultTokenPath,
			wantExact: "/tmp/xdg-data/deadline-mcp/token.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			got := tt.get()
			if tt.wantExact != "" && got != tt.wantExact {
				t.Errorf("got %q, want %q", got, tt.wantExact)
			}
			if tt.wantSuffix != "" {
				if !strings.HasSuffix(got, tt.wantSuffix) {
					t.Errorf("got %q, want suffix %q", got, tt.wantSuffix)
				}
				if !filepath.IsAbs(got) {
					t.Errorf("got relative path %q", got)
				}
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "token.json")

	if err := EnsureDir(target); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("permissions = %o, want 0700", perm)
	}

	// idempotent
	if err := EnsureDir(target); err != nil {
		t.Errorf("second EnsureDir() error = %v", err)
	}
}
