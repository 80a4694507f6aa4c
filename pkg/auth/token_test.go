// ABOUTME: Tests for the on-disk token cache
// ABOUTME: Covers malformed files, permissions and atomic overwrite

package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenFile_Load(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  bool
	}{
		{"corrupted json", `{"access_token": "foo", "malformed": `, true},
		{"empty file", ``, true},
		{"not a token", `{"not": "a", "token": "structure"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.contents), 0600))

			token, err := NewTokenFile(path).Load()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, token)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, token.AccessToken)
		})
	}
}

func TestTokenFile_LoadMissing(t *testing.T) {
	_, err := NewTokenFile(filepath.Join(t.TempDir(), "nope.json")).Load()
	assert.True(t, os.IsNotExist(err))
}

func TestTokenFile_SaveWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	f := NewTokenFile(path)

	require.NoError(t, f.Save(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded oauth2.Token
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestTokenFile_SaveOverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	f := NewTokenFile(filepath.Join(dir, "token.json"))

	require.NoError(t, f.Save(&oauth2.Token{AccessToken: "first"}))
	require.NoError(t, f.Save(&oauth2.Token{AccessToken: "second"}))

	token, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token.AccessToken)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestTokenFile_SaveReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(dir, 0500))
	defer func() { _ = os.Chmod(dir, 0700) }()

	err := NewTokenFile(filepath.Join(dir, "token.json")).Save(&oauth2.Token{AccessToken: "x"})
	assert.Error(t, err)
}

func TestTokenFile_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	f := NewTokenFile(path)
	require.NoError(t, f.Save(&oauth2.Token{AccessToken: "x"}))

	require.NoError(t, f.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, f.Remove(), "removing twice is fine")
}
