// ABOUTME: On-disk OAuth token cache with atomic replacement
// ABOUTME: Tokens are written 0600 through a temp file and rename

package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenFile is a JSON-encoded oauth2.Token at a fixed path.
type TokenFile struct {
	path string
}

// NewTokenFile returns a cache at path. Nothing is read until Load.
func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Path returns the cache location.
func (f *TokenFile) Path() string {
	return f.path
}

// Load reads the cached token. A missing file satisfies os.IsNotExist.
func (f *TokenFile) Load() (token *oauth2.Token, err error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	token = &oauth2.Token{}
	if err := json.NewDecoder(fh).Decode(token); err != nil {
		return nil, fmt.Errorf("unable to decode token: %w", err)
	}
	return token, nil
}

// Save replaces the cached token atomically.
func (f *TokenFile) Save(token *oauth2.Token) error {
	if err := EnsureDir(f.path); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := json.NewEncoder(tmp).Encode(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Remove deletes the cached token. A missing file is not an error.
func (f *TokenFile) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
