// Package auth provides the credential provider used by the HTTP adapter.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// fileTokenSource reads the bearer token from disk on every call so that
// a login or logout in another process is picked up by the next request.
type fileTokenSource struct {
	path string
}

// FileTokenSource returns an oauth2.TokenSource backed by a token.json file.
// A missing file yields an empty token, which means "send no credentials".
func FileTokenSource(path string) oauth2.TokenSource {
	return &fileTokenSource{path: path}
}

// Token implements oauth2.TokenSource.
func (s *fileTokenSource) Token() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &oauth2.Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	return &token, nil
}

// Static returns a TokenSource for a fixed bearer token.
func Static(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(NewToken(accessToken))
}

// NewToken builds a bearer token.
func NewToken(accessToken string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: strings.TrimSpace(accessToken),
		TokenType:   "Bearer",
	}
}

// SaveToken saves a token to a file with mode 0600.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// HasCredentials reports whether token carries a usable access token.
func HasCredentials(token *oauth2.Token) bool {
	return token != nil && token.AccessToken != ""
}
