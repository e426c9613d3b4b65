// ABOUTME: OAuth configuration and token storage for the Gmail API transport
// ABOUTME: Keeps the token at an XDG data path and refreshes it through oauth2
package mail

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/harperreed/prospect/config"
)

const (
	// GmailSendScope lets the transport send as the user.
	GmailSendScope = "https://www.googleapis.com/auth/gmail.send"

	// GmailReadonlyScope lets reply checking search the inbox.
	GmailReadonlyScope = "https://www.googleapis.com/auth/gmail.readonly"
)

// NewOAuthConfig creates the OAuth2 config from GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET. Users bring their own Google Cloud OAuth app.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes:       []string{GmailSendScope, GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// CheckOAuthConfig reports missing client credentials.
func CheckOAuthConfig(cfg *oauth2.Config) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}
	return nil
}

// TokenPath returns the XDG path for the stored OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, config.AppName, "google-credentials.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a token previously written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}
