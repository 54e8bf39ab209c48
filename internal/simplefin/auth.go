package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/plaid-ask/internal/common"
)

// AuthState is the saved result of claiming a setup token.
type AuthState struct {
	ClaimedAt  time.Time `json:"claimed_at"`
	AccessURL  string    `json:"access_url"`
	ClaimToken string    `json:"claim_token_hint"`
}

// DefaultStatePath is where a claimed access URL is kept.
func DefaultStatePath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "plaid-ask", "simplefin_auth.json"), nil
}

// LoadOrClaim returns the saved access URL, or claims token and saves the
// result. A setup token can only be claimed once, so the state file must be
// kept.
func LoadOrClaim(ctx context.Context, httpClient *http.Client, token, statePath string) (*AuthState, error) {
	if statePath == "" {
		var err error
		if statePath, err = DefaultStatePath(); err != nil {
			return nil, fmt.Errorf("failed to get state file path: %w", err)
		}
	}

	state, err := loadAuthState(statePath)
	switch {
	case err == nil && state.AccessURL != "":
		slog.Info("Using saved SimpleFIN access URL",
			"claimed_at", state.ClaimedAt.Format("2006-01-02"),
			"state_file", statePath)
		return state, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", statePath, err)
	}

	slog.Info("No saved SimpleFIN access URL, claiming setup token")
	accessURL, err := claimToken(ctx, httpClient, token)
	if err != nil {
		return nil, fmt.Errorf("failed to claim token: %w", err)
	}

	state = &AuthState{
		AccessURL:  accessURL,
		ClaimedAt:  time.Now().UTC(),
		ClaimToken: tokenHint(token),
	}
	if err := saveAuthState(statePath, state); err != nil {
		return nil, fmt.Errorf("failed to save auth state: %w", err)
	}

	slog.Info("Claimed and saved SimpleFIN access URL", "state_file", statePath)
	return state, nil
}

// claimToken exchanges a base64 setup token for an access URL.
func claimToken(ctx context.Context, httpClient *http.Client, token string) (string, error) {
	token = strings.TrimSpace(token)
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return "", fmt.Errorf("%w: setup token is not base64: %w", common.ErrInvalidConfig, err)
		}
	}

	claimURL := string(decoded)
	if _, err := parseHTTPURL(claimURL); err != nil {
		return "", fmt.Errorf("%w: setup token: %w", common.ErrInvalidConfig, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: claim request failed: %w", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read access URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: claim failed: %d - %s",
			common.ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	accessURL := strings.TrimSpace(string(body))
	if _, err := parseHTTPURL(accessURL); err != nil {
		return "", fmt.Errorf("invalid access URL received: %w", err)
	}
	return accessURL, nil
}

func loadAuthState(path string) (*AuthState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func saveAuthState(path string, state *AuthState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// tokenHint keeps enough of a token to recognise it later.
func tokenHint(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-8:]
	}
	return "short_token"
}
