// Package oauth supplies per-request Strava bearer tokens backed by the
// user's persisted integration record, refreshing them against the Strava
// token endpoint when they expire.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	shared "github.com/fitsync/exporter/pkg"
	httputil "github.com/fitsync/exporter/pkg/infrastructure/http"
	"github.com/fitsync/exporter/pkg/types"
)

const tokenURL = "https://www.strava.com/oauth/token"

// Token represents the OAuth token structure we care about
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*Token, error)
	ForceRefresh(context.Context) (*Token, error)
}

// StravaTokenSource reads the user's Strava tokens from the database and
// refreshes them when they are expired or about to expire.
type StravaTokenSource struct {
	db     shared.Database
	userID string
	mu     sync.Mutex
}

func NewStravaTokenSource(db shared.Database, userID string) *StravaTokenSource {
	return &StravaTokenSource{db: db, userID: userID}
}

// Token returns a token, refreshing it if necessary.
func (s *StravaTokenSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	integration, err := s.integration(ctx)
	if err != nil {
		return nil, err
	}

	if integration.AccessToken == "" {
		return nil, fmt.Errorf("missing access token for strava")
	}
	if integration.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for strava")
	}

	// Proactive refresh: expired or expiring within the next minute.
	if !integration.ExpiresAt.IsZero() && time.Now().Add(1*time.Minute).After(integration.ExpiresAt) {
		return s.refreshToken(ctx, integration.RefreshToken)
	}

	return &Token{
		AccessToken:  integration.AccessToken,
		RefreshToken: integration.RefreshToken,
		Expiry:       integration.ExpiresAt,
	}, nil
}

// ForceRefresh forcibly refreshes the token regardless of expiry.
func (s *StravaTokenSource) ForceRefresh(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	integration, err := s.integration(ctx)
	if err != nil {
		return nil, err
	}
	if integration.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for strava")
	}
	return s.refreshToken(ctx, integration.RefreshToken)
}

func (s *StravaTokenSource) integration(ctx context.Context) (*types.StravaIntegration, error) {
	user, err := s.db.GetUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.Integrations == nil || user.Integrations.Strava == nil || !user.Integrations.Strava.Enabled {
		return nil, fmt.Errorf("strava integration not enabled for user %s", s.userID)
	}
	return user.Integrations.Strava, nil
}

// refreshToken performs the HTTP exchange for a new token and persists it.
func (s *StravaTokenSource) refreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	clientID, err := getSecret("client-id")
	if err != nil {
		return nil, err
	}
	clientSecret, err := getSecret("client-secret")
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, httputil.WrapResponseError(resp, "token refresh failed")
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	newExpiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.ExpiresAt != 0 {
		newExpiry = time.Unix(result.ExpiresAt, 0)
	}

	// Strava rotates refresh tokens; persist whichever one is current.
	newRefreshToken := result.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	updateData := map[string]interface{}{
		"integrations": map[string]interface{}{
			"strava": map[string]interface{}{
				"access_token":  result.AccessToken,
				"refresh_token": newRefreshToken,
				"expires_at":    newExpiry,
				"last_used_at":  time.Now(),
			},
		},
	}
	if err := s.db.UpdateUser(ctx, s.userID, updateData); err != nil {
		return nil, fmt.Errorf("failed to persist new tokens: %w", err)
	}

	return &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: newRefreshToken,
		Expiry:       newExpiry,
	}, nil
}

func getSecret(keyType string) (string, error) {
	// "client-id" becomes STRAVA_CLIENT_ID
	envVarName := "STRAVA_" + strings.ToUpper(strings.ReplaceAll(keyType, "-", "_"))
	value := os.Getenv(envVarName)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not found", envVarName)
	}
	return value, nil
}
