package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/metrics"
)

// DefaultFacebookGraphURL is the Graph API base used when none is configured.
const DefaultFacebookGraphURL = "https://graph.facebook.com/v12.0"

// FacebookConfig configures the Graph API client.
type FacebookConfig struct {
	GraphURL   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Facebook looks up profiles on the Graph API with the user's access token.
type Facebook struct {
	graphURL string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*Identity]
	timeout  time.Duration
}

var _ FacebookVerifier = (*Facebook)(nil)

type facebookProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// NewFacebook creates a Graph API verifier.
func NewFacebook(cfg FacebookConfig, rec metrics.Recorder) *Facebook {
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultFacebookGraphURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Facebook{
		graphURL: strings.TrimRight(cfg.GraphURL, "/"),
		client:   newHTTPClient(cfg.HTTPClient),
		breaker:  newBreaker("facebook", rec),
		timeout:  cfg.Timeout,
	}
}

// VerifyFacebook fetches /{userID} with fields email,name,picture. A token
// the Graph API rejects, or a profile without email, yields
// ErrFailFacebookAuth; an unreachable or failing Graph API yields a
// dependency error.
func (f *Facebook) VerifyFacebook(ctx context.Context, accessToken, userID string) (*Identity, error) {
	if accessToken == "" || userID == "" {
		return nil, fmt.Errorf("%w: missing token or user id", apperrors.ErrFailFacebookAuth)
	}
	return execute(f.breaker, "facebook", func() (*Identity, error) {
		return f.fetchProfile(ctx, accessToken, userID)
	})
}

func (f *Facebook) fetchProfile(ctx context.Context, accessToken, userID string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	endpoint := fmt.Sprintf("%s/%s/?%s", f.graphURL, url.PathEscape(userID), url.Values{
		"fields": {"email,name,picture"},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Dependency("facebook", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, apperrors.Dependency("facebook", fmt.Errorf("graph api returned status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: graph api returned status %d", apperrors.ErrFailFacebookAuth, resp.StatusCode)
	}

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", apperrors.ErrFailFacebookAuth, err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", apperrors.ErrFailFacebookAuth)
	}

	return &Identity{
		Subject: profile.ID,
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture.Data.URL,
	}, nil
}
