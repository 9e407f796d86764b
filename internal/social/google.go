package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/metrics"
)

const (
	// GoogleIssuer is the issuer of Google ID tokens.
	GoogleIssuer = "https://accounts.google.com"
	// GoogleKeysURL serves Google's token signing keys.
	GoogleKeysURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleConfig configures a Google ID token verifier.
type GoogleConfig struct {
	ClientID   string
	Issuer     string
	KeysURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Google verifies ID tokens against Google's published keys.
type Google struct {
	verifier *rp.IDTokenVerifier
	breaker  *gobreaker.CircuitBreaker[*Identity]
	timeout  time.Duration
}

var _ GoogleVerifier = (*Google)(nil)

// NewGoogle creates a verifier for tokens issued to cfg.ClientID.
func NewGoogle(cfg GoogleConfig, rec metrics.Recorder) *Google {
	if cfg.Issuer == "" {
		cfg.Issuer = GoogleIssuer
	}
	if cfg.KeysURL == "" {
		cfg.KeysURL = GoogleKeysURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	keySet := rp.NewRemoteKeySet(newHTTPClient(cfg.HTTPClient), cfg.KeysURL)
	return &Google{
		verifier: rp.NewIDTokenVerifier(cfg.Issuer, cfg.ClientID, keySet),
		breaker:  newBreaker("google", rec),
		timeout:  cfg.Timeout,
	}
}

// VerifyGoogle checks the token's signature, issuer, audience and expiry and
// that its email matches the claimed one. A rejected token yields
// ErrFailGoogleAuth; an unreachable key endpoint yields a dependency error.
func (g *Google) VerifyGoogle(ctx context.Context, idToken, email string) (*Identity, error) {
	return execute(g.breaker, "google", func() (*Identity, error) {
		return g.verify(ctx, idToken, email)
	})
}

func (g *Google) verify(ctx context.Context, idToken, email string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx, transportErr := withTransportErrorSlot(ctx)

	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, idToken, g.verifier)
	if err != nil {
		if *transportErr != nil || ctx.Err() != nil {
			return nil, apperrors.Dependency("google", err)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailGoogleAuth, err)
	}
	if claims.Email == "" || !strings.EqualFold(claims.Email, email) {
		return nil, fmt.Errorf("%w: email mismatch", apperrors.ErrFailGoogleAuth)
	}

	return &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
