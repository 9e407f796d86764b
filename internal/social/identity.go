// Package social verifies third-party identity proofs (Google ID tokens and
// Facebook access tokens) and returns the identity they vouch for.
package social

import (
	"context"
	"fmt"
	"net/http"
)

// Identity is the verified profile returned by a provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier verifies a Google ID token issued for the configured client.
type GoogleVerifier interface {
	VerifyGoogle(ctx context.Context, idToken, email string) (*Identity, error)
}

// FacebookVerifier exchanges a Facebook access token for the user's profile.
type FacebookVerifier interface {
	VerifyFacebook(ctx context.Context, accessToken, userID string) (*Identity, error)
}

type transportErrorKey struct{}

// recordingTransport stores the last transport failure or 5xx answer of a
// call in the slot placed on the request context, so callers can tell an
// unavailable provider apart from a rejected credential.
type recordingTransport struct {
	base http.RoundTripper
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	slot, ok := req.Context().Value(transportErrorKey{}).(*error)
	if !ok {
		return resp, err
	}
	switch {
	case err != nil:
		*slot = err
	case resp.StatusCode >= http.StatusInternalServerError:
		*slot = fmt.Errorf("%s returned status %d", req.URL.Host, resp.StatusCode)
	}
	return resp, err
}

func newHTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &http.Client{
		Transport: &recordingTransport{base: rt},
		Timeout:   base.Timeout,
	}
}

func withTransportErrorSlot(ctx context.Context) (context.Context, *error) {
	var slot error
	return context.WithValue(ctx, transportErrorKey{}, &slot), &slot
}
