package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"imtapp/internal/auth"
	apperrors "imtapp/internal/errors"
	"imtapp/internal/logger"
	"imtapp/internal/metrics"
	"imtapp/internal/model"
	"imtapp/internal/repository"
	"imtapp/internal/social"
)

const (
	minPasswordLength = 8
	// decoyPassword is hashed once and checked against when an email is
	// unknown, so a failed login costs one bcrypt comparison either way.
	decoyPassword = "imt-decoy-password"
)

// Session is an issued access token together with the identity it carries.
type Session struct {
	auth.Principal
	AccessToken string
	ExpiresAt   int64
}

// GoogleLogin carries the proof a Google client sends after sign-in.
type GoogleLogin struct {
	IDToken  string
	Email    string
	ExpireAt time.Time
}

// FacebookLogin carries the proof a Facebook client sends after sign-in.
type FacebookLogin struct {
	AccessToken string
	UserID      string
	ExpireAt    time.Time
}

// AuthService handles the session lifecycle.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	LoginGoogle(ctx context.Context, in GoogleLogin) (*Session, error)
	LoginFacebook(ctx context.Context, in FacebookLogin) (*Session, error)
	Refresh(ctx context.Context, p auth.Principal) (*Session, error)
	AccessToken(ctx context.Context, p auth.Principal) (*Session, error)
	Logout(ctx context.Context, p auth.Principal, token string, expiresAt time.Time) error
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthDeps groups the collaborators of the auth service.
type AuthDeps struct {
	Users    repository.UserRepository
	Tokens   *auth.JWTService
	Revoked  auth.TokenStoreInterface
	Hasher   auth.PasswordHasher
	Google   social.GoogleVerifier
	Facebook social.FacebookVerifier
	Metrics  metrics.Recorder
	Lifetime time.Duration
}

type authService struct {
	users    repository.UserRepository
	tokens   *auth.JWTService
	revoked  auth.TokenStoreInterface
	hasher   auth.PasswordHasher
	google   social.GoogleVerifier
	facebook social.FacebookVerifier
	metrics  metrics.Recorder
	validate *validator.Validate
	lifetime time.Duration
	now      func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(deps AuthDeps) AuthService {
	lifetime := deps.Lifetime
	if lifetime <= 0 {
		lifetime = auth.DefaultAccessTokenExpiry
	}
	return &authService{
		users:    deps.Users,
		tokens:   deps.Tokens,
		revoked:  deps.Revoked,
		hasher:   deps.Hasher,
		google:   deps.Google,
		facebook: deps.Facebook,
		metrics:  deps.Metrics,
		validate: validator.New(),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// SignUp registers a password user and opens a session.
func (s *authService) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil || len(password) < minPasswordLength {
		s.recordAuth(model.ProviderApp, apperrors.ErrInvalidCredential)
		return nil, apperrors.ErrInvalidCredential
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.RegisterWithPassword(ctx, email, hash)
	if err != nil {
		s.recordAuth(model.ProviderApp, err)
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return s.issue(model.ProviderApp, principalOf(user))
}

// Login checks a password. Unknown emails and wrong passwords fail alike.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	hash, err := s.users.FetchPasswordHash(ctx, email)
	if err != nil {
		return nil, err
	}
	valid := false
	if hash == "" {
		s.hasher.Verify(password, s.decoy())
	} else {
		valid = s.hasher.Verify(password, hash)
	}
	if !valid {
		s.recordAuth(model.ProviderApp, apperrors.ErrInvalidEmailOrPassword)
		return nil, apperrors.ErrInvalidEmailOrPassword
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrInvalidEmailOrPassword
	}
	if err != nil {
		return nil, err
	}
	return s.issue(model.ProviderApp, principalOf(user))
}

func (s *authService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(decoyPassword)
		if err != nil {
			logger.Ctx(context.Background()).Warn().Err(err).Msg("failed to hash decoy password")
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// LoginGoogle verifies a Google ID token and opens a session for its email.
func (s *authService) LoginGoogle(ctx context.Context, in GoogleLogin) (*Session, error) {
	identity, err := s.google.VerifyGoogle(ctx, in.IDToken, in.Email)
	if err != nil {
		s.recordAuth(model.ProviderGoogle, err)
		return nil, err
	}
	return s.socialLogin(ctx, identity.Email, in.IDToken, in.ExpireAt, model.ProviderGoogle)
}

// LoginFacebook exchanges a Facebook access token for the user's profile and
// opens a session for the profile's email.
func (s *authService) LoginFacebook(ctx context.Context, in FacebookLogin) (*Session, error) {
	identity, err := s.facebook.VerifyFacebook(ctx, in.AccessToken, in.UserID)
	if err != nil {
		s.recordAuth(model.ProviderFacebook, err)
		return nil, err
	}
	return s.socialLogin(ctx, identity.Email, in.AccessToken, in.ExpireAt, model.ProviderFacebook)
}

func (s *authService) socialLogin(ctx context.Context, email, token string, expireAt time.Time, provider model.Provider) (*Session, error) {
	user, err := s.users.UpsertSocialUser(ctx, email, token, expireAt, provider)
	if err != nil {
		s.recordAuth(provider, err)
		return nil, err
	}
	return s.issue(provider, principalOf(user))
}

// Refresh reissues the principal's token with a fresh expiry. Social sessions
// additionally need a live stored provider token. The previous token stays
// valid until it expires.
func (s *authService) Refresh(ctx context.Context, p auth.Principal) (*Session, error) {
	if p.Provider.IsSocial() {
		token, err := s.users.FetchSocialToken(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		if token == "" {
			s.recordAuth(p.Provider, apperrors.ErrInvalidSocialToken)
			return nil, apperrors.ErrInvalidSocialToken
		}
	}
	return s.issue(p.Provider, p)
}

// AccessToken is served by the same path as Refresh.
func (s *authService) AccessToken(ctx context.Context, p auth.Principal) (*Session, error) {
	return s.Refresh(ctx, p)
}

// Logout revokes token for the rest of its lifetime and, for social
// sessions, forgets the stored provider token.
func (s *authService) Logout(ctx context.Context, p auth.Principal, token string, expiresAt time.Time) error {
	if err := s.revoked.MarkInvalid(ctx, token, expiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if p.Provider.IsSocial() {
		if err := s.users.ClearSocialToken(ctx, p.Email); err != nil {
			return fmt.Errorf("clear social token: %w", err)
		}
	}
	logger.Ctx(ctx).Info().Str("user_id", p.ID).Msg("user logged out")
	return nil
}

// Authenticate accepts a token that decodes and has not been revoked.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsInvalid(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

func (s *authService) issue(provider model.Provider, p auth.Principal) (*Session, error) {
	token, exp, err := s.tokens.Encode(p, s.lifetime)
	if err != nil {
		return nil, err
	}
	s.recordAuth(provider, nil)
	return &Session{Principal: p, AccessToken: token, ExpiresAt: exp}, nil
}

func (s *authService) recordAuth(provider model.Provider, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case apperrors.IsDependency(err):
		outcome = "dependency_failure"
	default:
		outcome = "rejected"
	}
	s.metrics.RecordAuth(string(provider), outcome)
}

func principalOf(user *model.User) auth.Principal {
	return auth.Principal{ID: user.ID.String(), Email: user.Email, Provider: user.Provider}
}
