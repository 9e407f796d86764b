package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/model"
)

const (
	// Issuer tags every token minted by this service.
	Issuer = "itms"
	// DefaultAccessTokenExpiry is the session lifetime for every provider.
	DefaultAccessTokenExpiry = 60 * time.Minute
)

// Principal is the normalized identity produced by every login path.
type Principal struct {
	ID       string         `json:"user_id"`
	Email    string         `json:"email"`
	Provider model.Provider `json:"provider"`
}

// Claims represents JWT claims.
type Claims struct {
	UserID   string         `json:"user_id"`
	Email    string         `json:"email"`
	Provider model.Provider `json:"provider"`
	jwt.RegisteredClaims
}

// Principal returns the identity carried by the claims.
func (c *Claims) Principal() Principal {
	return Principal{ID: c.UserID, Email: c.Email, Provider: c.Provider}
}

// ExpiresAtTime returns the expiry, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Encode signs the principal's claims for lifetime and returns the token and
// its whole-second Unix expiry.
func (s *JWTService) Encode(p Principal, lifetime time.Duration) (string, int64, error) {
	now := s.now().Truncate(time.Second)
	exp := now.Add(lifetime)
	claims := &Claims{
		UserID:   p.ID,
		Email:    p.Email,
		Provider: p.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return token, exp.Unix(), nil
}

// Decode validates a JWT token and returns the claims. Any failure is
// reported as ErrInvalidToken.
func (s *JWTService) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if !claims.VerifyIssuer(Issuer, true) || claims.ExpiresAt == nil {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
