package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredential is returned when sign-up data is malformed.
	ErrInvalidCredential = errors.New("invalid user credential format")
	// ErrDuplicateUser is returned when the email is already registered.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidEmailOrPassword is returned for an unknown email and a wrong password alike.
	ErrInvalidEmailOrPassword = errors.New("invalid email or password")
	// ErrInvalidSocialToken is returned when a social session has no usable stored token.
	ErrInvalidSocialToken = errors.New("user's social token is invalid")
	// ErrFailGoogleAuth is returned when the Google identity token does not verify.
	ErrFailGoogleAuth = errors.New("google authentication failed")
	// ErrFailFacebookAuth is returned when the Facebook graph exchange fails.
	ErrFailFacebookAuth = errors.New("facebook authentication failed")
	// ErrInvalidToken is returned when a session token cannot be decoded.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for a token that was logged out.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrUserNotFound is returned by the credential store for a missing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrImageOnly is returned for uploads that are not png/jpg/jpeg.
	ErrImageOnly = errors.New("only images allowed")
	// ErrImageNotFound is returned for an unknown image id.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidTags is returned when no valid tag remains after normalization.
	ErrInvalidTags = errors.New("invalid tags")
	// ErrInvalidCursor is returned for a malformed pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// DependencyError marks a failure of an external dependency (database, cache,
// object store, identity provider). Clients may retry these.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Dependency wraps err as a DependencyError; nil stays nil.
func Dependency(name string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Dependency: name, Err: err}
}

// IsDependency reports whether err is (or wraps) a DependencyError.
func IsDependency(err error) bool {
	var dep *DependencyError
	return errors.As(err, &dep)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var statusTable = []struct {
	err    error
	status int
	code   string
}{
	{ErrInvalidCredential, http.StatusBadRequest, "INVALID_CREDENTIAL"},
	{ErrImageOnly, http.StatusBadRequest, "IMAGE_ONLY"},
	{ErrInvalidTags, http.StatusBadRequest, "INVALID_TAGS"},
	{ErrInvalidCursor, http.StatusBadRequest, "INVALID_CURSOR"},
	{ErrDuplicateUser, http.StatusConflict, "DUPLICATE_USER"},
	{ErrInvalidEmailOrPassword, http.StatusUnauthorized, "INVALID_EMAIL_PASSWORD"},
	{ErrInvalidSocialToken, http.StatusUnauthorized, "INVALID_SOCIAL_TOKEN"},
	{ErrFailGoogleAuth, http.StatusUnauthorized, "FAIL_GOOGLE_AUTH"},
	{ErrFailFacebookAuth, http.StatusUnauthorized, "FAIL_FACEBOOK_AUTH"},
	{ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{ErrTokenRevoked, http.StatusUnauthorized, "TOKEN_REVOKED"},
	{ErrImageNotFound, http.StatusNotFound, "IMAGE_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	for _, entry := range statusTable {
		if errors.Is(err, entry.err) {
			return NewHTTPError(entry.status, entry.err.Error(), entry.code)
		}
	}
	var dep *DependencyError
	if errors.As(err, &dep) {
		return NewHTTPError(http.StatusServiceUnavailable, dep.Dependency+" unavailable", "DEPENDENCY_FAILURE")
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
