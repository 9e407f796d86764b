package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"imtapp/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CredentialForm is the form body of sign-up and login.
type CredentialForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// GoogleLoginRequest represents a Google sign-in.
type GoogleLoginRequest struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token" validate:"required"`
	ExpireAt    int64  `json:"expire_at" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name"`
}

// FacebookLoginRequest represents a Facebook sign-in.
type FacebookLoginRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
	ExpireAt    int64  `json:"expire_at" validate:"required"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
	ExpireAt    int64  `json:"expire_at"`
	TokenType   string `json:"token_type"`
}

func newAuthResponse(s *service.Session) AuthResponse {
	return AuthResponse{
		UserID:      s.ID,
		Email:       s.Email,
		Provider:    string(s.Provider),
		AccessToken: s.AccessToken,
		ExpireAt:    s.ExpiresAt,
		TokenType:   "bearer",
	}
}

// SignUp godoc
// @Summary Register with email and password
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password, at least 8 characters"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var form CredentialForm
	if err := c.Bind(&form); err != nil {
		return badRequest("invalid request body")
	}

	session, err := h.authService.SignUp(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(session))
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var form CredentialForm
	if err := c.Bind(&form); err != nil {
		return badRequest("invalid request body")
	}

	session, err := h.authService.Login(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(session))
}

// Google godoc
// @Summary Login with a Google ID token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GoogleLoginRequest true "Google sign-in result"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) Google(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	session, err := h.authService.LoginGoogle(c.Request().Context(), service.GoogleLogin{
		IDToken:  req.IDToken,
		Email:    req.Email,
		ExpireAt: time.Unix(req.ExpireAt, 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(session))
}

// Facebook godoc
// @Summary Login with a Facebook access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body FacebookLoginRequest true "Facebook sign-in result"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/facebook [post]
func (h *AuthHandler) Facebook(c echo.Context) error {
	var req FacebookLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	session, err := h.authService.LoginFacebook(c.Request().Context(), service.FacebookLogin{
		AccessToken: req.AccessToken,
		UserID:      req.UserID,
		ExpireAt:    time.Unix(req.ExpireAt, 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(session))
}

// Refresh godoc
// @Summary Reissue the session token with a fresh expiry
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/refresh-token [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}
	session, err := h.authService.Refresh(c.Request().Context(), claims.Principal())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(session))
}

// AccessToken godoc
// @Summary Exchange the session token for a new access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/access-token [get]
func (h *AuthHandler) AccessToken(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}
	session, err := h.authService.AccessToken(c.Request().Context(), claims.Principal())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(session))
}

// Logout godoc
// @Summary Revoke the session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {string} string "OK"
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), claims.Principal(), rawToken(c), claims.ExpiresAtTime()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, "OK")
}
