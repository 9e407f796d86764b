package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"imtapp/internal/service"
)

// ProfileHandler serves the signed-in user's profile.
type ProfileHandler struct {
	svc service.ProfileService
}

// NewProfileHandler creates a handler layer.
func NewProfileHandler(svc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GetProfile godoc
// @Summary Get the signed-in user
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetProfile(c.Request().Context(), claims.Principal())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
