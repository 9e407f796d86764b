package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"imtapp/internal/service"
)

// TagHandler handles tag creation.
type TagHandler struct {
	tagService service.TagService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// TagsRequest lists tag names.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1"`
}

// TagsResponse lists the stored tag names.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// AddTags godoc
// @Summary Create tags
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TagsRequest true "Tags to create"
// @Success 200 {object} TagsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /tag [post]
func (h *TagHandler) AddTags(c echo.Context) error {
	var req TagsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	tags, err := h.tagService.AddTags(c.Request().Context(), req.Tags)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, TagsResponse{Tags: tags})
}
