package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"imtapp/internal/errors"
	"imtapp/internal/service"
)

// SeedHandler imports the tag vocabulary from a configured source.
type SeedHandler struct {
	tagService service.TagService
	source     string
	client     *http.Client
}

// NewSeedHandler creates a new seed handler reading from source (URL or file).
func NewSeedHandler(tagService service.TagService, source string) *SeedHandler {
	return &SeedHandler{
		tagService: tagService,
		source:     source,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SeedTagsResponse represents the seed response.
type SeedTagsResponse struct {
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Tags    []string `json:"tags"`
}

// SeedTags godoc
// @Summary Import tags from the configured tag list
// @Tags seed
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SeedTagsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /seed/tags [post]
func (h *SeedHandler) SeedTags(c echo.Context) error {
	names, err := service.LoadTagList(c.Request().Context(), h.client, h.source)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "SEED_SOURCE_FAILED",
		})
	}

	tags, err := h.tagService.AddTags(c.Request().Context(), names)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, SeedTagsResponse{
		Message: "tags seeded successfully",
		Count:   len(tags),
		Tags:    tags,
	})
}
