package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"imtapp/internal/service"
)

const dateLayout = "2006-01-02"

// ImageHandler handles image upload, lookup and search.
type ImageHandler struct {
	imageService service.ImageService
}

// NewImageHandler creates a new image handler.
func NewImageHandler(imageService service.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// UploadImageResponse represents a stored image.
type UploadImageResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Tags       []string   `json:"tags"`
}

// QueryImageResponse represents an image with a temporary download URL.
type QueryImageResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	URL        string     `json:"url"`
	Tags       []string   `json:"tags"`
}

// SearchImagesResponse is one page of search results. Next is empty on the
// last page.
type SearchImagesResponse struct {
	Data []QueryImageResponse `json:"data"`
	Next string               `json:"next"`
}

func newQueryImageResponse(v service.ImageView) QueryImageResponse {
	return QueryImageResponse{
		ID:         v.ID,
		Name:       v.Name,
		UploadedBy: v.UploadedBy,
		CreatedAt:  v.CreatedAt,
		URL:        v.URL,
		Tags:       v.Tags,
	}
}

// Upload godoc
// @Summary Upload an image with tags
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "png, jpg or jpeg file"
// @Param tags formData string false "Comma separated tags"
// @Success 200 {object} UploadImageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /image [post]
func (h *ImageHandler) Upload(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return badRequest("image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return badRequest("cannot read image file")
	}
	defer src.Close()

	params, err := c.FormParams()
	if err != nil {
		return badRequest("invalid form")
	}

	var uploadedBy *uuid.UUID
	if id, err := uuid.Parse(claims.UserID); err == nil {
		uploadedBy = &id
	}

	img, err := h.imageService.Upload(c.Request().Context(), service.UploadInput{
		Filename:   file.Filename,
		Content:    src,
		Size:       file.Size,
		Tags:       params["tags"],
		UploadedBy: uploadedBy,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, UploadImageResponse{
		ID:         img.ID,
		Name:       img.Name,
		UploadedBy: img.UploadedBy,
		CreatedAt:  img.CreatedAt,
		Tags:       img.Tags,
	})
}

// Get godoc
// @Summary Get an image by id
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 200 {object} QueryImageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /image/{id} [get]
func (h *ImageHandler) Get(c echo.Context) error {
	view, err := h.imageService.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newQueryImageResponse(*view))
}

// Find godoc
// @Summary Search images by tags and creation time
// @Description Images carrying any of the tags, newest first. Follow next to read the following page.
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param tags query string false "Comma separated tags"
// @Param image_id query string false "Return only this image"
// @Param from_date query string false "Lower bound, YYYY-MM-DD or RFC3339 (inclusive)"
// @Param to_date query string false "Upper bound, YYYY-MM-DD or RFC3339 (inclusive)"
// @Param limit query int false "Page size (1-100, default 5)"
// @Param next query string false "Cursor from the previous page"
// @Success 200 {object} SearchImagesResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /image/find [get]
func (h *ImageHandler) Find(c echo.Context) error {
	if id := c.QueryParam("image_id"); id != "" {
		view, err := h.imageService.FindByID(c.Request().Context(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, SearchImagesResponse{Data: []QueryImageResponse{newQueryImageResponse(*view)}})
	}

	in := service.SearchInput{
		Tags:   c.QueryParams()["tags"],
		Cursor: c.QueryParam("next"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("limit must be an integer")
		}
		in.Limit = limit
	}
	var err error
	if in.From, err = parseBound(c.QueryParam("from_date"), false); err != nil {
		return badRequest("invalid from_date")
	}
	if in.To, err = parseBound(c.QueryParam("to_date"), true); err != nil {
		return badRequest("invalid to_date")
	}

	page, err := h.imageService.Search(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}

	resp := SearchImagesResponse{Data: make([]QueryImageResponse, len(page.Data)), Next: page.Next}
	for i, v := range page.Data {
		resp.Data[i] = newQueryImageResponse(v)
	}
	return c.JSON(http.StatusOK, resp)
}

// parseBound reads an RFC3339 instant or a calendar date. A date used as an
// upper bound covers the whole day.
func parseBound(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t, nil
}
