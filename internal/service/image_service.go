package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/logger"
	"imtapp/internal/metrics"
	"imtapp/internal/model"
	"imtapp/internal/repository"
	"imtapp/internal/storage"
)

const (
	// DefaultSearchLimit is the page size when none is requested.
	DefaultSearchLimit = 5
	// MaxSearchLimit caps the page size.
	MaxSearchLimit = 100

	presignConcurrency = 8
)

// UploadInput describes one image upload.
type UploadInput struct {
	Filename   string
	Content    io.Reader
	Size       int64
	Tags       []string
	UploadedBy *uuid.UUID
}

// ImageView is an image with its tags and a temporary download URL.
type ImageView struct {
	model.Image
	Tags []string `json:"tags"`
	URL  string   `json:"url"`
}

// SearchInput selects a page of images. Zero values pick the defaults.
type SearchInput struct {
	Tags   []string
	Limit  int
	From   *time.Time
	To     *time.Time
	Cursor string
}

// SearchPage is one page of results; Next is empty on the last page.
type SearchPage struct {
	Data []ImageView
	Next string
}

// ImageService handles image upload, lookup and search.
type ImageService interface {
	Upload(ctx context.Context, in UploadInput) (*model.TaggedImage, error)
	FindByID(ctx context.Context, id string) (*ImageView, error)
	Search(ctx context.Context, in SearchInput) (*SearchPage, error)
}

type imageService struct {
	images  repository.ImageRepository
	store   storage.ObjectStore
	metrics metrics.Recorder
	newKey  func(filename string) string
	now     func() time.Time
}

// NewImageService creates a new image service.
func NewImageService(images repository.ImageRepository, store storage.ObjectStore, rec metrics.Recorder) ImageService {
	return &imageService{
		images:  images,
		store:   store,
		metrics: rec,
		newKey:  storage.NewStorageKey,
		now:     time.Now,
	}
}

// Upload stores the file under a fresh key and catalogues it with its
// normalized tags. The object is removed again if cataloguing fails.
func (s *imageService) Upload(ctx context.Context, in UploadInput) (*model.TaggedImage, error) {
	if err := ValidateImageFile(in.Filename); err != nil {
		return nil, err
	}
	tags := NormalizeTags(in.Tags...)

	key, err := s.store.Store(ctx, s.newKey(in.Filename), in.Content, in.Size)
	if err != nil {
		return nil, err
	}

	image := &model.Image{
		Name:       in.Filename,
		StorageKey: key,
		UploadedBy: in.UploadedBy,
		CreatedAt:  s.now(),
	}
	names, err := s.images.CreateWithTags(ctx, image, tags)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.Ctx(ctx).Warn().Err(delErr).Str("storage_key", key).Msg("failed to remove orphaned object")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(len(names))
	}
	if names == nil {
		names = []string{}
	}
	return &model.TaggedImage{Image: *image, Tags: names}, nil
}

// FindByID returns the image with its tags and a download URL. Malformed ids
// are reported as not found.
func (s *imageService) FindByID(ctx context.Context, id string) (*ImageView, error) {
	imageID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrImageNotFound
	}
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []model.Image{*image})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Search returns one page of images tagged with any of the requested tags,
// newest first. A page asks the store for one row more than it returns; that
// extra row only signals that a next page exists.
func (s *imageService) Search(ctx context.Context, in SearchInput) (*SearchPage, error) {
	tags := NormalizeTags(in.Tags...)
	if len(tags) == 0 {
		return &SearchPage{Data: []ImageView{}}, nil
	}

	q := repository.SearchQuery{
		Tags:  tags,
		From:  time.Unix(0, 0).UTC(),
		To:    s.now().UTC(),
		Limit: clampLimit(in.Limit) + 1,
	}
	if in.From != nil {
		q.From = *in.From
	}
	if in.To != nil {
		q.To = *in.To
	}
	if in.Cursor != "" {
		after, err := DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
		q.After = after
	}

	images, err := s.images.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &SearchPage{}
	if limit := q.Limit - 1; len(images) > limit {
		images = images[:limit]
		last := images[limit-1]
		page.Next = EncodeCursor(repository.PageKey{CreatedAt: last.CreatedAt, ImageID: last.ID})
	}

	page.Data, err = s.views(ctx, images)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSearch(len(page.Data))
	}
	return page, nil
}

// views attaches tags and presigned URLs, signing concurrently.
func (s *imageService) views(ctx context.Context, images []model.Image) ([]ImageView, error) {
	views := make([]ImageView, len(images))
	if len(images) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	tags, err := s.images.TagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(presignConcurrency)
	for i := range images {
		views[i] = ImageView{Image: images[i], Tags: tags[images[i].ID]}
		if views[i].Tags == nil {
			views[i].Tags = []string{}
		}
		g.Go(func() error {
			url, err := s.store.URLFor(gctx, images[i].StorageKey)
			if err != nil {
				return err
			}
			views[i].URL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}
