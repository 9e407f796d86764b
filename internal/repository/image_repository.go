package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/model"
)

// PageKey is the sort key of the last row of a search page.
type PageKey struct {
	CreatedAt time.Time
	ImageID   uuid.UUID
}

// SearchQuery selects images carrying any of Tags created within [From, To].
// After, when set, restricts results to rows strictly older than that key in
// (created_at DESC, image_id DESC) order.
type SearchQuery struct {
	Tags  []string
	From  time.Time
	To    time.Time
	After *PageKey
	Limit int
}

// ImageRepository defines image catalog persistence operations.
type ImageRepository interface {
	CreateWithTags(ctx context.Context, image *model.Image, tagNames []string) ([]string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error)
	TagsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]string, error)
	Search(ctx context.Context, q SearchQuery) ([]model.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// CreateWithTags inserts the image, its tags and the association rows in one
// transaction and returns the sorted tag names.
func (r *imageRepository) CreateWithTags(ctx context.Context, image *model.Image, tagNames []string) ([]string, error) {
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}
	image.CreatedAt = image.CreatedAt.UTC().Truncate(time.Millisecond)

	var names []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(image).Error; err != nil {
			return err
		}

		tags, err := upsertTags(tx, tagNames)
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}

		links := make([]model.Tagged, len(tags))
		names = make([]string, len(tags))
		for i, tag := range tags {
			links[i] = model.Tagged{TagID: tag.ID, ImageID: image.ID, CreatedAt: image.CreatedAt}
			names[i] = tag.Name
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		return nil, apperrors.Dependency("database", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *imageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error) {
	var image model.Image
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error; err != nil {
		return nil, notFound(err, apperrors.ErrImageNotFound)
	}
	return &image, nil
}

// TagsFor returns the sorted tag names of each image.
func (r *imageRepository) TagsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []struct {
		ImageID uuid.UUID
		Name    string
	}
	err := r.db.WithContext(ctx).
		Table("tagged").
		Select("tagged.image_id, tags.name").
		Joins("JOIN tags ON tags.id = tagged.tag_id").
		Where("tagged.image_id IN ?", ids).
		Order("tags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Dependency("database", err)
	}
	for _, row := range rows {
		result[row.ImageID] = append(result[row.ImageID], row.Name)
	}
	return result, nil
}

// Search returns at most q.Limit images ordered by (created_at DESC, id DESC).
func (r *imageRepository) Search(ctx context.Context, q SearchQuery) ([]model.Image, error) {
	if len(q.Tags) == 0 || q.Limit <= 0 {
		return nil, nil
	}

	var keys []PageKey
	page := r.db.WithContext(ctx).
		Table("tagged").
		Select("tagged.image_id, tagged.created_at").
		Joins("JOIN tags ON tags.id = tagged.tag_id").
		Where("tags.name IN ?", q.Tags).
		Where("tagged.created_at BETWEEN ? AND ?", q.From.UTC(), q.To.UTC())
	if q.After != nil {
		page = page.Where("(tagged.created_at < ? OR (tagged.created_at = ? AND tagged.image_id < ?))",
			q.After.CreatedAt.UTC(), q.After.CreatedAt.UTC(), q.After.ImageID)
	}
	err := page.
		Group("tagged.image_id, tagged.created_at").
		Order("tagged.created_at DESC, tagged.image_id DESC").
		Limit(q.Limit).
		Find(&keys).Error
	if err != nil {
		return nil, apperrors.Dependency("database", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(keys))
	for i, k := range keys {
		ids[i] = k.ImageID
	}
	var found []model.Image
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, apperrors.Dependency("database", err)
	}

	byID := make(map[uuid.UUID]model.Image, len(found))
	for _, img := range found {
		byID[img.ID] = img
	}
	images := make([]model.Image, 0, len(keys))
	for _, k := range keys {
		if img, ok := byID[k.ImageID]; ok {
			images = append(images, img)
		}
	}
	return images, nil
}
