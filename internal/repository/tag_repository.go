package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/model"
)

// TagRepository defines tag persistence operations.
type TagRepository interface {
	Upsert(ctx context.Context, names []string) ([]model.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// Upsert creates the missing tags and returns every requested one.
func (r *tagRepository) Upsert(ctx context.Context, names []string) ([]model.Tag, error) {
	tags, err := upsertTags(r.db.WithContext(ctx), names)
	if err != nil {
		return nil, apperrors.Dependency("database", err)
	}
	return tags, nil
}

// upsertTags inserts names, ignoring existing ones, then reads all of them
// back so a concurrent creator's row is reused.
func upsertTags(tx *gorm.DB, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows := make([]model.Tag, len(names))
	for i, name := range names {
		rows[i] = model.Tag{Name: name}
	}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, err
	}

	var tags []model.Tag
	if err := tx.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
