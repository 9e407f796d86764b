package service

import (
	"context"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/repository"
)

// TagService manages the shared tag vocabulary.
type TagService interface {
	AddTags(ctx context.Context, raw []string) ([]string, error)
}

type tagService struct {
	tags repository.TagRepository
}

// NewTagService creates a new tag service.
func NewTagService(tags repository.TagRepository) TagService {
	return &tagService{tags: tags}
}

// AddTags creates the valid tags among raw and returns their names.
func (s *tagService) AddTags(ctx context.Context, raw []string) ([]string, error) {
	names := NormalizeTags(raw...)
	if len(names) == 0 {
		return nil, apperrors.ErrInvalidTags
	}
	tags, err := s.tags.Upsert(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.Name
	}
	return out, nil
}
