package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/repository"
)

func TestValidateTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"ab", true},
		{"cat", true},
		{"black-cat", true},
		{"r2d2", true},
		{"a", false},
		{"abcdefghijklmnopqrstu", false},
		{"abcdefghijklmnopqrst", true},
		{"1234", false},
		{"--", false},
		{"12-34", false},
		{"cat dog", false},
		{"cat_dog", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTag(tt.tag))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"foo"}, NormalizeTags("Foo", " foo ", "FOO"))
	assert.Empty(t, NormalizeTags("1234", "--", "a"))
	assert.Equal(t, []string{"cat", "dog"}, NormalizeTags("dog, Cat,,cat"))
	assert.Empty(t, NormalizeTags())
	assert.Empty(t, NormalizeTags(""))
}

func TestValidateImageFile(t *testing.T) {
	for _, ok := range []string{"cat.png", "cat.jpg", "cat.JPEG", "dir/cat.png"} {
		assert.NoError(t, ValidateImageFile(ok), ok)
	}
	for _, bad := range []string{"cat.gif", "cat", ".png", "cat.tar.png", ""} {
		assert.ErrorIs(t, ValidateImageFile(bad), apperrors.ErrImageOnly, bad)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	key := repository.PageKey{
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC),
		ImageID:   uuid.New(),
	}

	decoded, err := DecodeCursor(EncodeCursor(key))
	require.NoError(t, err)
	assert.True(t, key.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, key.ImageID, decoded.ImageID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, c := range []string{"!!", "bm9wZQ", "MTIzX25vdC1hLXV1aWQ", "YWJjXzEyMw"} {
		_, err := DecodeCursor(c)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCursor, c)
	}
}

func TestTagService_AddTags(t *testing.T) {
	catalog := newMemoryCatalog()
	svc := NewTagService(catalog)

	names, err := svc.AddTags(context.Background(), []string{"Dog", "cat, dog"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, names)

	again, err := svc.AddTags(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, again)
	assert.Len(t, catalog.tags, 2)

	_, err = svc.AddTags(context.Background(), []string{"1", "--"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTags)
}
