package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/repository"
)

// EncodeCursor renders a page key as an opaque token.
func EncodeCursor(key repository.PageKey) string {
	raw := strconv.FormatInt(key.CreatedAt.UnixMilli(), 10) + "_" + key.ImageID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(cursor string) (*repository.PageKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(cursor, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCursor, err)
	}
	millis, id, ok := strings.Cut(string(raw), "_")
	if !ok {
		return nil, apperrors.ErrInvalidCursor
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCursor, err)
	}
	imageID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCursor, err)
	}
	return &repository.PageKey{CreatedAt: time.UnixMilli(ms).UTC(), ImageID: imageID}, nil
}
