package service

import (
	"path"
	"regexp"
	"sort"
	"strings"

	apperrors "imtapp/internal/errors"
)

const (
	minTagLength = 2
	maxTagLength = 20
)

var (
	tagPattern     = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	numericPattern = regexp.MustCompile(`^[0-9-]+$`)
)

// ValidateTag reports whether name is 2-20 characters of letters, digits and
// hyphens with at least one letter.
func ValidateTag(name string) bool {
	if len(name) < minTagLength || len(name) > maxTagLength {
		return false
	}
	return tagPattern.MatchString(name) && !numericPattern.MatchString(name)
}

// NormalizeTags splits every input on commas, trims and lower-cases the
// parts, drops invalid ones and returns the remaining set sorted. Invalid or
// empty input yields an empty set.
func NormalizeTags(raw ...string) []string {
	seen := make(map[string]struct{})
	for _, chunk := range raw {
		for _, part := range strings.Split(chunk, ",") {
			tag := strings.ToLower(strings.TrimSpace(part))
			if ValidateTag(tag) {
				seen[tag] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ValidateImageFile accepts names like "cat.png" with a non-empty stem and
// exactly one png, jpg or jpeg extension.
func ValidateImageFile(name string) error {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if strings.Count(base, ".") != 1 {
		return apperrors.ErrImageOnly
	}
	stem, ext, _ := strings.Cut(base, ".")
	if stem == "" {
		return apperrors.ErrImageOnly
	}
	switch strings.ToLower(ext) {
	case "png", "jpg", "jpeg":
		return nil
	default:
		return apperrors.ErrImageOnly
	}
}
