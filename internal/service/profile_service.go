package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"imtapp/internal/auth"
	"imtapp/internal/cache"
	apperrors "imtapp/internal/errors"
	"imtapp/internal/logger"
	"imtapp/internal/model"
	"imtapp/internal/repository"
)

const profileCacheTTL = time.Minute

// ProfileService exposes the signed-in user's record.
type ProfileService interface {
	GetProfile(ctx context.Context, p auth.Principal) (*model.User, error)
}

type profileService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewProfileService builds a ProfileService with repository and cache. The
// cache is optional and its failures only cost a database read.
func NewProfileService(repo repository.UserRepository, cache *cache.Client) ProfileService {
	return &profileService{repo: repo, cache: cache}
}

func (s *profileService) cacheKey(id uuid.UUID) string {
	return "profile:" + id.String()
}

func (s *profileService) GetProfile(ctx context.Context, p auth.Principal) (*model.User, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	if s.cache != nil {
		data, err := s.cache.Get(ctx, s.cacheKey(id))
		if err != nil {
			logger.Ctx(ctx).Debug().Err(err).Msg("profile cache read failed")
		}
		if data != nil {
			var cached model.User
			if err := json.Unmarshal(data, &cached); err == nil && cached.Provider == p.Provider {
				return &cached, nil
			}
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(user); err == nil {
			if err := s.cache.Set(ctx, s.cacheKey(id), payload, profileCacheTTL); err != nil {
				logger.Ctx(ctx).Debug().Err(err).Msg("profile cache write failed")
			}
		}
	}
	return user, nil
}
