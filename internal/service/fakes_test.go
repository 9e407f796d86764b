package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/model"
	"imtapp/internal/repository"
	"imtapp/internal/social"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterWithPassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	args := m.Called(ctx, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpsertSocialUser(ctx context.Context, email, token string, expireAt time.Time, provider model.Provider) (*model.User, error) {
	args := m.Called(ctx, email, token, expireAt, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FetchPasswordHash(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) FetchSocialToken(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) ClearSocialToken(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockGoogleVerifier is a mock implementation of social.GoogleVerifier.
type MockGoogleVerifier struct {
	mock.Mock
}

func (m *MockGoogleVerifier) VerifyGoogle(ctx context.Context, idToken, email string) (*social.Identity, error) {
	args := m.Called(ctx, idToken, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*social.Identity), args.Error(1)
}

// MockFacebookVerifier is a mock implementation of social.FacebookVerifier.
type MockFacebookVerifier struct {
	mock.Mock
}

func (m *MockFacebookVerifier) VerifyFacebook(ctx context.Context, accessToken, userID string) (*social.Identity, error) {
	args := m.Called(ctx, accessToken, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*social.Identity), args.Error(1)
}

// memoryUsers keeps users in a map keyed by email, honoring the same
// uniqueness and upsert rules as the SQL repository.
type memoryUsers struct {
	mu    sync.Mutex
	byKey map[string]*model.User
	now   func() time.Time
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byKey: make(map[string]*model.User), now: time.Now}
}

func (r *memoryUsers) RegisterWithPassword(_ context.Context, email, passwordHash string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[email]; ok {
		return nil, apperrors.ErrDuplicateUser
	}
	u := &model.User{ID: uuid.New(), Email: email, PasswordHash: &passwordHash, Provider: model.ProviderApp}
	r.byKey[email] = u
	cp := *u
	return &cp, nil
}

func (r *memoryUsers) UpsertSocialUser(_ context.Context, email, token string, expireAt time.Time, provider model.Provider) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byKey[email]
	if !ok {
		u = &model.User{ID: uuid.New(), Email: email}
		r.byKey[email] = u
	}
	u.PasswordHash = nil
	u.SocialToken = &token
	u.SocialExpireAt = &expireAt
	u.Provider = provider
	cp := *u
	return &cp, nil
}

func (r *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byKey {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byKey[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUsers) FetchPasswordHash(_ context.Context, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byKey[email]
	if !ok || u.Provider != model.ProviderApp || u.PasswordHash == nil {
		return "", nil
	}
	return *u.PasswordHash, nil
}

func (r *memoryUsers) FetchSocialToken(_ context.Context, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byKey[email]
	if !ok || u.SocialToken == nil || u.SocialExpireAt == nil || !u.SocialExpireAt.After(r.now()) {
		return "", nil
	}
	return *u.SocialToken, nil
}

func (r *memoryUsers) ClearSocialToken(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byKey[email]; ok {
		u.SocialToken = nil
		u.SocialExpireAt = nil
	}
	return nil
}

// memoryCatalog is an in-memory image and tag store with the ordering and
// keyset semantics of the SQL repository.
type memoryCatalog struct {
	mu     sync.Mutex
	images map[uuid.UUID]model.Image
	tags   map[string]uint
	links  map[uuid.UUID]map[string]struct{}
	nextID uint
	err    error
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		images: make(map[uuid.UUID]model.Image),
		tags:   make(map[string]uint),
		links:  make(map[uuid.UUID]map[string]struct{}),
	}
}

func (c *memoryCatalog) CreateWithTags(_ context.Context, image *model.Image, tagNames []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if image.ID == uuid.Nil {
		image.ID = uuid.Must(uuid.NewV7())
	}
	image.CreatedAt = image.CreatedAt.UTC().Truncate(time.Millisecond)
	c.images[image.ID] = *image

	c.upsertLocked(tagNames)
	set := make(map[string]struct{}, len(tagNames))
	for _, name := range tagNames {
		set[name] = struct{}{}
	}
	c.links[image.ID] = set

	names := append([]string(nil), tagNames...)
	sort.Strings(names)
	return names, nil
}

func (c *memoryCatalog) Upsert(_ context.Context, names []string) ([]model.Tag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(names)
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, model.Tag{ID: c.tags[name], Name: name})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (c *memoryCatalog) upsertLocked(names []string) {
	for _, name := range names {
		if _, ok := c.tags[name]; !ok {
			c.nextID++
			c.tags[name] = c.nextID
		}
	}
}

func (c *memoryCatalog) FindByID(_ context.Context, id uuid.UUID) (*model.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[id]
	if !ok {
		return nil, apperrors.ErrImageNotFound
	}
	return &img, nil
}

func (c *memoryCatalog) TagsFor(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uuid.UUID][]string, len(ids))
	for _, id := range ids {
		for name := range c.links[id] {
			out[id] = append(out[id], name)
		}
		sort.Strings(out[id])
	}
	return out, nil
}

func (c *memoryCatalog) Search(_ context.Context, q repository.SearchQuery) ([]model.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}

	var matches []model.Image
	for id, img := range c.images {
		if !c.hasAnyLocked(id, q.Tags) {
			continue
		}
		if img.CreatedAt.Before(q.From) || img.CreatedAt.After(q.To) {
			continue
		}
		if q.After != nil && !olderThan(img, *q.After) {
			continue
		}
		matches = append(matches, img)
	}
	sort.Slice(matches, func(i, j int) bool {
		return olderThan(matches[j], repository.PageKey{CreatedAt: matches[i].CreatedAt, ImageID: matches[i].ID})
	})
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches, nil
}

func (c *memoryCatalog) hasAnyLocked(id uuid.UUID, tags []string) bool {
	for _, t := range tags {
		if _, ok := c.links[id][t]; ok {
			return true
		}
	}
	return false
}

// olderThan reports (img.CreatedAt, img.ID) < (key.CreatedAt, key.ImageID).
func olderThan(img model.Image, key repository.PageKey) bool {
	if !img.CreatedAt.Equal(key.CreatedAt) {
		return img.CreatedAt.Before(key.CreatedAt)
	}
	return strings.Compare(img.ID.String(), key.ImageID.String()) < 0
}

// memoryObjectStore records stored objects.
type memoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte)}
}

func (s *memoryObjectStore) Store(_ context.Context, key string, r io.Reader, _ int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return key, nil
}

func (s *memoryObjectStore) URLFor(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://storage.test/images/%s?X-Amz-Expires=1200", key), nil
}

func (s *memoryObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryObjectStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
