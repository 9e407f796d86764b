package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func newFakeS3(t *testing.T, bucketExists bool) (*MinioStore, func() []recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		mu.Unlock()

		if r.Method == http.MethodHead && !bucketExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	store, err := NewMinioStore(Options{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "images",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	return store, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestMinioStore_StoreSetsContentType(t *testing.T) {
	store, requests := newFakeS3(t, true)
	payload := []byte("png-bytes")

	key, err := store.Store(context.Background(), "abc__cat.png", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, "abc__cat.png", key)

	reqs := requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/images/abc__cat.png", last.path)
	assert.Equal(t, "image/png", last.contentType)
}

func TestMinioStore_EnsureBucketCreatesMissingBucket(t *testing.T) {
	store, requests := newFakeS3(t, false)

	require.NoError(t, store.EnsureBucket(context.Background()))

	var created bool
	for _, r := range requests() {
		if r.method == http.MethodPut && strings.TrimSuffix(r.path, "/") == "/images" {
			created = true
		}
	}
	assert.True(t, created)
}

func TestMinioStore_EnsureBucketKeepsExisting(t *testing.T) {
	store, requests := newFakeS3(t, true)

	require.NoError(t, store.EnsureBucket(context.Background()))

	for _, r := range requests() {
		assert.NotEqual(t, http.MethodPut, r.method)
	}
}

func TestMinioStore_URLFor(t *testing.T) {
	store, _ := newFakeS3(t, true)

	raw, err := store.URLFor(context.Background(), "abc__cat.png")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/images/abc__cat.png", u.Path)
	assert.Equal(t, "1200", u.Query().Get("X-Amz-Expires"))
}

func TestNewStorageKey(t *testing.T) {
	a := NewStorageKey("cat.png")
	b := NewStorageKey("cat.png")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "__cat.png"))
	assert.Len(t, strings.TrimSuffix(a, "__cat.png"), 36)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeFor("x.png"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("x.JPG"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("x.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("x.gif"))
}
