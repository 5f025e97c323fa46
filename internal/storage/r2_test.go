package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the handful of path-style S3 calls R2Storage makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newR2(t *testing.T, publicURL string) (*R2Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewR2Storage(R2Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "statements",
		Endpoint:        srv.URL,
		PublicURL:       publicURL,
	}, discardLogger())
	require.NoError(t, err)
	return s, fake
}

func TestNewR2Storage_RequiresBucketAndEndpoint(t *testing.T) {
	_, err := NewR2Storage(R2Config{AccountID: "acc"}, discardLogger())
	assert.Error(t, err)

	_, err = NewR2Storage(R2Config{BucketName: "b"}, discardLogger())
	assert.Error(t, err)
}

func TestR2Storage_PutExistsDelete(t *testing.T) {
	ctx := context.Background()
	s, fake := newR2(t, "")
	key := "rapports/r1/decomptes/e1.pdf"

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, key, strings.NewReader("%PDF-1.3 statement"), PutOptions{}))

	stored := fake.objects["/statements/"+key]
	assert.Contains(t, string(stored), "%PDF-1.3 statement")
	assert.Equal(t, "application/pdf", fake.types["/statements/"+key])

	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	err = s.Put(ctx, key, strings.NewReader("again"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	require.NoError(t, s.Delete(ctx, key))
	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestR2Storage_PutTooLarge(t *testing.T) {
	s, fake := newR2(t, "")

	err := s.Put(context.Background(), "big.pdf", strings.NewReader("0123456789"), PutOptions{MaxSize: 4, Overwrite: true})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, fake.objects)
}

func TestR2Storage_URL(t *testing.T) {
	ctx := context.Background()

	s, _ := newR2(t, "https://files.example.com/")
	url, err := s.URL(ctx, "rapports/r1/decomptes/e1.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/rapports/r1/decomptes/e1.pdf", url)

	url, err = s.URL(ctx, "rapports/r1/decomptes/e1.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "/statements/rapports/r1/decomptes/e1.pdf")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=3600")

	_, err = s.URL(ctx, "../secret", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMapS3Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no such key", err: &types.NoSuchKey{}, want: ErrNotFound},
		{name: "head not found", err: &types.NotFound{}, want: ErrNotFound},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: ErrAccessDenied},
		{name: "bad signature", err: &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, want: ErrAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapS3Error(tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	mapped := mapS3Error(other)
	assert.ErrorIs(t, mapped, other)
	assert.False(t, IsNotFound(mapped))
}
