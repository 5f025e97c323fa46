package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files/"}, discardLogger())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	key := StatementKey(uuid.New(), uuid.New(), "pdf")

	require.NoError(t, s.Put(ctx, key, strings.NewReader("%PDF-1.3 statement"), PutOptions{ContentType: "application/pdf"}))

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 statement", string(body))
	assert.Equal(t, int64(len(body)), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	url, err := s.URL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/"+key, url)

	require.NoError(t, s.Delete(ctx, key))
	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is not an error
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorage_PutRules(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.NoError(t, s.Put(ctx, "a/b.pdf", strings.NewReader("one"), PutOptions{}))

	err := s.Put(ctx, "a/b.pdf", strings.NewReader("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	require.NoError(t, s.Put(ctx, "a/b.pdf", strings.NewReader("two"), PutOptions{Overwrite: true}))
	rc, _, err := s.Get(ctx, "a/b.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "two", string(body))

	err = s.Put(ctx, "big.pdf", strings.NewReader("0123456789"), PutOptions{MaxSize: 5})
	assert.ErrorIs(t, err, ErrTooLarge)
	exists, err := s.Exists(ctx, "big.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	for _, key := range []string{"", "../escape.pdf", "a/../../escape.pdf"} {
		t.Run(key, func(t *testing.T) {
			err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
			assert.ErrorIs(t, err, ErrInvalidKey)

			_, err = s.URL(ctx, key, 0)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestLocalStorage_GetMissing(t *testing.T) {
	_, _, err := newLocal(t).Get(context.Background(), "missing.pdf")
	assert.True(t, IsNotFound(err))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Get", se.Op)
}

func TestLocalStorage_Handler(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	require.NoError(t, s.Put(ctx, "rapports/x/decomptes/y.pdf", strings.NewReader("%PDF-"), PutOptions{}))

	srv := httptest.NewServer(http.StripPrefix("/files/", s.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/rapports/x/decomptes/y.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "%PDF-", string(body))
}

func TestNew_SelectsProvider(t *testing.T) {
	s, err := New(Config{Provider: ProviderLocal, Local: LocalConfig{BasePath: t.TempDir()}}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	s, err = New(Config{Provider: ProviderR2, R2: R2Config{AccountID: "acc", BucketName: "b"}}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &R2Storage{}, s)

	_, err = New(Config{Provider: "ftp"}, discardLogger())
	assert.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "text/csv", DetectContentType("text/csv", "a.pdf", nil))
	assert.Equal(t, "application/pdf", DetectContentType("", "a.pdf", nil))
	assert.Equal(t, "application/pdf", DetectContentType("", "noext", strings.NewReader("%PDF-1.4 body")))
	assert.Equal(t, "application/octet-stream", DetectContentType("", "noext", nil))
}

func TestStatementKey(t *testing.T) {
	reportID := uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	exportID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t,
		"rapports/3f2504e0-4f89-11d3-9a0c-0305e82c3301/decomptes/6ba7b810-9dad-11d1-80b4-00c04fd430c8.pdf",
		StatementKey(reportID, exportID, "pdf"))
}
