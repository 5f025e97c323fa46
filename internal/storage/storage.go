// Package storage stores generated statement documents.
//
// Two providers implement Storage:
// - LocalStorage: a directory on the local filesystem, for development
// - R2Storage: an S3-compatible bucket (Cloudflare R2, MinIO, AWS S3)
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for object storage operations.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists when the key is taken
	// and opts.Overwrite is false, ErrTooLarge when data exceeds opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a download URL for key. Providers that sign URLs make
	// them valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is detected from the key's extension when empty.
	ContentType string

	// MaxSize is the largest accepted object in bytes; 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration
// =============================================================================

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the S3-compatible storage provider.
	ProviderR2 = "r2"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, created if missing.
	BasePath string

	// BaseURL prefixes keys in download URLs, e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for S3-compatible storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Endpoint overrides the R2 endpoint derived from AccountID, for MinIO
	// or another S3-compatible server. Requests then use path-style URLs.
	Endpoint string

	// PublicURL serves objects without signing when set, e.g. a custom domain.
	PublicURL string

	// Region defaults to "auto".
	Region string
}

// New returns the provider named by cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// =============================================================================
// Keys
// =============================================================================

// StatementKey is where a generated statement is stored.
// Format: rapports/{reportID}/decomptes/{exportID}.{ext}
func StatementKey(reportID, exportID uuid.UUID, ext string) string {
	return fmt.Sprintf("rapports/%s/decomptes/%s.%s", reportID, exportID, ext)
}
