package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	StorageProviderGCS   = "gcs"
	StorageProviderLocal = "local"

	// LocalUploadsPrefix is the URL path local uploads are served under.
	LocalUploadsPrefix = "/uploads/"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderLocal
	}
	return provider
}

func GetUploadDir() string {
	dir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if dir == "" {
		return "uploads"
	}
	return dir
}

// BlobStore stores uploaded images and reads them back at render time.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string, maxBytes int64) ([]byte, error)
}

// GetBlobStore returns the store selected by STORAGE_PROVIDER.
func GetBlobStore() (BlobStore, error) {
	switch GetStorageProvider() {
	case StorageProviderGCS:
		return GCSBlobStore{}, nil
	case StorageProviderLocal:
		return LocalBlobStore{Dir: GetUploadDir()}, nil
	default:
		return nil, fmt.Errorf("storage provider %q not supported", GetStorageProvider())
	}
}

type GCSBlobStore struct{}

func (GCSBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := UploadBytesToGCS(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return BuildObjectAccessURL(key), nil
}

func (GCSBlobStore) Get(ctx context.Context, ref string, maxBytes int64) ([]byte, error) {
	key := ExtractObjectKeyFromURL(ref)
	if key == "" {
		return nil, fmt.Errorf("not a storage object: %q", ref)
	}
	return ReadObjectFromGCS(ctx, key, maxBytes)
}

// LocalBlobStore keeps files under Dir and hands out "/uploads/<key>" refs.
type LocalBlobStore struct {
	Dir string
}

func (s LocalBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return LocalUploadsPrefix + filepath.ToSlash(key), nil
}

func (s LocalBlobStore) Get(ctx context.Context, ref string, maxBytes int64) ([]byte, error) {
	path, err := s.resolve(strings.TrimPrefix(ref, LocalUploadsPrefix))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file %q exceeds %d bytes", ref, maxBytes)
	}
	return data, nil
}

func (s LocalBlobStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.Dir, filepath.FromSlash(key)), nil
}
