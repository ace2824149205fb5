package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	storageconnections "github.com/pixmix/pixmix-backend/pkg/storage/connections"
)

// Objects are immutable once written, so clients may cache them for a year.
const cacheControlPolicy = "public, max-age=31536000"

type StoreConfig struct {
	Bucket     string
	PublicHost string
}

type storeService struct {
	config StoreConfig
	conn   storageconnections.BlockStorageConnection
}

var _ Store = (*storeService)(nil)

func NewStoreService(config StoreConfig, conn storageconnections.BlockStorageConnection) Store {
	return &storeService{config, conn}
}

func (s *storeService) Upload(ctx context.Context, localPath, destKey string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, localPath)
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.conn.UploadFile(ctx, destKey, localPath, contentType, cacheControlPolicy); err != nil {
		return "", fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
	}

	return fmt.Sprintf("s3://%s/%s", s.config.Bucket, destKey), nil
}

func (s *storeService) PublicURL(objectURI string) (string, error) {
	bucket, key, err := parseObjectURI(objectURI)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s/%s/%s", s.config.PublicHost, bucket, key), nil
}

func (s *storeService) Delete(ctx context.Context, objectURI string) error {
	_, key, err := parseObjectURI(objectURI)
	if err != nil {
		return err
	}

	if err := s.conn.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
	}

	return nil
}

func parseObjectURI(objectURI string) (bucket, key string, err error) {
	rest, found := strings.CutPrefix(objectURI, "s3://")
	if !found {
		return "", "", fmt.Errorf("%w: %s", ErrMalformedURI, objectURI)
	}

	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrMalformedURI, objectURI)
	}

	return bucket, key, nil
}

var (
	ErrFileNotFound     = errors.New("local file not found")
	ErrMalformedURI     = errors.New("malformed object URI")
	ErrStoreUnavailable = errors.New("object store unavailable")
)
