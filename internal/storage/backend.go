package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chartmuseum/storage"
)

// backendStore adapts a chartmuseum backend to ObjectStorage.
type backendStore struct {
	name    string
	backend storage.Backend
}

// Local stores objects under a directory on disk.
type Local struct {
	backendStore
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage directory must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
	}
	return &Local{
		backendStore: backendStore{name: "local", backend: storage.NewLocalFilesystemBackend(dir)},
		Dir:          dir,
	}, nil
}

func (s *backendStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	objects, err := s.backend.ListObjects("")
	if err != nil {
		return nil, fmt.Errorf("%s list failed: %w", s.name, err)
	}
	results := make([]ObjectInfo, 0, len(objects))
	for _, object := range objects {
		if !strings.HasPrefix(object.Path, prefix) {
			continue
		}
		results = append(results, ObjectInfo{
			Key:          object.Path,
			Size:         int64(len(object.Content)),
			LastModified: object.LastModified,
		})
	}
	return results, nil
}

func (s *backendStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	object, err := s.backend.GetObject(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s get %s: %w", s.name, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("%s get %s: %w", s.name, key, err)
	}
	return object.Content, nil
}

func (s *backendStore) PutObject(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.PutObject(key, data); err != nil {
		return fmt.Errorf("%s put %s: %w", s.name, key, err)
	}
	return nil
}

var _ ObjectStorage = (*Local)(nil)
