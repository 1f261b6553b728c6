package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore serves files from a directory, used for the bundled samples.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) Backend() string { return "local" }

func (s *LocalStore) Open(ctx context.Context, name string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	clean, ok := cleanName(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid name %q", ErrFileUnavailable, name)
	}

	path := filepath.Join(s.root, clean)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileUnavailable, clean)
	}

	return &Asset{
		Name:        clean,
		Size:        info.Size(),
		ContentType: ContentType(clean),
		ModTime:     info.ModTime(),
		Body:        file,
	}, nil
}

func (s *LocalStore) Stat(ctx context.Context, name string) (*AssetInfo, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid name %q", ErrFileUnavailable, name)
	}
	info, err := os.Stat(filepath.Join(s.root, clean))
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFileUnavailable, clean)
	}
	return &AssetInfo{Name: clean, Size: info.Size()}, nil
}
