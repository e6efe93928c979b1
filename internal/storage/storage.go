// Package storage keeps uploaded files on an afero filesystem rooted at the
// configured uploads directory.
package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

var Module = fx.Module("storage",
	fx.Provide(New),
)

var (
	ErrInvalidName = errors.New("invalid_file_name")
	ErrNotFound    = errors.New("file_not_found")
)

type Storage interface {
	// Save writes r under name and returns the stored key.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (afero.File, error)
	Delete(ctx context.Context, key string) error
}

type FS struct {
	fs afero.Fs
}

func New(cfg config.Config) (Storage, error) {
	dir := strings.TrimSpace(cfg.UploadsDir)
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return NewFS(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewFS wraps an existing filesystem. Tests pass afero.NewMemMapFs().
func NewFS(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

func (s *FS) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key, err := clean(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", err
	}
	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(key)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FS) Open(ctx context.Context, key string) (afero.File, error) {
	key, err := clean(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *FS) Delete(ctx context.Context, key string) error {
	key, err := clean(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// clean rejects absolute paths and any attempt to leave the root.
func clean(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || strings.HasPrefix(name, "/") {
		return "", ErrInvalidName
	}
	key := path.Clean(name)
	if key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return "", ErrInvalidName
	}
	return key, nil
}
