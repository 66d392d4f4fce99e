// Package storage keeps uploaded files on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("invalid storage path")

type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: abs}, nil
}

// Save writes through a temporary file that is renamed into place.
func (l *Local) Save(ctx context.Context, path string, content io.Reader) error {
	target, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (l *Local) Delete(_ context.Context, path string) error {
	target, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) resolve(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return "", ErrInvalidPath
	}
	target := filepath.Join(l.root, filepath.FromSlash(path))
	if target == l.root || !strings.HasPrefix(target, l.root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return target, nil
}
