package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("only jpg/jpeg/png/webp allowed")
	ErrFileTooLarge    = errors.New("file too large")
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Storage persists uploaded images and hands back the reference that is
// stored on the owning record.
type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

// CheckImage validates the name and size of an uploaded image.
func CheckImage(filename string, size, maxSize int64) error {
	if !allowedExt[strings.ToLower(filepath.Ext(filename))] {
		return ErrUnsupportedType
	}
	if maxSize > 0 && size > maxSize {
		return ErrFileTooLarge
	}

	return nil
}

// RemoveAll removes every ref and returns the refs that could not be removed.
func RemoveAll(ctx context.Context, s Storage, refs []string) map[string]error {
	failed := map[string]error{}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.Remove(ctx, ref); err != nil {
			failed[ref] = err
		}
	}

	return failed
}
