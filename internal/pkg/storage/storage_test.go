package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckImage(t *testing.T) {
	assert.NoError(t, CheckImage("cover.JPG", 10, 100))
	assert.NoError(t, CheckImage("cover.webp", 100, 0))
	assert.ErrorIs(t, CheckImage("cover.gif", 10, 100), ErrUnsupportedType)
	assert.ErrorIs(t, CheckImage("cover.png", 101, 100), ErrFileTooLarge)
}

func TestLocalStorage_SaveRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)

	ref, err := s.Save(context.Background(), "photo.PNG", strings.NewReader("data"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	stored := filepath.Join(dir, filepath.Base(ref))
	content, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	require.NoError(t, s.Remove(context.Background(), ref))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	assert.NoError(t, s.Remove(context.Background(), ref))
	assert.Error(t, s.Remove(context.Background(), "/elsewhere/file.png"))
}

func TestRemoveAll(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ref, err := s.Save(context.Background(), "a.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	failed := RemoveAll(context.Background(), s, []string{ref, "", "https://other/b.jpg"})
	assert.Len(t, failed, 1)
	assert.Contains(t, failed, "https://other/b.jpg")
}

func TestPublicIDFromURL(t *testing.T) {
	id, err := publicIDFromURL("https://res.cloudinary.com/demo/image/upload/v1712345/volunteerhub/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "volunteerhub/abc", id)

	id, err = publicIDFromURL("https://res.cloudinary.com/demo/image/upload/volunteerhub/abc.png")
	require.NoError(t, err)
	assert.Equal(t, "volunteerhub/abc", id)

	_, err = publicIDFromURL("https://example.com/abc.png")
	assert.Error(t, err)
}
