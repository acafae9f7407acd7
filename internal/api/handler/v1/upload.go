package v1

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteerhub/volunteerhub-api/internal/pkg/storage"
)

const maxGalleryImages = 10

var (
	errTooManyFiles    = errors.New("too many files")
	errMalformedUpload = errors.New("malformed multipart body")
)

// Uploader stages multipart images in storage before the owning record is
// written. Services discard staged refs when the write fails.
type Uploader struct {
	store   storage.Storage
	maxSize int64
}

func NewUploader(store storage.Storage, maxSize int64) *Uploader {
	return &Uploader{
		store:   store,
		maxSize: maxSize,
	}
}

// files returns the parts uploaded under field. A request that is not
// multipart carries no files.
func (u *Uploader) files(ctx *gin.Context, field string, limit int) ([]*multipart.FileHeader, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errMalformedUpload, err)
	}

	files := form.File[field]
	if len(files) > limit {
		return nil, fmt.Errorf("%w: at most %d under %q", errTooManyFiles, limit, field)
	}
	for _, fh := range files {
		if err := storage.CheckImage(fh.Filename, fh.Size, u.maxSize); err != nil {
			return nil, fmt.Errorf("%s -> %w", fh.Filename, err)
		}
	}

	return files, nil
}

// Stage saves up to limit images uploaded under field and returns their refs.
func (u *Uploader) Stage(ctx *gin.Context, field string, limit int) ([]string, error) {
	files, err := u.files(ctx, field, limit)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(files))
	for _, fh := range files {
		ref, err := u.save(ctx.Request.Context(), fh)
		if err != nil {
			u.Discard(ctx.Request.Context(), refs)
			return nil, fmt.Errorf("u.save -> %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// StageOne saves the single image uploaded under field, if any.
func (u *Uploader) StageOne(ctx *gin.Context, field string) (string, error) {
	refs, err := u.Stage(ctx, field, 1)
	if err != nil || len(refs) == 0 {
		return "", err
	}

	return refs[0], nil
}

func (u *Uploader) save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return u.store.Save(ctx, fh.Filename, f)
}

func (u *Uploader) Discard(ctx context.Context, refs []string) {
	for ref, err := range storage.RemoveAll(context.WithoutCancel(ctx), u.store, refs) {
		zap.L().Warn("failed to discard staged upload", zap.String("ref", ref), zap.Error(err))
	}
}
