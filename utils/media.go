package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ImageDir is the folder under the media root that post images go to.
const ImageDir = "posts"

// rasterTypes are the image formats posts accept. Vector formats such as SVG can carry scripts.
var rasterTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"}

var (
	// ErrNotImage is returned for uploads whose content is not an image.
	ErrNotImage = errors.New("upload a valid image; the file you uploaded was either not an image or a corrupted image")
	// ErrFileTooLarge is returned for uploads above the configured limit.
	ErrFileTooLarge = errors.New("file is too large")
)

// MediaStore keeps uploaded files on the local filesystem under Root.
type MediaStore struct {
	Root     string
	MaxBytes int64
}

// NewMediaStore creates a store rooted at root accepting files up to maxMB megabytes.
func NewMediaStore(root string, maxMB int) *MediaStore {
	return &MediaStore{Root: root, MaxBytes: int64(maxMB) * 1024 * 1024}
}

// DetectImage sniffs an upload and returns the file extension for its image type.
func (m *MediaStore) DetectImage(fh *multipart.FileHeader) (string, error) {
	if m.MaxBytes > 0 && fh.Size > m.MaxBytes {
		return "", ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), rasterTypes...) {
		return "", ErrNotImage
	}
	return mt.Extension(), nil
}

// SaveImage writes a validated image upload and returns its name relative to Root, e.g. "posts/<uuid>.gif".
func (m *MediaStore) SaveImage(fh *multipart.FileHeader) (string, error) {
	ext, err := m.DetectImage(fh)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(m.Root, ImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	limit := m.MaxBytes
	if limit <= 0 {
		limit = fh.Size
	}
	written, err := io.Copy(dst, &io.LimitedReader{R: src, N: limit + 1})
	if err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if written > limit {
		_ = os.Remove(dstPath)
		return "", ErrFileTooLarge
	}
	return path.Join(ImageDir, name), nil
}

// Remove deletes a stored file; missing files are ignored.
func (m *MediaStore) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(m.Root, filepath.FromSlash(name))); err != nil && !os.IsNotExist(err) {
		Sugar.Warnf("remove media file failed name=%s err=%v", name, err)
	}
}

