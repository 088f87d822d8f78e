package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalUploader stores objects under a directory served at urlPrefix. It is
// used when no object storage is configured.
type LocalUploader struct {
	root      string
	urlPrefix string
}

func NewLocalUploader(root, urlPrefix string) (*LocalUploader, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root is the directory files are written to.
func (u *LocalUploader) Root() string { return u.root }

func (u *LocalUploader) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	clean := path.Clean("/" + key)
	destPath := filepath.Join(u.root, filepath.FromSlash(clean))

	// ✅ Ensure the directory for the destination file exists
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", err
	}
	return u.urlPrefix + clean, nil
}

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageExt returns the lowercased extension of filename and its content type,
// or ok=false when the file is not an accepted image.
func ImageExt(filename string) (ext, contentType string, ok bool) {
	ext = strings.ToLower(filepath.Ext(filename))
	contentType, ok = imageContentTypes[ext]
	return ext, contentType, ok
}
