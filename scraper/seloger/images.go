package seloger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// ImageDownloader stores a remote image locally and returns its path.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL string) (string, error)
}

// FileDownloader writes images under Dir as <basename>.jpg.
type FileDownloader struct {
	Dir    string
	Client *http.Client
}

// NewFileDownloader returns a downloader writing under dir.
func NewFileDownloader(dir string) *FileDownloader {
	return &FileDownloader{
		Dir:    dir,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *FileDownloader) Download(ctx context.Context, imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("images: parse %q: %w", imageURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("images: no file name in %q", imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("images: build request: %w", err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("images: get %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("images: get %s: status %d", imageURL, resp.StatusCode)
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("images: create dir: %w", err)
	}

	dest := filepath.Join(d.Dir, name+".jpg")
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("images: create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("images: write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("images: close %s: %w", dest, err)
	}
	return dest, nil
}
