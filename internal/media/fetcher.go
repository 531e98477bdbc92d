package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bowerhall/autopost/internal/logger"
	"github.com/google/uuid"
)

// maxFileSize caps a single download (20MB, Telegram's bot API limit).
const maxFileSize = 20 * 1024 * 1024

// FileResolver turns a transport file ID into a downloadable URL. The
// Telegram bot satisfies it.
type FileResolver interface {
	FileURL(fileID string) (string, error)
}

// Fetcher streams remote photos into the uploads directory.
type Fetcher struct {
	resolver FileResolver
	dir      string
	client   *http.Client
}

func NewFetcher(resolver FileResolver, dir string) (*Fetcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Fetcher{
		resolver: resolver,
		dir:      dir,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (f *Fetcher) Dir() string {
	return f.dir
}

// Fetch downloads the file to local storage and returns its path. A failed
// download never leaves a partial file behind.
func (f *Fetcher) Fetch(ctx context.Context, fileID string) (string, error) {
	url, err := f.resolver.FileURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	path := filepath.Join(f.dir, uuid.New().String()+".jpg")

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	_, err = io.Copy(out, io.LimitReader(resp.Body, maxFileSize))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}

	logger.Debug("photo fetched", "file", fileID, "path", path)
	return path, nil
}
