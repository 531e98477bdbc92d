package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bowerhall/autopost/internal/logger"
)

const postBucket = "autopost-published"

// Client archives published posts to object storage so the channel history
// survives local cleanup.
type Client struct {
	mc *minio.Client
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewClient(cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Client{mc: mc}, nil
}

// Init creates the archive bucket if it doesn't exist.
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, postBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", postBucket, err)
	}

	if !exists {
		if err := c.mc.MakeBucket(ctx, postBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", postBucket, err)
		}
		logger.Info("bucket created", "bucket", postBucket)
	}

	return nil
}

// Archive stores the published photo under a date-keyed name with the
// final caption attached as object metadata.
func (c *Client) Archive(ctx context.Context, photoPath, caption string) error {
	f, err := os.Open(photoPath)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat photo: %w", err)
	}

	name := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006-01-02"), filepath.Base(photoPath))

	_, err = c.mc.PutObject(ctx, postBucket, name, f, stat.Size(), minio.PutObjectOptions{
		ContentType: "image/jpeg",
		UserMetadata: map[string]string{
			"caption": caption,
		},
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	logger.Info("post archived", "object", name, "bytes", stat.Size())
	return nil
}
