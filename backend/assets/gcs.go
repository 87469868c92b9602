package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"learnhub/backend/utils"
)

type GCSUploader struct {
	client     *storage.Client
	bucket     string
	publicBase string
	log        *utils.Logger
}

// NewGCSUploader uses application default credentials. publicBase is the
// URL prefix objects are served under, without the bucket name.
func NewGCSUploader(ctx context.Context, bucket, publicBase string, log *utils.Logger) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("asset bucket is not configured")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{
		client:     client,
		bucket:     bucket,
		publicBase: publicURL(publicBase, bucket),
		log:        log.With("service", "GCSUploader"),
	}, nil
}

func (g *GCSUploader) Upload(ctx context.Context, a Asset, folder string) (string, error) {
	data, ct, err := resolve(ctx, a)
	if err != nil {
		return "", err
	}
	object := objectName(folder, a.Name, ct)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = ct
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	g.log.Info("asset uploaded", "object", object, "bytes", len(data), "content_type", ct)
	return publicURL(g.publicBase, object), nil
}

func (g *GCSUploader) Close() error {
	return g.client.Close()
}
