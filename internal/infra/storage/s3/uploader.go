// Package s3 stores listing photos in S3-compatible object storage and owns
// the object key layout, so every photo of a listing lives under one prefix
// and a listing's gallery can be enumerated or purged by prefix alone.
package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStore persists a listing photo and returns its public URL. filename is
// only consulted for the extension; the store picks the object name.
type PhotoStore interface {
	UploadListingPhoto(ctx context.Context, listingID, filename string, content io.Reader, contentType string) (string, error)
}

// Client is the minio-backed PhotoStore. The bucket is created lazily on the
// first upload and opened for anonymous reads, since photo URLs are served to
// browsers without credentials.
type Client struct {
	bucket        string
	publicBaseURL string
	client        *minio.Client
	logger        *slog.Logger

	// idGen names objects; replaced in tests for deterministic keys.
	idGen func() string

	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewClient(endpoint string, useSSL bool, accessKey, secretKey, bucket, publicBaseURL string, logger *slog.Logger) (*Client, error) {
	host, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("object storage endpoint: %w", err)
	}
	cli, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}
	return &Client{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		client:        cli,
		logger:        logger,
		idGen:         uuid.NewString,
	}, nil
}

func (c *Client) UploadListingPhoto(ctx context.Context, listingID, filename string, content io.Reader, contentType string) (string, error) {
	if listingID == "" {
		return "", fmt.Errorf("upload photo: listing id is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	key := listingPhotoKey(listingID, filename, c.idGen)
	if _, err := c.client.PutObject(ctx, c.bucket, key, content, -1, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("upload photo %s: %w", key, err)
	}
	if c.logger != nil {
		c.logger.Info("photo stored", "listing_id", listingID, "key", key)
	}
	return c.photoURL(key), nil
}

// listingPhotoKey lays out gallery objects as listings/<id>/<name><ext>.
// The caller's filename contributes only a sanitized extension; everything
// else comes from idGen so two uploads of the same file never collide.
func listingPhotoKey(listingID, filename string, idGen func() string) string {
	ext := strings.ToLower(path.Ext(filename))
	// Extensions are opaque to us except that they must not open a new path
	// segment or carry whitespace into the URL.
	if strings.ContainsAny(ext, "/\\ \t") {
		ext = ""
	}
	return fmt.Sprintf("listings/%s/%s%s", listingID, idGen(), ext)
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("check bucket %s: %w", c.bucket, err)
			return
		}
		if !exists {
			if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
				c.bucketInitErr = fmt.Errorf("create bucket %s: %w", c.bucket, err)
				return
			}
		}
		c.bucketInitErr = c.allowPublicRead(ctx)
	})
	return c.bucketInitErr
}

func (c *Client) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/*"]
    }
  ]
}`, c.bucket)
	if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) photoURL(key string) string {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key
	}
	scheme := "http"
	if c.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.client.EndpointURL().Host, c.bucket, key)
}

func parseEndpoint(endpoint string) (string, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, nil
}

// NoopPhotoStore refuses every upload. It stands in when object storage is
// not configured, so the API still runs and only photo uploads fail.
type NoopPhotoStore struct{}

func (NoopPhotoStore) UploadListingPhoto(context.Context, string, string, io.Reader, string) (string, error) {
	return "", fmt.Errorf("photo storage is not configured")
}

var (
	_ PhotoStore = (*Client)(nil)
	_ PhotoStore = NoopPhotoStore{}
)
