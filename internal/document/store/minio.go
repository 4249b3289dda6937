package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/docserve/docserve/internal/document"
)

// BlobConfig holds MinIO connection settings for the blob tier.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// BlobStore holds document content as objects in a MinIO bucket. It is
// the content tier of TieredStore and never used on its own as a Store.
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore creates the MinIO client and ensures the bucket exists.
func NewBlobStore(cfg *BlobConfig) (*BlobStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("blob store config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	b := &BlobStore{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, b.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return b, nil
}

// PutBlob uploads content under key. Returns only after MinIO has
// acknowledged the object.
func (b *BlobStore) PutBlob(ctx context.Context, key string, content []byte) error {
	r := bytes.NewReader(content)
	_, err := b.client.PutObject(ctx, b.bucket, key, r, int64(len(content)), minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return classifyMinio("blob put", err)
	}
	return nil
}

// GetBlob downloads the object stored under key.
func (b *BlobStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinio("blob get", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinio("blob read", err)
	}
	return data, nil
}

// Ping checks bucket reachability.
func (b *BlobStore) Ping(ctx context.Context) error {
	if _, err := b.client.BucketExists(ctx, b.bucket); err != nil {
		return classifyMinio("blob ping", err)
	}
	return nil
}

func classifyMinio(op string, err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey":
			return document.ErrNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return document.E(document.KindPermission, op, err)
		}
	}
	return document.E(document.KindTransient, op, err)
}
