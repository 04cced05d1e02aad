package shop

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MinioImages uploads product images to an object bucket and stores
// the object URL on the product record instead of inline data.
type MinioImages struct {
	mc      *minio.Client
	bucket  string
	baseURL string
}

func NewMinioImages(mc *minio.Client, bucket, baseURL string) *MinioImages {
	return &MinioImages{
		mc:      mc,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// EnsureBucket creates the bucket on first use.
func (s *MinioImages) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *MinioImages) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := "img_" + uuid.NewString() + extFor(contentType)

	_, err := s.mc.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	return s.baseURL + "/" + s.bucket + "/" + key, nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
