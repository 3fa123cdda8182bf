package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader writes measurement export files under a fixed key prefix.
type S3Uploader struct {
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
}

func NewS3Uploader(s3UploadClient manager.UploadAPIClient, bucket, keyPrefix string) (S3Uploader, error) {
	if s3UploadClient == nil {
		return S3Uploader{}, errors.New("s3 upload client nil")
	}
	if bucket == "" {
		return S3Uploader{}, errors.New("bucket is empty")
	}
	return S3Uploader{
		uploader:  manager.NewUploader(s3UploadClient),
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}, nil
}

// Upload stores one JSON export document. The multipart manager takes
// care of chunking large listings.
func (u S3Uploader) Upload(ctx context.Context, filename string, buffer *bytes.Buffer) error {
	key := path.Join(u.keyPrefix, filename)
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        buffer,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload failed key=[%s], bucket=[%s]: %w", key, u.bucket, err)
	}
	return nil
}
