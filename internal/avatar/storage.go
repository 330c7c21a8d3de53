package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/redmonkez12/contacts-api/internal/config"
)

// keyPrefix groups avatar objects in the bucket
const keyPrefix = "RestApp"

// MaxSize is the largest accepted avatar upload
const MaxSize = 5 << 20

var ErrUnsupportedType = errors.New("unsupported image type")

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter is the subset of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores avatars in an S3-compatible bucket
type Uploader struct {
	client    ObjectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Client builds an S3 client for the configured endpoint. Path-style
// addressing keeps MinIO and other S3-compatible stores working.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

func NewUploader(client ObjectPutter, bucket, publicURL string) *Uploader {
	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// ObjectKey returns the storage key for a user's avatar
func ObjectKey(username string) string {
	return keyPrefix + "/" + username
}

// Upload overwrites the user's avatar object and returns its public URL.
// The URL carries a version parameter so clients drop cached copies.
func (u *Uploader) Upload(ctx context.Context, username string, body io.Reader, size int64, contentType string) (string, error) {
	if !allowedTypes[contentType] {
		return "", ErrUnsupportedType
	}

	key := ObjectKey(username)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return fmt.Sprintf("%s/%s?v=%d", u.publicURL, key, u.now().Unix()), nil
}
