package avatar

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/contacts-api/internal/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestUploader_Upload(t *testing.T) {
	putter := &fakePutter{}
	u := NewUploader(putter, "avatars", "https://cdn.example.test/avatars/")
	u.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := u.Upload(context.Background(), "alice", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.test/avatars/RestApp/alice?v=1700000000", url)
	require.NotNil(t, putter.input)
	assert.Equal(t, "avatars", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "RestApp/alice", aws.ToString(putter.input.Key))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(putter.input.ContentLength))
	assert.Equal(t, "png-bytes", putter.body)
}

func TestUploader_Upload_Errors(t *testing.T) {
	u := NewUploader(&fakePutter{}, "avatars", "https://cdn.example.test")
	_, err := u.Upload(context.Background(), "alice", strings.NewReader("x"), 1, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	u = NewUploader(&fakePutter{err: errors.New("access denied")}, "avatars", "https://cdn.example.test")
	_, err = u.Upload(context.Background(), "alice", strings.NewReader("x"), 1, "image/jpeg")
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Client(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{Region: lo.Region}, nil
	}

	var applied s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&applied)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	client, err := NewS3Client(context.Background(), config.StorageConfig{
		Endpoint:  "http://127.0.0.1:9000",
		Region:    "eu-central-1",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(applied.BaseEndpoint))
	assert.True(t, applied.UsePathStyle)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}
	_, err = NewS3Client(context.Background(), config.StorageConfig{})
	assert.ErrorContains(t, err, "boom")
}

func TestGravatarURL(t *testing.T) {
	a := GravatarURL("Alice@Example.test ")
	b := GravatarURL("alice@example.test")

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "https://www.gravatar.com/avatar/"))
	assert.Contains(t, a, "d=identicon")
	assert.Empty(t, GravatarURL("  "))
}
