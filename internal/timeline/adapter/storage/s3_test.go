package storage_test

import (
	"context"
	"errors"
	"testing"

	"timeline/internal/timeline/adapter/storage"
	"timeline/internal/timeline/domain/repository"

	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3aws.PutObjectOutput), args.Error(1)
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3aws.DeleteObjectOutput), args.Error(1)
}

func (m *mockS3Client) HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3aws.HeadBucketOutput), args.Error(1)
}

func newS3Store(t *testing.T, cfg storage.S3Config, client storage.S3Client) *storage.S3ImageStore {
	t.Helper()
	store, err := storage.NewS3ImageStore(context.Background(), cfg, storage.WithS3Client(client))
	require.NoError(t, err)
	return store
}

func TestS3ImageStore_Save(t *testing.T) {
	client := new(mockS3Client)
	store := newS3Store(t, storage.S3Config{Bucket: "media", Region: "ap-northeast-1", KeyPrefix: "upload/image/"}, client)

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3aws.PutObjectInput) bool {
		return *in.Bucket == "media" &&
			*in.Key == "upload/image/1_abc.webp" &&
			*in.ContentType == "image/webp" &&
			*in.ContentLength == int64(len("webp-bytes"))
	})).Return(&s3aws.PutObjectOutput{}, nil).Once()

	err := store.Save(context.Background(), "1_abc.webp", "image/webp", []byte("webp-bytes"))

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestS3ImageStore_DeleteMissingKey(t *testing.T) {
	client := new(mockS3Client)
	store := newS3Store(t, storage.S3Config{Bucket: "media", Region: "us-east-1"}, client)
	client.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	err := store.Delete(context.Background(), "gone.png")

	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}

func TestS3ImageStore_APIErrorKeepsCode(t *testing.T) {
	client := new(mockS3Client)
	store := newS3Store(t, storage.S3Config{Bucket: "media", Region: "us-east-1"}, client)
	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	err := store.Save(context.Background(), "1.png", "image/png", []byte("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.True(t, errors.As(err, new(smithy.APIError)))
}

func TestS3ImageStore_RejectsBadNames(t *testing.T) {
	store := newS3Store(t, storage.S3Config{Bucket: "media", Region: "us-east-1"}, new(mockS3Client))

	assert.ErrorIs(t, store.Save(context.Background(), "../x.png", "image/png", nil), storage.ErrInvalidFilename)
	assert.ErrorIs(t, store.Delete(context.Background(), "a/b.png"), storage.ErrInvalidFilename)
}

func TestS3ImageStore_Ping(t *testing.T) {
	client := new(mockS3Client)
	store := newS3Store(t, storage.S3Config{Bucket: "media", Region: "us-east-1"}, client)
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3aws.HeadBucketOutput{}, nil).Once()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestS3ImageStore_URL(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.S3Config
		want string
	}{
		{
			name: "base url",
			cfg:  storage.S3Config{Bucket: "media", Region: "us-east-1", BaseURL: "https://cdn.example.com/", KeyPrefix: "img/"},
			want: "https://cdn.example.com/img/a.png",
		},
		{
			name: "endpoint path style",
			cfg:  storage.S3Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://localhost:9000", ForcePathStyle: true},
			want: "http://localhost:9000/media/a.png",
		},
		{
			name: "endpoint virtual host",
			cfg:  storage.S3Config{Bucket: "media", Region: "us-east-1", Endpoint: "https://r2.example.com"},
			want: "https://media.r2.example.com/a.png",
		},
		{
			name: "aws virtual host",
			cfg:  storage.S3Config{Bucket: "media", Region: "ap-northeast-1", KeyPrefix: "/upload/image/"},
			want: "https://media.s3.ap-northeast-1.amazonaws.com/upload/image/a.png",
		},
		{
			name: "aws path style",
			cfg:  storage.S3Config{Bucket: "media", Region: "eu-west-1", ForcePathStyle: true},
			want: "https://s3.eu-west-1.amazonaws.com/media/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Store(t, tt.cfg, new(mockS3Client))
			assert.Equal(t, tt.want, store.URL("a.png"))
		})
	}
}

func TestNewS3ImageStore_RequiresBucket(t *testing.T) {
	_, err := storage.NewS3ImageStore(context.Background(), storage.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
