package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timeline/internal/timeline/domain/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API the image store calls.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// S3Config configures an S3 or S3-compatible bucket.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // MinIO, R2 and friends
	BaseURL         string // CDN in front of the bucket
	ForcePathStyle  bool
	KeyPrefix       string
	UploadTimeout   time.Duration
}

// S3Option customizes NewS3ImageStore.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	clientOptions []func(*s3aws.Options)
}

// WithS3Client injects a preconfigured client, mostly for tests.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// WithS3ClientOption adds an option applied when building the client.
func WithS3ClientOption(fn func(*s3aws.Options)) S3Option {
	return func(o *s3Options) {
		o.clientOptions = append(o.clientOptions, fn)
	}
}

// S3ImageStore keeps images in a bucket under KeyPrefix.
type S3ImageStore struct {
	client S3Client
	cfg    S3Config
}

var _ repository.ImageStore = (*S3ImageStore)(nil)

// NewS3ImageStore loads the AWS configuration and builds the client. Static credentials are used
// when given, otherwise the default chain applies.
func NewS3ImageStore(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3ImageStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("s3 bucket and region are required")
	}
	cfg.KeyPrefix = strings.TrimPrefix(cfg.KeyPrefix, "/")

	o := &s3Options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client = s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, fn := range o.clientOptions {
				fn(so)
			}
		})
	}

	return &S3ImageStore{client: client, cfg: cfg}, nil
}

// Save uploads data with its content type.
func (s *S3ImageStore) Save(ctx context.Context, filename, contentType string, data []byte) error {
	key, err := s.key(filename)
	if err != nil {
		return err
	}
	if s.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.UploadTimeout)
		defer cancel()
	}

	_, err = s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return classifyS3Error(err, "upload image")
	}
	return nil
}

// Delete removes the object.
func (s *S3ImageStore) Delete(ctx context.Context, filename string) error {
	key, err := s.key(filename)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyS3Error(err, "delete image")
	}
	return nil
}

// Ping checks the bucket is reachable.
func (s *S3ImageStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3aws.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err != nil {
		return classifyS3Error(err, "head bucket")
	}
	return nil
}

// URL returns the public address:
//   - BaseURL when set
//   - the custom endpoint, path or virtual-hosted style
//   - the AWS regional endpoint otherwise
func (s *S3ImageStore) URL(filename string) string {
	key := s.cfg.KeyPrefix + filename

	if s.cfg.BaseURL != "" {
		return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + key
	}

	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		scheme := "https://"
		if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
			scheme = "http://"
			endpoint = after
		} else if after, ok := strings.CutPrefix(endpoint, "https://"); ok {
			endpoint = after
		}
		if s.cfg.ForcePathStyle {
			return fmt.Sprintf("%s%s/%s/%s", scheme, endpoint, s.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s%s.%s/%s", scheme, s.cfg.Bucket, endpoint, key)
	}

	if s.cfg.ForcePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.cfg.Region, s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *S3ImageStore) key(filename string) (string, error) {
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return s.cfg.KeyPrefix + filename, nil
}

// classifyS3Error maps SDK errors onto repository sentinels where one exists.
func classifyS3Error(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%s: %w", op, repository.ErrImageNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%s: %w", op, repository.ErrImageNotFound)
		default:
			return fmt.Errorf("%s failed (code: %s): %w", op, apiErr.ErrorCode(), err)
		}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
