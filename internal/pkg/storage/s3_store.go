package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/internal/pkg/config"
)

// s3API is the subset of the S3 client used by the store.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store reads track files from a bucket, optionally under a key prefix.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store connects to the configured bucket and checks it is reachable.
func NewS3Store(ctx context.Context, cfg config.S3) (*S3Store, error) {
	if !cfg.Enabled {
		return nil, errors.New("S3 storage is disabled")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible providers (B2, MinIO) need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	store := newS3StoreWithClient(client, cfg.BucketName, cfg.Prefix)
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.BucketName, err)
	}

	log.Infof("[S3Store] Serving tracks from s3://%s/%s", cfg.BucketName, cfg.Prefix)
	return store, nil
}

func newS3StoreWithClient(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) Backend() string { return "s3" }

func (s *S3Store) objectKey(name string) string {
	return s.prefix + name
}

func (s *S3Store) Open(ctx context.Context, name string) (*Asset, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid name %q", ErrFileUnavailable, name)
	}

	key := s.objectKey(clean)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s does not exist", ErrFileUnavailable, s.bucket, key)
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrFileUnavailable, s.bucket, key, err)
	}

	contentType := strings.TrimSpace(aws.ToString(out.ContentType))
	if contentType == "" || contentType == "binary/octet-stream" {
		contentType = ContentType(clean)
	}

	return &Asset{
		Name:        clean,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: contentType,
		ModTime:     aws.ToTime(out.LastModified),
		Body:        out.Body,
	}, nil
}

func (s *S3Store) Stat(ctx context.Context, name string) (*AssetInfo, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid name %q", ErrFileUnavailable, name)
	}

	key := s.objectKey(clean)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: head s3://%s/%s: %v", ErrFileUnavailable, s.bucket, key, err)
	}
	return &AssetInfo{Name: clean, Size: aws.ToInt64(out.ContentLength)}, nil
}
