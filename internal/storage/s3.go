package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"patient-intake-server/internal/apperrors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps objects in an S3 (or S3-compatible) bucket.
type S3Store struct {
	client s3API
	bucket string
	logger *zap.Logger
}

// NewS3Store loads the default AWS config. A non-empty endpoint targets an
// S3-compatible service such as MinIO or LocalStack.
func NewS3Store(ctx context.Context, bucket, endpoint string, pathStyle bool, logger *zap.Logger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})
	return newS3Store(client, bucket, logger), nil
}

func newS3Store(client s3API, bucket string, logger *zap.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, logger: logger.Named("s3")}
}

// Put uploads with If-None-Match: * so an existing key is never replaced.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("object %s: %w", key, apperrors.ErrConflict)
		}
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	s.logger.Debug("object uploaded", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

// Open downloads the object under key.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object %s: %w", key, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("download object %s: %w", key, err)
	}
	return out.Body, nil
}
