package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"accounts/backend/internal/domain/media"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	s3Scheme    = "s3://"
	s3KeyPrefix = "profile-images/"
)

// S3Config selects the bucket and, for S3-compatible servers such as MinIO,
// the endpoint and static credentials.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps profile images in an S3 bucket. References have the form s3://bucket/key.
type S3Store struct {
	client objectAPI
	bucket string
}

var _ media.ImageStore = (*S3Store)(nil)

// NewS3Store builds an S3 client from the default AWS chain, overridden by cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Save uploads the image under a random key.
func (s *S3Store) Save(ctx context.Context, upload media.Upload) (string, error) {
	body, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	key := s3KeyPrefix + uuid.NewString() + media.Extension(upload.ContentType)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(upload.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s3Scheme + s.bucket + "/" + key, nil
}

// Delete removes an object previously returned by Save.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return err
	}
	if bucket != s.bucket {
		return fmt.Errorf("image %q belongs to bucket %s", ref, bucket)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func parseS3Ref(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 reference: %q", ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 reference: %q", ref)
	}
	return bucket, key, nil
}
