package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"

	"sqxedit/internal/config"
)

const defaultRegion = "us-east-1"

// S3Config holds construction parameters for S3.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	PathStyle       bool
	RetryAttempts   int
	AccessKeyID     string // optional; default credential chain otherwise
	SecretAccessKey string
	HTTPClient      *http.Client // optional; tests inject a fake transport
}

// S3 stores archives as objects in a single bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	retries int
}

// NewS3 builds a client from the AWS default configuration chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &S3{client: client, bucket: cfg.Bucket, retries: cfg.RetryAttempts}, nil
}

// S3ConfigFrom maps the [storage] section onto S3Config for bucket.
func S3ConfigFrom(cfg *config.Config, bucket string) S3Config {
	if bucket == "" {
		bucket = cfg.Storage.S3Bucket
	}
	return S3Config{
		Bucket:        bucket,
		Region:        cfg.Storage.S3Region,
		Endpoint:      cfg.Storage.S3Endpoint,
		PathStyle:     cfg.Storage.S3PathStyle,
		RetryAttempts: cfg.Storage.RetryAttempts,
	}
}

func (s *S3) Driver() string { return config.DriverS3 }

// Bucket returns the bucket name.
func (s *S3) Bucket() string { return s.bucket }

func (s *S3) Get(ctx context.Context, key string) ([]byte, Info, error) {
	var (
		data []byte
		info Info
	)
	err := s.retry(ctx, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		body, err := io.ReadAll(out.Body)
		if err != nil {
			return err
		}
		data = body
		info = s.info(key, int64(len(body)), out.ETag, out.LastModified)
		return nil
	})
	if err != nil {
		return nil, Info{}, s.wrap("get", key, err)
	}
	return data, info, nil
}

func (s *S3) Put(ctx context.Context, key string, data []byte) (Info, error) {
	var info Info
	err := s.retry(ctx, func() error {
		out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &s.bucket,
			Key:         &key,
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/zip"),
		})
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		info = s.info(key, int64(len(data)), out.ETag, &now)
		return nil
	})
	if err != nil {
		return Info{}, s.wrap("put", key, err)
	}
	return info, nil
}

func (s *S3) Head(ctx context.Context, key string) (Info, error) {
	var info Info
	err := s.retry(ctx, func() error {
		out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
		if err != nil {
			return err
		}
		info = s.info(key, aws.ToInt64(out.ContentLength), out.ETag, out.LastModified)
		return nil
	})
	if err != nil {
		return Info{}, s.wrap("head", key, err)
	}
	return info, nil
}

func (s *S3) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(s.retries, 0))), ctx))
}

type statusCoder interface {
	HTTPStatusCode() int
}

func statusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	status := statusOf(err)
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests, status >= 500:
		return true
	default:
		return false
	}
}

func (s *S3) wrap(op, key string, err error) error {
	if statusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
	}
	return fmt.Errorf("s3 %s s3://%s/%s: %w", op, s.bucket, key, err)
}

func (s *S3) info(key string, size int64, etag *string, modified *time.Time) Info {
	info := Info{Key: key, Size: size, ETag: strings.Trim(aws.ToString(etag), "\"")}
	if modified != nil {
		info.LastModified = modified.UTC()
	}
	return info
}
