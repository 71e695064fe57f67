package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config configures access to seed documents kept in S3 or an
// S3-compatible store.
type S3Config struct {
	Region          string // AWS region
	AccessKeyID     string // Optional static access key
	SecretAccessKey string // Optional static secret
	Endpoint        string // Optional custom endpoint (MinIO, LocalStack)
	UsePathStyle    bool   // Use path-style addressing
}

// S3API is the subset of the S3 client used for transfers.
type S3API interface {
	manager.DownloadAPIClient
	manager.UploadAPIClient
}

// S3Store reads and writes s3://bucket/key locations.
type S3Store struct {
	client     S3API
	downloader *manager.Downloader
	uploader   *manager.Uploader
	logger     *zap.Logger
}

// NewS3Store builds an S3 client from cfg. Without static credentials the
// default credential chain is used.
func NewS3Store(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return NewS3StoreWithAPI(s3.NewFromConfig(awsCfg, s3Options...), logger), nil
}

// NewS3StoreWithAPI wraps an existing client.
func NewS3StoreWithAPI(client S3API, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{
		client:     client,
		downloader: manager.NewDownloader(client),
		uploader:   manager.NewUploader(client),
		logger:     logger.Named("s3"),
	}
}

func (s *S3Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := parseS3Location(location)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(nil)
	n, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", location, err)
	}

	s.logger.Debug("downloaded seed document",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int64("bytes", n))

	return io.NopCloser(bytes.NewReader(buf.Bytes()[:n])), nil
}

func (s *S3Store) Write(ctx context.Context, location string, body io.Reader) error {
	bucket, key, err := parseS3Location(location)
	if err != nil {
		return err
	}

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", location, err)
	}

	s.logger.Debug("uploaded export",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("location", out.Location))
	return nil
}

func parseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("s3 location must look like s3://bucket/key")
	}
	return bucket, key, nil
}
