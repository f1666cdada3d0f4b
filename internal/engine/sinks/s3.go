package sinks

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-cleanhttp"
)

// polyglotMetadataKey is stored as x-amz-meta-polyglot on crafted objects.
const polyglotMetadataKey = "polyglot"

// Uploader is the part of manager.Uploader the S3 sink calls.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Config configures an S3 or S3-compatible bucket. Static credentials are
// used only when both keys are set; otherwise the default AWS chain applies.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Sink uploads each file as an object under an optional key prefix.
type S3Sink struct {
	bucket   string
	prefix   string
	uploader Uploader
}

func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewS3SinkWithUploader(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

func NewS3SinkWithUploader(bucket, prefix string, uploader Uploader) *S3Sink {
	return &S3Sink{bucket: bucket, prefix: prefix, uploader: uploader}
}

func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(cleanhttp.DefaultPooledClient()),
	}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// R2, MinIO and other compatible stores.
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

func (s *S3Sink) Name() string {
	return fmt.Sprintf("s3(%s)", path.Join(s.bucket, s.prefix))
}

func (s *S3Sink) Kind() string {
	return "s3"
}

func (s *S3Sink) Write(ctx context.Context, name string, data io.Reader) error {
	key := path.Join(s.prefix, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	}

	if stem, ok := polyglotStem(name); ok {
		input.ContentType = aws.String("application/octet-stream")
		input.Metadata = map[string]string{polyglotMetadataKey: stem}
	} else if ct, ok := contentTypes[bundleExt(name)]; ok {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Sink) Close(context.Context) error {
	return nil
}

var contentTypes = map[string]string{
	".json":    "application/json",
	".tar":     "application/x-tar",
	".tar.gz":  "application/gzip",
	".tar.zst": "application/zstd",
	".tar.lz4": "application/x-lz4",
	".zip":     "application/zip",
}

// bundleExt is the extension of name, keeping ".tar" in front of a
// compression suffix.
func bundleExt(name string) string {
	ext := path.Ext(name)
	if strings.HasSuffix(strings.TrimSuffix(name, ext), ".tar") {
		return ".tar" + ext
	}
	return ext
}

// polyglotStem returns the technique stem of an artifact or split view name,
// such as "P(29-1c4)-PNG[ZIP]" for "P(29-1c4)-PNG[ZIP].1a2b3c4d.png.zip". A
// polyglot served under a single-format type would be sniffed as that format
// alone, so these are stored as opaque bytes.
func polyglotStem(name string) (string, bool) {
	stem, _, _ := strings.Cut(path.Base(name), ".")
	if !strings.ContainsAny(stem, "()") {
		return "", false
	}
	return stem, true
}
