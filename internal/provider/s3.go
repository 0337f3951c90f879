package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"timestreams/internal/config"
	"timestreams/internal/timestreams"
)

// S3Client is the subset of *s3.Client the S3 provider uses.
type S3Client interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds a client from provider config. An endpoint switches
// to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.ProviderConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Provider serves one stream stored under <prefix><stream>.timestream/
// in a bucket.
type S3Provider struct {
	client   S3Client
	uploader *manager.Uploader
	bucket   string
	base     string
	mimes    map[string]string
}

// NewS3Provider creates a provider for stream name. It does not check that
// the stream exists.
func NewS3Provider(client S3Client, bucket, prefix, name string, mimes map[string]string) *S3Provider {
	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		base:     prefix + name + StreamDirSuffix + "/",
		mimes:    mimes,
	}
}

func (p *S3Provider) key(rel string) string { return p.base + rel }

// Exists reports whether any object lives under the stream's prefix.
func (p *S3Provider) Exists(ctx context.Context) (bool, error) {
	out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		Prefix:  aws.String(p.base),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("s3 list failed: %w", err)
	}
	return len(out.Contents) > 0, nil
}

func (p *S3Provider) FileExists(ctx context.Context, rel string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(rel)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head failed: %w", err)
}

func (p *S3Provider) FileText(ctx context.Context, rel string) (string, bool, error) {
	body, _, err := p.get(ctx, rel)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), true, nil
}

// FilesWithPrefix lists every key starting with rel within the stream.
func (p *S3Provider) FilesWithPrefix(ctx context.Context, rel string) ([]string, error) {
	files, _, err := p.list(ctx, p.key(rel), "")
	return files, err
}

// FilesForDay lists the objects directly inside the day's bucket.
func (p *S3Provider) FilesForDay(ctx context.Context, day timestreams.DateParts) ([]string, error) {
	files, _, err := p.list(ctx, p.key(timestreams.DayPath(day)+"/"), "/")
	return files, err
}

// EarliestDay is January 1st of the smallest year prefix in the stream.
func (p *S3Provider) EarliestDay(ctx context.Context) (timestreams.DateParts, error) {
	_, dirs, err := p.list(ctx, p.base, "/")
	if err != nil {
		return timestreams.DateParts{}, err
	}
	minYear := noPostsYear
	for _, d := range dirs {
		year := strings.TrimSuffix(d, "/")
		if len(year) != 4 {
			continue
		}
		if n, err := strconv.Atoi(year); err == nil && n < minYear {
			minYear = n
		}
	}
	return timestreams.Date(minYear, 1, 1), nil
}

func (p *S3Provider) TypeForExtension(ext string) (string, bool) {
	return lookupType(p.mimes, ext)
}

func (p *S3Provider) Separator() string { return timestreams.DefaultSeparator }

func (p *S3Provider) Open(ctx context.Context, rel string) (io.ReadCloser, int64, error) {
	body, size, err := p.get(ctx, rel)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, fmt.Errorf("file not found: %s", rel)
		}
		return nil, 0, err
	}
	return body, size, nil
}

// Put uploads a new object at rel. It refuses to replace an existing one.
func (p *S3Provider) Put(ctx context.Context, rel string, r io.Reader, size int64) error {
	exists, err := p.FileExists(ctx, rel)
	if err != nil {
		return fmt.Errorf("s3 put existence check failed: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrExists, rel)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(p.key(rel)),
		Body:          r,
		ContentLength: aws.Int64(size),
	}
	if t, ok := p.TypeForExtension(extensionOf(rel)); ok {
		input.ContentType = aws.String(t)
	}
	if _, err := p.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3 put failed: %w", err)
	}
	return nil
}

func (p *S3Provider) get(ctx context.Context, rel string) (io.ReadCloser, int64, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(rel)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("s3 get failed: %w", err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// list pages through keys under prefix, returning stream-relative object
// paths and, when delimiter is set, the common prefixes relative to prefix.
func (p *S3Provider) list(ctx context.Context, prefix, delimiter string) ([]string, []string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	var files, dirs []string
	pager := s3.NewListObjectsV2Paginator(p.client, input)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			files = append(files, strings.TrimPrefix(aws.ToString(obj.Key), p.base))
		}
		for _, cp := range page.CommonPrefixes {
			dirs = append(dirs, strings.TrimPrefix(aws.ToString(cp.Prefix), prefix))
		}
	}
	return files, dirs, nil
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	var noKey *s3types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noKey)
}

func extensionOf(rel string) string {
	slash := strings.LastIndex(rel, "/")
	if dot := strings.LastIndex(rel, "."); dot > slash {
		return rel[dot:]
	}
	return ""
}

// Compile-time check that S3Provider implements timestreams.Store interface
var _ timestreams.Store = (*S3Provider)(nil)
