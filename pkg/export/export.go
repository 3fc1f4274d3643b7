// Package export uploads rendered HTML to S3-compatible object storage.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/livetree/pkg/dom"
)

// ContentType is the content type of every exported object.
const ContentType = "text/html; charset=utf-8"

// DefaultRegion is used when neither the config nor AWS_REGION names one.
const DefaultRegion = "us-east-1"

var (
	ErrInvalidURL    = errors.New("export: destination must look like s3://bucket/prefix")
	ErrNoCredentials = errors.New("export: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")
	ErrEmptyName     = errors.New("export: empty object name")
)

// API is the subset of *s3.Client the exporter uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Object is an exported page.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Exporter writes pages under a bucket prefix.
type Exporter struct {
	api    API
	bucket string
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Exporter writing to bucket under prefix.
func New(api API, bucket, prefix string, opts ...Option) *Exporter {
	e := &Exporter{
		api:    api,
		bucket: bucket,
		prefix: prefix,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "export", "bucket", bucket)
	return e
}

// Key returns the object key for name.
func (e *Exporter) Key(name string) string {
	return e.prefix + strings.TrimPrefix(name, "/")
}

// Put uploads html as name and returns the object key.
func (e *Exporter) Put(ctx context.Context, name string, html []byte) (string, error) {
	if strings.TrimPrefix(name, "/") == "" {
		return "", ErrEmptyName
	}
	key := e.Key(name)

	_, err := e.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(html),
		ContentLength: aws.Int64(int64(len(html))),
		ContentType:   aws.String(ContentType),
		Metadata: map[string]string{
			"exported-at": e.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		e.logger.Error("upload failed", "key", key, "error", err)
		return "", fmt.Errorf("export: put s3://%s/%s: %w", e.bucket, key, err)
	}

	e.logger.Info("uploaded", "key", key, "bytes", len(html))
	return key, nil
}

// Export serializes n and uploads it as name.
func (e *Exporter) Export(ctx context.Context, name string, n *dom.Node, opts ...dom.HTMLOption) (string, error) {
	var buf bytes.Buffer
	if err := dom.WriteHTML(&buf, n, opts...); err != nil {
		return "", err
	}
	return e.Put(ctx, name, buf.Bytes())
}

// List returns every object under the prefix.
func (e *Exporter) List(ctx context.Context) ([]Object, error) {
	p := s3.NewListObjectsV2Paginator(e.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(e.bucket),
		Prefix: aws.String(e.prefix),
	})

	var out []Object
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("export: list s3://%s/%s: %w", e.bucket, e.prefix, err)
		}
		for _, obj := range page.Contents {
			o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			out = append(out, o)
		}
	}
	return out, nil
}

// ParseURL splits s3://bucket/prefix. The prefix keeps its trailing slash;
// one is added when the URL names a directory-like prefix without it.
func ParseURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "s3" || u.Host == "" || u.RawQuery != "" || u.Fragment != "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	prefix = strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return u.Host, prefix, nil
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Region    string
	Endpoint  string // Custom endpoint for S3-compatible stores
	PathStyle bool
}

// NewClient builds an S3 client that reads static credentials from the
// standard AWS environment variables.
func NewClient(cfg ClientConfig) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = DefaultRegion
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, ErrNoCredentials
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "livetree-env",
	}, nil
}
