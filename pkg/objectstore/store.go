package objectstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Client defines the S3 operations used by Store.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Presigner defines the presigning operations used by Store.
// *s3.PresignClient satisfies it.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPostObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error)
}

// Store wraps an S3 bucket and the /objects/<key> addressing scheme.
// It is safe for concurrent use.
type Store struct {
	client    S3Client
	presigner Presigner
	cfg       Config
	baseURL   string
	newID     func() string
	now       func() time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	client        S3Client
	presigner     Presigner
	httpClient    *http.Client
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*s3.Options)
	newID         func() string
	now           func() time.Time
}

// WithClient sets a pre-configured S3 client. Useful for testing with mocks.
func WithClient(client S3Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithPresigner sets a custom presigner. Useful for testing with mocks.
func WithPresigner(p Presigner) Option {
	return func(o *options) {
		o.presigner = p
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithConfigOption adds a custom AWS config option.
func WithConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, option)
	}
}

// WithClientOption adds a custom S3 client option.
func WithClientOption(option func(*s3.Options)) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, option)
	}
}

// WithIDGenerator overrides the generator of upload object IDs.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// WithClock overrides the time source used for expiry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a Store. Without WithClient it loads the default AWS
// configuration, using static credentials when both keys are configured.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}
	cfg.applyDefaults()

	o := &options{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	presigner := o.presigner
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.configOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		s3Client := s3.NewFromConfig(awsConfig, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range o.clientOptions {
				opt(so)
			}
		})
		client = s3Client
		if presigner == nil {
			presigner = s3.NewPresignClient(s3Client)
		}
	}
	if presigner == nil {
		if c, ok := client.(*s3.Client); ok {
			presigner = s3.NewPresignClient(c)
		}
	}

	return &Store{
		client:    client,
		presigner: presigner,
		cfg:       cfg,
		baseURL:   publicBaseURL(cfg),
		newID:     o.newID,
		now:       o.now,
	}, nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.cfg.Bucket
}

// NewUploadKey returns a fresh key under the upload prefix.
func (s *Store) NewUploadKey() string {
	return s.cfg.UploadPrefix + s.newID()
}

func publicBaseURL(cfg Config) string {
	base := cfg.PublicBaseURL
	if base == "" {
		switch {
		case cfg.Endpoint != "":
			base = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		default:
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
