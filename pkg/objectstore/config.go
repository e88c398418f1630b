package objectstore

import "time"

// Config holds S3 settings.
type Config struct {
	Bucket          string `env:"S3_BUCKET_NAME,required"`
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	ForcePathStyle  bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`

	// Endpoint points the client at an S3-compatible service such as MinIO.
	Endpoint string `env:"S3_ENDPOINT"`
	// PublicBaseURL defaults to the virtual-hosted bucket URL.
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	UploadPrefix          string        `env:"S3_UPLOAD_PREFIX" envDefault:"uploads/"`
	UploadURLTTL          time.Duration `env:"S3_UPLOAD_URL_TTL" envDefault:"15m"`
	DownloadURLTTL        time.Duration `env:"S3_DOWNLOAD_URL_TTL" envDefault:"1h"`
	PresignedPostMaxBytes int64         `env:"S3_PRESIGNED_POST_MAX_BYTES" envDefault:"10485760"`
	ServerSideEncryption  string        `env:"S3_SERVER_SIDE_ENCRYPTION" envDefault:"AES256"`
	UploadTimeout         time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"5m"`
}

func (c *Config) applyDefaults() {
	if c.UploadPrefix == "" {
		c.UploadPrefix = "uploads/"
	}
	if c.UploadURLTTL <= 0 {
		c.UploadURLTTL = 15 * time.Minute
	}
	if c.DownloadURLTTL <= 0 {
		c.DownloadURLTTL = time.Hour
	}
	if c.PresignedPostMaxBytes <= 0 {
		c.PresignedPostMaxBytes = 10 * 1024 * 1024
	}
}
