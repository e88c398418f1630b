package security

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config selects the upload policy source.
type Config struct {
	PolicyFile string `env:"SECURITY_POLICY_FILE"`
}

// Policy overrides the built-in allow-lists and size limits.
// Empty sections keep the defaults.
type Policy struct {
	AllowedMIMETypes  []string    `yaml:"allowed_mime_types"`
	AllowedExtensions []string    `yaml:"allowed_extensions"`
	SizeLimits        []SizeLimit `yaml:"size_limits"`
	DefaultMaxBytes   int64       `yaml:"default_max_bytes"`
}

// LoadPolicy reads a YAML policy file.
//
//	allowed_extensions: [".pdf", ".png"]
//	default_max_bytes: 26214400
//	size_limits:
//	  - pattern: "image/*"
//	    max_bytes: 10485760
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadPolicy, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Join(ErrFailedToParsePolicy, err)
	}
	if p.DefaultMaxBytes < 0 {
		return nil, fmt.Errorf("%w: default_max_bytes must not be negative", ErrInvalidPolicy)
	}
	for i, l := range p.SizeLimits {
		if l.Pattern == "" || l.MaxBytes <= 0 {
			return nil, fmt.Errorf("%w: size_limits[%d] needs a pattern and a positive max_bytes", ErrInvalidPolicy, i)
		}
	}
	return &p, nil
}

// Options converts the policy into Validator options.
func (p *Policy) Options() []Option {
	if p == nil {
		return nil
	}
	return []Option{
		WithAllowedMIMETypes(p.AllowedMIMETypes...),
		WithAllowedExtensions(p.AllowedExtensions...),
		WithSizeLimits(p.DefaultMaxBytes, p.SizeLimits...),
	}
}

// NewFromConfig builds a Validator, applying the policy file when one is configured.
func NewFromConfig(cfg Config, opts ...Option) (*Validator, error) {
	if cfg.PolicyFile == "" {
		return New(opts...), nil
	}
	p, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	return New(append(p.Options(), opts...)...), nil
}
